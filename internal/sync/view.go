package sync

import (
	"sort"
	"strings"
	"sync/atomic"

	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
)

// View holds the client's local copy of the prompt collection. Snapshots
// replace the whole view atomically; partial merges never happen, so readers
// always observe a consistent collection.
type View struct {
	snapshot atomic.Pointer[[]v1.Prompt]
}

// NewView returns an empty view.
func NewView() *View {
	v := &View{}
	empty := []v1.Prompt{}
	v.snapshot.Store(&empty)
	return v
}

// Replace swaps in a new snapshot, ordered most recently updated first.
// Records without a timestamp sort last. The server already sends this
// order, but imported or hand-built snapshots may not.
func (v *View) Replace(prompts []v1.Prompt) {
	sorted := make([]v1.Prompt, len(prompts))
	copy(sorted, prompts)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].UpdatedAt, sorted[j].UpdatedAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})
	v.snapshot.Store(&sorted)
}

// Prompts returns the current snapshot. Callers must not mutate it.
func (v *View) Prompts() []v1.Prompt {
	return *v.snapshot.Load()
}

// Count returns the number of prompts in the current snapshot.
func (v *View) Count() int {
	return len(v.Prompts())
}

// Filter returns the prompts matching the query with a case-insensitive
// substring match over title, content, category and tags. An empty query
// matches everything.
func (v *View) Filter(query string) []v1.Prompt {
	prompts := v.Prompts()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return prompts
	}

	matched := make([]v1.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if promptMatches(p, query) {
			matched = append(matched, p)
		}
	}
	return matched
}

func promptMatches(p v1.Prompt, query string) bool {
	if strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Content), query) ||
		strings.Contains(strings.ToLower(p.Category), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}
