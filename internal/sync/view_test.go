package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
)

func sampleView() *View {
	view := NewView()
	now := time.Now().UTC()
	view.Replace([]v1.Prompt{
		{ID: "1", Title: "Code Review", Content: "Review this diff", Category: "Development", Tags: []string{"code"}, UpdatedAt: now},
		{ID: "2", Title: "Daily Standup", Content: "Summarize yesterday", Category: "Work", Tags: []string{"meeting", "summary"}, UpdatedAt: now.Add(-time.Hour)},
		{ID: "3", Title: "Recipe Ideas", Content: "Suggest dinner recipes", Category: "Cooking", UpdatedAt: now.Add(-2 * time.Hour)},
	})
	return view
}

func TestViewStartsEmpty(t *testing.T) {
	view := NewView()
	assert.NotNil(t, view.Prompts())
	assert.Equal(t, 0, view.Count())
}

func TestViewReplaceSwapsWholeSnapshot(t *testing.T) {
	view := sampleView()
	assert.Equal(t, 3, view.Count())

	view.Replace([]v1.Prompt{{ID: "9", Title: "Only One"}})
	assert.Equal(t, 1, view.Count())
	assert.Equal(t, "Only One", view.Prompts()[0].Title)

	view.Replace(nil)
	assert.NotNil(t, view.Prompts())
	assert.Equal(t, 0, view.Count())
}

func TestFilterMatchesAllFields(t *testing.T) {
	view := sampleView()

	tests := []struct {
		name  string
		query string
		ids   []string
	}{
		{"empty query matches all", "", []string{"1", "2", "3"}},
		{"title match is case-insensitive", "CODE RE", []string{"1"}},
		{"content match", "yesterday", []string{"2"}},
		{"category match", "cooking", []string{"3"}},
		{"tag match", "meeting", []string{"2"}},
		{"substring spans words", "ily sta", []string{"2"}},
		{"no match", "quantum", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, p := range view.Filter(tt.query) {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestReplaceSortsNewestFirst(t *testing.T) {
	now := time.Now().UTC()
	view := NewView()
	view.Replace([]v1.Prompt{
		{ID: "old", UpdatedAt: now.Add(-time.Hour)},
		{ID: "untimed"},
		{ID: "new", UpdatedAt: now},
	})

	ids := []string{}
	for _, p := range view.Prompts() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"new", "old", "untimed"}, ids)
}

func TestFilterIsIdempotent(t *testing.T) {
	view := sampleView()
	once := view.Filter("review")
	require.NotEmpty(t, once)

	// Filtering an already-filtered snapshot with the same term changes
	// nothing.
	narrowed := NewView()
	narrowed.Replace(once)
	twice := narrowed.Filter("review")
	assert.Equal(t, once, twice)
}

func TestFilterPreservesOrder(t *testing.T) {
	view := sampleView()
	matched := view.Filter("e")
	ids := make([]string, 0, len(matched))
	for _, p := range matched {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}
