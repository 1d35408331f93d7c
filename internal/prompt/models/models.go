// Package models defines the prompt domain types.
package models

import "time"

// Prompt is a reusable text snippet owned by a single anonymous user.
type Prompt struct {
	ID       string   `json:"id"`
	UserID   string   `json:"-"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`

	// CreatedAt is set once at creation; UpdatedAt changes on every write and
	// drives the newest-first collection ordering.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultCategory is applied when a prompt is created without one.
const DefaultCategory = "General"

// Clone returns a deep copy so repository callers can mutate results freely.
func (p *Prompt) Clone() *Prompt {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Tags != nil {
		clone.Tags = make([]string, len(p.Tags))
		copy(clone.Tags, p.Tags)
	}
	return &clone
}
