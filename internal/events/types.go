// Package events defines event types and subjects published on the event bus
// when prompts change.
package events

import (
	"fmt"
	"time"
)

// Event types published when a prompt collection changes.
const (
	PromptCreated = "prompt.created"
	PromptUpdated = "prompt.updated"
	PromptDeleted = "prompt.deleted"
)

// PromptSubject returns the bus subject carrying mutation events for a single
// user's prompt collection.
func PromptSubject(userID string) string {
	return fmt.Sprintf("prompts.%s", userID)
}

// PromptsWildcard matches mutation events for every user.
const PromptsWildcard = "prompts.*"

// PromptEvent is published whenever a prompt is created, updated or deleted.
// Subscribers treat it as a change notification and re-read the collection;
// the event itself never carries the full document set.
type PromptEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	PromptID  string    `json:"prompt_id"`
	Timestamp time.Time `json:"timestamp"`
}
