// Package v1 defines the wire types shared by the server, the websocket
// gateway and client tooling.
package v1

import "time"

// Prompt is the API representation of a stored prompt.
type Prompt struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PromptList is the full collection snapshot returned by list calls and
// pushed over the websocket gateway. The server always sends the whole
// collection, newest first; clients swap their view atomically.
type PromptList struct {
	Prompts []Prompt `json:"prompts"`
	Count   int      `json:"count"`
}

// TransferRecord is the JSON interchange format for import and export.
// Timestamps are RFC 3339 strings and omitted when the source record has
// none; only title and content are required on import.
type TransferRecord struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

// SignInResponse is returned by the anonymous sign-in endpoint.
type SignInResponse struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToTransferRecord converts a prompt to its interchange representation.
func (p Prompt) ToTransferRecord() TransferRecord {
	record := TransferRecord{
		Title:    p.Title,
		Content:  p.Content,
		Category: p.Category,
		Tags:     p.Tags,
	}
	if !p.CreatedAt.IsZero() {
		record.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !p.UpdatedAt.IsZero() {
		record.UpdatedAt = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return record
}
