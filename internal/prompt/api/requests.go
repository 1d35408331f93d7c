package api

// CreatePromptRequest is the payload for creating a prompt.
type CreatePromptRequest struct {
	Title    string   `json:"title" binding:"required"`
	Content  string   `json:"content" binding:"required"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// UpdatePromptRequest is the payload for partially updating a prompt.
// Omitted fields are left unchanged.
type UpdatePromptRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

// EnsurePromptRequest is the payload for title-idempotent creation.
type EnsurePromptRequest struct {
	Title    string   `json:"title" binding:"required"`
	Content  string   `json:"content" binding:"required"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// ImportResponse reports how many records a bulk import accepted.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
