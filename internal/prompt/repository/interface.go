// Package repository provides persistence for prompts.
package repository

import (
	"context"

	"github.com/promptdeck/promptdeck/internal/prompt/models"
)

// Repository defines the persistence operations for prompts. Every operation
// is scoped to a single user: one user can never observe another's prompts.
type Repository interface {
	// Create persists a new prompt.
	Create(ctx context.Context, prompt *models.Prompt) error

	// Get retrieves a prompt by ID for the given user.
	Get(ctx context.Context, userID, id string) (*models.Prompt, error)

	// GetByTitle retrieves a prompt by exact title for the given user.
	// Used for idempotent seeding; returns the most recently updated match.
	GetByTitle(ctx context.Context, userID, title string) (*models.Prompt, error)

	// List returns all prompts for the given user, most recently updated
	// first. Prompts without an update timestamp sort last.
	List(ctx context.Context, userID string) ([]*models.Prompt, error)

	// Update persists changes to an existing prompt.
	Update(ctx context.Context, prompt *models.Prompt) error

	// Delete removes a prompt by ID for the given user.
	Delete(ctx context.Context, userID, id string) error

	// Close releases any resources held by the repository.
	Close() error
}
