package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/promptdeck/promptdeck/internal/common/errors"
	"github.com/promptdeck/promptdeck/internal/prompt/models"
)

// MemoryRepository provides in-memory prompt storage operations
type MemoryRepository struct {
	prompts map[string]*models.Prompt
	mu      sync.RWMutex
}

// Ensure MemoryRepository implements Repository interface
var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new in-memory prompt repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		prompts: make(map[string]*models.Prompt),
	}
}

// Close is a no-op for in-memory repository
func (r *MemoryRepository) Close() error {
	return nil
}

// Create creates a new prompt
func (r *MemoryRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.ID == "" {
		prompt.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	prompt.CreatedAt = now
	prompt.UpdatedAt = now

	r.prompts[prompt.ID] = prompt.Clone()
	return nil
}

// Get retrieves a prompt by ID for the given user
func (r *MemoryRepository) Get(ctx context.Context, userID, id string) (*models.Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prompt, ok := r.prompts[id]
	if !ok || prompt.UserID != userID {
		return nil, apperrors.NotFound("prompt not found: %s", id)
	}
	return prompt.Clone(), nil
}

// GetByTitle retrieves a prompt by exact title for the given user.
// When several prompts share a title the most recently updated one wins.
func (r *MemoryRepository) GetByTitle(ctx context.Context, userID, title string) (*models.Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var match *models.Prompt
	for _, prompt := range r.prompts {
		if prompt.UserID != userID || prompt.Title != title {
			continue
		}
		if match == nil || prompt.UpdatedAt.After(match.UpdatedAt) {
			match = prompt
		}
	}
	if match == nil {
		return nil, apperrors.NotFound("prompt not found: %s", title)
	}
	return match.Clone(), nil
}

// List returns all prompts for the given user, most recently updated first
func (r *MemoryRepository) List(ctx context.Context, userID string) ([]*models.Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Prompt
	for _, prompt := range r.prompts {
		if prompt.UserID == userID {
			result = append(result, prompt.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// Update updates an existing prompt
func (r *MemoryRepository) Update(ctx context.Context, prompt *models.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.prompts[prompt.ID]
	if !ok || existing.UserID != prompt.UserID {
		return apperrors.NotFound("prompt not found: %s", prompt.ID)
	}
	prompt.CreatedAt = existing.CreatedAt
	prompt.UpdatedAt = time.Now().UTC()
	r.prompts[prompt.ID] = prompt.Clone()
	return nil
}

// Delete deletes a prompt by ID for the given user
func (r *MemoryRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.prompts[id]
	if !ok || existing.UserID != userID {
		return apperrors.NotFound("prompt not found: %s", id)
	}
	delete(r.prompts, id)
	return nil
}
