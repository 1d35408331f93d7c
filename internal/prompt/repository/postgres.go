package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/promptdeck/promptdeck/internal/common/database"
	apperrors "github.com/promptdeck/promptdeck/internal/common/errors"
	"github.com/promptdeck/promptdeck/internal/prompt/models"
)

// PostgresRepository provides postgres-based prompt storage operations
type PostgresRepository struct {
	pool *database.Pool
}

// Ensure PostgresRepository implements Repository interface
var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new postgres repository and ensures the
// schema exists.
func NewPostgresRepository(ctx context.Context, pool *database.Pool) (*PostgresRepository, error) {
	repo := &PostgresRepository{pool: pool}
	if err := repo.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return repo, nil
}

func (r *PostgresRepository) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS prompts (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'General',
		tags JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prompts_user_updated ON prompts(user_id, updated_at DESC);
	`
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Close releases the underlying connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Create creates a new prompt
func (r *PostgresRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	if prompt.ID == "" {
		prompt.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	prompt.CreatedAt = now
	prompt.UpdatedAt = now

	tags := prompt.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO prompts (id, user_id, title, content, category, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, prompt.ID, prompt.UserID, prompt.Title, prompt.Content, prompt.Category, tags, prompt.CreatedAt, prompt.UpdatedAt)

	return err
}

// Get retrieves a prompt by ID for the given user
func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Prompt, error) {
	prompt := &models.Prompt{}

	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, content, category, tags, created_at, updated_at
		FROM prompts WHERE user_id = $1 AND id = $2
	`, userID, id).Scan(&prompt.ID, &prompt.UserID, &prompt.Title, &prompt.Content, &prompt.Category, &prompt.Tags, &prompt.CreatedAt, &prompt.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("prompt not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return prompt, nil
}

// GetByTitle retrieves a prompt by exact title for the given user
func (r *PostgresRepository) GetByTitle(ctx context.Context, userID, title string) (*models.Prompt, error) {
	prompt := &models.Prompt{}

	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, content, category, tags, created_at, updated_at
		FROM prompts WHERE user_id = $1 AND title = $2
		ORDER BY updated_at DESC LIMIT 1
	`, userID, title).Scan(&prompt.ID, &prompt.UserID, &prompt.Title, &prompt.Content, &prompt.Category, &prompt.Tags, &prompt.CreatedAt, &prompt.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("prompt not found: %s", title)
	}
	if err != nil {
		return nil, err
	}
	return prompt, nil
}

// List returns all prompts for the given user, most recently updated first
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Prompt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, content, category, tags, created_at, updated_at
		FROM prompts WHERE user_id = $1 ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.Prompt
	for rows.Next() {
		prompt := &models.Prompt{}
		err := rows.Scan(&prompt.ID, &prompt.UserID, &prompt.Title, &prompt.Content, &prompt.Category, &prompt.Tags, &prompt.CreatedAt, &prompt.UpdatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, prompt)
	}
	return result, rows.Err()
}

// Update updates an existing prompt
func (r *PostgresRepository) Update(ctx context.Context, prompt *models.Prompt) error {
	prompt.UpdatedAt = time.Now().UTC()

	tags := prompt.Tags
	if tags == nil {
		tags = []string{}
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE prompts SET title = $1, content = $2, category = $3, tags = $4, updated_at = $5
		WHERE user_id = $6 AND id = $7
	`, prompt.Title, prompt.Content, prompt.Category, tags, prompt.UpdatedAt, prompt.UserID, prompt.ID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("prompt not found: %s", prompt.ID)
	}
	return nil
}

// Delete deletes a prompt by ID for the given user
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prompts WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("prompt not found: %s", id)
	}
	return nil
}
