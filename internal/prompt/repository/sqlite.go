package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/promptdeck/promptdeck/internal/common/errors"
	"github.com/promptdeck/promptdeck/internal/prompt/models"
)

// SQLiteRepository provides SQLite-based prompt storage operations
type SQLiteRepository struct {
	db *sql.DB
}

// Ensure SQLiteRepository implements Repository interface
var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &SQLiteRepository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// initSchema creates the database tables if they don't exist
func (r *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prompts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		category TEXT DEFAULT 'General',
		tags TEXT DEFAULT '[]',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prompts_user_id ON prompts(user_id);
	CREATE INDEX IF NOT EXISTS idx_prompts_user_updated ON prompts(user_id, updated_at DESC);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Create creates a new prompt
func (r *SQLiteRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	if prompt.ID == "" {
		prompt.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	prompt.CreatedAt = now
	prompt.UpdatedAt = now

	tags, err := json.Marshal(prompt.Tags)
	if err != nil {
		tags = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO prompts (id, user_id, title, content, category, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, prompt.ID, prompt.UserID, prompt.Title, prompt.Content, prompt.Category, string(tags), prompt.CreatedAt, prompt.UpdatedAt)

	return err
}

// Get retrieves a prompt by ID for the given user
func (r *SQLiteRepository) Get(ctx context.Context, userID, id string) (*models.Prompt, error) {
	prompt := &models.Prompt{}
	var tags string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, content, category, tags, created_at, updated_at
		FROM prompts WHERE user_id = ? AND id = ?
	`, userID, id).Scan(&prompt.ID, &prompt.UserID, &prompt.Title, &prompt.Content, &prompt.Category, &tags, &prompt.CreatedAt, &prompt.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("prompt not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	_ = json.Unmarshal([]byte(tags), &prompt.Tags)
	return prompt, nil
}

// GetByTitle retrieves a prompt by exact title for the given user
func (r *SQLiteRepository) GetByTitle(ctx context.Context, userID, title string) (*models.Prompt, error) {
	prompt := &models.Prompt{}
	var tags string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, content, category, tags, created_at, updated_at
		FROM prompts WHERE user_id = ? AND title = ?
		ORDER BY updated_at DESC LIMIT 1
	`, userID, title).Scan(&prompt.ID, &prompt.UserID, &prompt.Title, &prompt.Content, &prompt.Category, &tags, &prompt.CreatedAt, &prompt.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("prompt not found: %s", title)
	}
	if err != nil {
		return nil, err
	}

	_ = json.Unmarshal([]byte(tags), &prompt.Tags)
	return prompt, nil
}

// List returns all prompts for the given user, most recently updated first
func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]*models.Prompt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, content, category, tags, created_at, updated_at
		FROM prompts WHERE user_id = ? ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanPrompts(rows)
}

// Update updates an existing prompt
func (r *SQLiteRepository) Update(ctx context.Context, prompt *models.Prompt) error {
	prompt.UpdatedAt = time.Now().UTC()

	tags, err := json.Marshal(prompt.Tags)
	if err != nil {
		tags = []byte("[]")
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE prompts SET title = ?, content = ?, category = ?, tags = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, prompt.Title, prompt.Content, prompt.Category, string(tags), prompt.UpdatedAt, prompt.UserID, prompt.ID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.NotFound("prompt not found: %s", prompt.ID)
	}
	return nil
}

// Delete deletes a prompt by ID for the given user
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM prompts WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.NotFound("prompt not found: %s", id)
	}
	return nil
}

// scanPrompts scans multiple prompt rows
func (r *SQLiteRepository) scanPrompts(rows *sql.Rows) ([]*models.Prompt, error) {
	var result []*models.Prompt
	for rows.Next() {
		prompt := &models.Prompt{}
		var tags string
		err := rows.Scan(&prompt.ID, &prompt.UserID, &prompt.Title, &prompt.Content, &prompt.Category, &tags, &prompt.CreatedAt, &prompt.UpdatedAt)
		if err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tags), &prompt.Tags)
		result = append(result, prompt)
	}
	return result, rows.Err()
}
