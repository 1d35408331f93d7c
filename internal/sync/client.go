// Package sync implements the client side of promptdeck: a REST client for
// the prompt API, a websocket subscriber that keeps a local snapshot view
// current, and file-based import, export and seeding helpers.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/promptdeck/promptdeck/internal/common/config"
	"github.com/promptdeck/promptdeck/internal/common/logger"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
)

const apiPrefix = "/api/v1"

// APIError is an error response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Code, e.Message, e.Status)
}

// CreatePrompt is the payload for creating or ensuring a prompt.
type CreatePrompt struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// UpdatePrompt is the payload for a partial update. Nil fields are left
// unchanged on the server.
type UpdatePrompt struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// ImportResult reports how many records a bulk import accepted.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Client talks to a promptdeck server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokenFile  string
	logger     *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the configured server. When httpClient is
// nil a default client with a sane timeout is used; callers wanting offline
// caching pass a client whose transport is an offline.Controller.
func NewClient(cfg config.ClientConfig, httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.ServerURL, "/"),
		httpClient: httpClient,
		tokenFile:  cfg.TokenFile,
		logger:     log,
	}
	c.loadToken()
	return c
}

// BaseURL returns the server URL the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the current bearer token, or empty when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token without persisting it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// SignInAnonymously obtains a fresh anonymous identity from the server and
// persists the token when a token file is configured.
func (c *Client) SignInAnonymously(ctx context.Context) (*v1.SignInResponse, error) {
	var resp v1.SignInResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/anonymous", nil, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	if c.tokenFile != "" {
		if err := os.WriteFile(c.tokenFile, []byte(resp.Token), 0o600); err != nil {
			return nil, fmt.Errorf("saving token to %s: %w", c.tokenFile, err)
		}
	}
	c.logger.WithUserID(resp.UserID).Info("signed in anonymously")
	return &resp, nil
}

// List fetches the full prompt collection, newest first.
func (c *Client) List(ctx context.Context) (*v1.PromptList, error) {
	var list v1.PromptList
	if err := c.doJSON(ctx, http.MethodGet, "/prompts", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Get fetches a single prompt by ID.
func (c *Client) Get(ctx context.Context, id string) (*v1.Prompt, error) {
	var prompt v1.Prompt
	if err := c.doJSON(ctx, http.MethodGet, "/prompts/"+id, nil, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// Create stores a new prompt. Title and content are validated locally so an
// obviously invalid write never leaves the client.
func (c *Client) Create(ctx context.Context, params CreatePrompt) (*v1.Prompt, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}
	var prompt v1.Prompt
	if err := c.doJSON(ctx, http.MethodPost, "/prompts", params, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// Ensure creates the prompt unless one with the same title already exists.
// The second return value reports whether a new prompt was created.
func (c *Client) Ensure(ctx context.Context, params CreatePrompt) (*v1.Prompt, bool, error) {
	if err := validateCreate(params); err != nil {
		return nil, false, err
	}
	var prompt v1.Prompt
	status, err := c.do(ctx, http.MethodPost, "/prompts/ensure", params, &prompt)
	if err != nil {
		return nil, false, err
	}
	return &prompt, status == http.StatusCreated, nil
}

// Update applies a partial update to a prompt.
func (c *Client) Update(ctx context.Context, id string, params UpdatePrompt) (*v1.Prompt, error) {
	if err := validateUpdate(params); err != nil {
		return nil, err
	}
	var prompt v1.Prompt
	if err := c.doJSON(ctx, http.MethodPatch, "/prompts/"+id, params, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// Delete removes a prompt.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/prompts/"+id, nil, nil)
}

func validateCreate(params CreatePrompt) error {
	if strings.TrimSpace(params.Title) == "" {
		return &APIError{Code: "INVALID_INPUT", Message: "title is required"}
	}
	if strings.TrimSpace(params.Content) == "" {
		return &APIError{Code: "INVALID_INPUT", Message: "content is required"}
	}
	return nil
}

func validateUpdate(params UpdatePrompt) error {
	if params.Title != nil && strings.TrimSpace(*params.Title) == "" {
		return &APIError{Code: "INVALID_INPUT", Message: "title cannot be empty"}
	}
	if params.Content != nil && strings.TrimSpace(*params.Content) == "" {
		return &APIError{Code: "INVALID_INPUT", Message: "content cannot be empty"}
	}
	return nil
}

// Export fetches all prompts in the interchange format.
func (c *Client) Export(ctx context.Context) ([]v1.TransferRecord, error) {
	var records []v1.TransferRecord
	if err := c.doJSON(ctx, http.MethodGet, "/prompts/export", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Import submits raw interchange JSON, a single record or an array, for bulk
// import. Records missing a title or content are skipped server-side.
func (c *Client) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	var result ImportResult
	if err := c.doJSON(ctx, http.MethodPost, "/prompts/import", json.RawMessage(data), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) loadToken() {
	if c.tokenFile == "" {
		return
	}
	data, err := os.ReadFile(c.tokenFile)
	if err != nil {
		return
	}
	c.token = strings.TrimSpace(string(data))
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.do(ctx, method, path, body, out)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return resp.StatusCode, decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, nil
}

func decodeAPIError(resp *http.Response) error {
	var envelope struct {
		Error APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Code == "" {
		return &APIError{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: resp.Status}
	}
	envelope.Error.Status = resp.StatusCode
	return &envelope.Error
}
