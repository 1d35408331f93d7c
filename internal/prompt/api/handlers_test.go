package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/events/bus"
	"github.com/promptdeck/promptdeck/internal/prompt/repository"
	"github.com/promptdeck/promptdeck/internal/prompt/service"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
)

// testService builds a prompt service on the in-memory repository and bus.
func testService(t *testing.T) *service.Service {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)

	eventBus := bus.NewMemoryEventBus(log)
	t.Cleanup(eventBus.Close)

	return service.NewService(repository.NewMemoryRepository(), eventBus, log)
}

// routerFor wires the handler behind a stand-in for the auth middleware that
// pins a fixed user identity, so handler behavior can be tested in isolation.
func routerFor(t *testing.T, svc *service.Service, userID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	handler := NewHandler(svc, log)

	router := gin.New()
	group := router.Group("/api/v1", func(c *gin.Context) {
		c.Set(auth.ContextUserIDKey, userID)
		c.Next()
	})
	RegisterRoutes(group, handler)
	return router
}

func testRouter(t *testing.T, userID string) *gin.Engine {
	t.Helper()
	return routerFor(t, testService(t), userID)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetPrompt(t *testing.T) {
	router := testRouter(t, "user-1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/prompts", map[string]any{
		"title":   "Code review",
		"content": "Review the following code",
		"tags":    []string{"code", "review"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created v1.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "General", created.Category)

	w = doJSON(t, router, http.MethodGet, "/api/v1/prompts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got v1.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []string{"code", "review"}, got.Tags)
}

func TestCreatePromptValidation(t *testing.T) {
	router := testRouter(t, "user-1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/prompts", map[string]any{
		"title": "only a title",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/prompts", map[string]any{
		"title":   "   ",
		"content": "c",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPromptsNewestFirst(t *testing.T) {
	router := testRouter(t, "user-1")

	for _, title := range []string{"first", "second", "third"} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/prompts", map[string]any{
			"title":   title,
			"content": "c",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/prompts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list v1.PromptList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 3, list.Count)
	assert.Equal(t, "third", list.Prompts[0].Title)
	assert.Equal(t, "first", list.Prompts[2].Title)
}

func TestUpdatePromptPartial(t *testing.T) {
	router := testRouter(t, "user-1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/prompts", map[string]any{
		"title":    "Original",
		"content":  "content",
		"category": "Writing",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created v1.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPatch, "/api/v1/prompts/"+created.ID, map[string]any{
		"content": "revised",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated v1.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "revised", updated.Content)
	assert.Equal(t, "Writing", updated.Category)
}

func TestUpdateMissingPromptReturns404(t *testing.T) {
	router := testRouter(t, "user-1")

	w := doJSON(t, router, http.MethodPatch, "/api/v1/prompts/nope", map[string]any{
		"content": "revised",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePrompt(t *testing.T) {
	router := testRouter(t, "user-1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/prompts", map[string]any{
		"title":   "t",
		"content": "c",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created v1.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodDelete, "/api/v1/prompts/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/prompts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/prompts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnsurePromptIdempotent(t *testing.T) {
	router := testRouter(t, "user-1")

	body := map[string]any{"title": "Seed", "content": "v1"}
	w := doJSON(t, router, http.MethodPost, "/api/v1/prompts/ensure", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/prompts/ensure", body)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/prompts", nil)
	var list v1.PromptList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestImportSingleAndArray(t *testing.T) {
	router := testRouter(t, "user-1")

	// Single object body.
	w := doJSON(t, router, http.MethodPost, "/api/v1/prompts/import", map[string]any{
		"title":   "Imported",
		"content": "c",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Imported)

	// Array body with one invalid entry.
	w = doJSON(t, router, http.MethodPost, "/api/v1/prompts/import", []map[string]any{
		{"title": "One", "content": "c"},
		{"title": "Missing content"},
		{"title": "Two", "content": "c", "tags": []string{"x"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 1, resp.Skipped)
}

func TestExportPrompts(t *testing.T) {
	router := testRouter(t, "user-1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/prompts", map[string]any{
		"title":    "Exported",
		"content":  "c",
		"category": "Code",
		"tags":     []string{"a", "b"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/prompts/export", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var records []v1.TransferRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Exported", records[0].Title)
	assert.NotEmpty(t, records[0].CreatedAt)
	assert.NotEmpty(t, records[0].UpdatedAt)
}

func TestUserIsolation(t *testing.T) {
	svc := testService(t)
	routerA := routerFor(t, svc, "user-a")
	routerB := routerFor(t, svc, "user-b")

	w := doJSON(t, routerA, http.MethodPost, "/api/v1/prompts", map[string]any{
		"title":   "mine",
		"content": "c",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created v1.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// A different identity sharing the same backing store must not see it.
	w = doJSON(t, routerB, http.MethodGet, "/api/v1/prompts", nil)
	var list v1.PromptList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)

	w = doJSON(t, routerB, http.MethodGet, "/api/v1/prompts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
