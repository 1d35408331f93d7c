package sync

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/common/config"
	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/events/bus"
	gateway "github.com/promptdeck/promptdeck/internal/gateway/websocket"
	"github.com/promptdeck/promptdeck/internal/prompt/api"
	"github.com/promptdeck/promptdeck/internal/prompt/repository"
	"github.com/promptdeck/promptdeck/internal/prompt/service"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
	"github.com/promptdeck/promptdeck/pkg/ws"
)

type serverFixture struct {
	server *httptest.Server
	dir    string
}

// newServerFixture starts a complete in-process server: REST API, anonymous
// auth and the websocket gateway, all backed by an in-memory store and bus.
func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)

	repo := repository.NewMemoryRepository()
	eventBus := bus.NewMemoryEventBus(log)
	svc := service.NewService(repo, eventBus, log)
	authSvc := auth.NewService(config.AuthConfig{JWTSecret: "test-secret", TokenDuration: 3600}, log)

	dispatcher := ws.NewDispatcher()
	gateway.RegisterHealthHandler(dispatcher)
	gateway.RegisterPromptActions(dispatcher, svc)
	hub := gateway.NewHub(dispatcher, log)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	notifier := gateway.NewNotifier(hub, svc, eventBus, log)
	require.NoError(t, notifier.Start())
	wsHandler := gateway.NewHandler(hub, notifier, log)

	engine := gin.New()
	apiGroup := engine.Group("/api/v1")
	auth.RegisterRoutes(apiGroup, auth.NewHandler(authSvc))

	protected := apiGroup.Group("", auth.Middleware(authSvc))
	api.RegisterRoutes(protected, api.NewHandler(svc, log))
	protected.GET("/ws", wsHandler.HandleConnection)

	server := httptest.NewServer(engine)
	t.Cleanup(func() {
		server.Close()
		notifier.Stop()
		cancel()
		eventBus.Close()
	})

	return &serverFixture{server: server, dir: t.TempDir()}
}

func (f *serverFixture) newClient(t *testing.T) *Client {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	return NewClient(config.ClientConfig{
		ServerURL: f.server.URL,
		TokenFile: filepath.Join(f.dir, "token"),
	}, nil, log)
}

func (f *serverFixture) signedInClient(t *testing.T) *Client {
	t.Helper()
	client := f.newClient(t)
	_, err := client.SignInAnonymously(context.Background())
	require.NoError(t, err)
	return client
}

func TestSignInPersistsToken(t *testing.T) {
	f := newServerFixture(t)
	client := f.newClient(t)

	resp, err := client.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.UserID)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, resp.Token, client.Token())

	saved, err := os.ReadFile(filepath.Join(f.dir, "token"))
	require.NoError(t, err)
	assert.Equal(t, resp.Token, string(saved))

	// A fresh client picks the persisted token up without signing in again.
	reloaded := f.newClient(t)
	assert.Equal(t, resp.Token, reloaded.Token())
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	f := newServerFixture(t)
	client := f.newClient(t)

	_, err := client.List(context.Background())
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, 401, apiErr.Status)
}

func TestClientCRUD(t *testing.T) {
	f := newServerFixture(t)
	client := f.signedInClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, CreatePrompt{
		Title:   "Greeting",
		Content: "Say hello",
		Tags:    []string{"smalltalk"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "General", created.Category)

	got, err := client.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Greeting", got.Title)

	newContent := "Say hello warmly"
	updated, err := client.Update(ctx, created.ID, UpdatePrompt{Content: &newContent})
	require.NoError(t, err)
	assert.Equal(t, "Say hello warmly", updated.Content)
	assert.Equal(t, "Greeting", updated.Title)

	list, err := client.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)

	require.NoError(t, client.Delete(ctx, created.ID))

	_, err = client.Get(ctx, created.ID)
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newServerFixture(t)
	client := f.signedInClient(t)
	ctx := context.Background()

	created, err := Seed(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, SeedCatalogSize(), created)

	// Seeding again creates nothing new.
	created, err = Seed(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	list, err := client.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedCatalogSize(), list.Count)
}

func TestCatalogStatusCountsMissingAndPresent(t *testing.T) {
	f := newServerFixture(t)
	client := f.signedInClient(t)
	ctx := context.Background()

	status, err := CatalogStatus(ctx, client)
	require.NoError(t, err)
	assert.Len(t, status.Missing, SeedCatalogSize())
	assert.Empty(t, status.Present)

	// A prompt whose title matches a catalog entry counts as present.
	_, err = client.Create(ctx, CreatePrompt{Title: seedCatalog[0].Title, Content: "mine"})
	require.NoError(t, err)

	status, err = CatalogStatus(ctx, client)
	require.NoError(t, err)
	assert.Len(t, status.Missing, SeedCatalogSize()-1)
	assert.Equal(t, []string{seedCatalog[0].Title}, status.Present)

	_, err = Seed(ctx, client)
	require.NoError(t, err)

	status, err = CatalogStatus(ctx, client)
	require.NoError(t, err)
	assert.Empty(t, status.Missing)
	assert.Len(t, status.Present, SeedCatalogSize())
}

func TestImportExportRoundTrip(t *testing.T) {
	f := newServerFixture(t)
	client := f.signedInClient(t)
	ctx := context.Background()

	importPath := filepath.Join(f.dir, "import.json")
	payload := `[
		{"title": "One", "content": "first"},
		{"title": "Two", "content": "second", "category": "Writing", "tags": ["draft"]},
		{"title": "", "content": "no title"}
	]`
	require.NoError(t, os.WriteFile(importPath, []byte(payload), 0o644))

	result, err := ImportFromFile(ctx, client, importPath)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)

	path, count, err := ExportToFile(ctx, client, f.dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := DecodeRecords(data)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestImportRejectsMalformedFile(t *testing.T) {
	f := newServerFixture(t)
	client := f.signedInClient(t)

	path := filepath.Join(f.dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := ImportFromFile(context.Background(), client, path)
	assert.Error(t, err)
}

func TestExportSinglePrompt(t *testing.T) {
	f := newServerFixture(t)
	client := f.signedInClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, CreatePrompt{Title: "My Best Prompt!", Content: "body"})
	require.NoError(t, err)

	path, err := ExportPromptToFile(created, f.dir)
	require.NoError(t, err)
	assert.Equal(t, "prompt-my-best-prompt.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := DecodeRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "My Best Prompt!", records[0].Title)
}

func TestSubscriberReceivesSnapshots(t *testing.T) {
	f := newServerFixture(t)
	client := f.signedInClient(t)

	view := NewView()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	sub := NewSubscriber(client, view, log)

	snapshots := make(chan v1.PromptList, 16)
	sub.OnSnapshot(func(list v1.PromptList) { snapshots <- list })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = sub.Run(ctx)
	}()

	// The initial snapshot after subscribing is the empty collection.
	initial := waitForSnapshot(t, snapshots, func(l v1.PromptList) bool { return true })
	assert.Equal(t, 0, initial.Count)

	_, err = client.Create(ctx, CreatePrompt{Title: "Pushed", Content: "via bus"})
	require.NoError(t, err)

	updated := waitForSnapshot(t, snapshots, func(l v1.PromptList) bool { return l.Count == 1 })
	assert.Equal(t, "Pushed", updated.Prompts[0].Title)
	assert.Equal(t, 1, view.Count())

	cancel()
	select {
	case <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop after cancel")
	}
}

func waitForSnapshot(t *testing.T, ch <-chan v1.PromptList, match func(v1.PromptList) bool) v1.PromptList {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case list := <-ch:
			if match(list) {
				return list
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return v1.PromptList{}
		}
	}
}
