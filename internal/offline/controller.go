package offline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/promptdeck/promptdeck/internal/common/logger"
)

// State is the controller lifecycle state. Interception only happens once the
// controller is active; before that every request goes straight to the
// network.
type State int32

const (
	StateIdle State = iota
	StateInstalling
	StateWaiting
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	default:
		return "idle"
	}
}

// Message is a control message for the controller.
type Message struct {
	Type string `json:"type"`
}

// MessageSkipWaiting asks a waiting controller to activate immediately.
const MessageSkipWaiting = "SKIP_WAITING"

const (
	cacheNamePrefix  = "promptdeck-"
	runtimeCacheName = "promptdeck-runtime"
)

// RevalidationStatus records the outcome of the most recent background
// revalidation. Failures are kept observable here rather than dropped.
type RevalidationStatus struct {
	URL     string
	Error   string
	At      time.Time
	Success bool
}

// Controller owns the named caches and their lifecycle: install precaches
// the application shell, activate garbage-collects caches from older
// versions, and the embedded transport serves requests cache-first.
type Controller struct {
	storage       Storage
	version       string
	precachePaths []string
	origin        string
	bypassHosts   map[string]bool
	inner         http.RoundTripper
	logger        *logger.Logger

	state atomic.Int32

	mu           sync.RWMutex
	shellCache   Cache
	runtimeCache Cache

	lastRevalidation     atomic.Pointer[RevalidationStatus]
	revalidationFailures atomic.Int64

	background sync.WaitGroup
}

// Options configure a Controller.
type Options struct {
	// Version names the shell cache; bumping it invalidates older shells.
	Version string
	// Origin is the base URL the precache paths are fetched from.
	Origin string
	// PrecachePaths are fetched and cached during Install.
	PrecachePaths []string
	// BypassHosts are hostnames never served from cache.
	BypassHosts []string
	// Inner is the transport used for real network traffic. Defaults to
	// http.DefaultTransport.
	Inner http.RoundTripper
}

// NewController creates a controller over the given storage.
func NewController(storage Storage, opts Options, log *logger.Logger) *Controller {
	inner := opts.Inner
	if inner == nil {
		inner = http.DefaultTransport
	}

	bypass := make(map[string]bool, len(opts.BypassHosts))
	for _, host := range opts.BypassHosts {
		bypass[strings.ToLower(host)] = true
	}

	version := opts.Version
	if version == "" {
		version = "v1"
	}

	return &Controller{
		storage:       storage,
		version:       version,
		precachePaths: opts.PrecachePaths,
		origin:        strings.TrimRight(opts.Origin, "/"),
		bypassHosts:   bypass,
		inner:         inner,
		logger:        log.WithFields(zap.String("component", "offline")),
	}
}

// ShellCacheName returns the versioned name of the shell cache.
func (c *Controller) ShellCacheName() string {
	return cacheNamePrefix + c.version
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Install fetches every precache path from the origin and stores it in the
// versioned shell cache. Any fetch failure fails the whole install; a
// partially populated shell is worse than none. On success the controller
// enters the waiting state.
func (c *Controller) Install(ctx context.Context) error {
	c.state.Store(int32(StateInstalling))

	shell, err := c.storage.Open(ctx, c.ShellCacheName())
	if err != nil {
		c.state.Store(int32(StateIdle))
		return fmt.Errorf("opening shell cache: %w", err)
	}
	runtime, err := c.storage.Open(ctx, runtimeCacheName)
	if err != nil {
		c.state.Store(int32(StateIdle))
		return fmt.Errorf("opening runtime cache: %w", err)
	}

	complete, err := c.shellComplete(ctx, shell)
	if err != nil {
		c.state.Store(int32(StateIdle))
		return fmt.Errorf("inspecting shell cache: %w", err)
	}

	written, perr := c.precache(ctx, shell)
	if perr != nil {
		c.discardPartialInstall(ctx, shell, written, complete)
		c.state.Store(int32(StateIdle))
		return perr
	}

	c.mu.Lock()
	c.shellCache = shell
	c.runtimeCache = runtime
	c.mu.Unlock()

	c.state.Store(int32(StateWaiting))
	c.logger.Info("shell precached",
		zap.String("cache", c.ShellCacheName()),
		zap.Int("assets", len(c.precachePaths)))
	return nil
}

// shellComplete reports whether the shell cache already holds every precache
// path, meaning an earlier install for this version finished.
func (c *Controller) shellComplete(ctx context.Context, shell Cache) (bool, error) {
	for _, path := range c.precachePaths {
		entry, err := shell.Match(ctx, c.origin+path)
		if err != nil {
			return false, err
		}
		if entry == nil {
			return false, nil
		}
	}
	return true, nil
}

func (c *Controller) precache(ctx context.Context, shell Cache) ([]string, error) {
	var written []string
	for _, path := range c.precachePaths {
		url := c.origin + path
		entry, err := c.fetch(ctx, url)
		if err != nil {
			return written, fmt.Errorf("precaching %s: %w", url, err)
		}
		if entry.Status != http.StatusOK {
			return written, fmt.Errorf("precaching %s: unexpected status %d", url, entry.Status)
		}
		if err := shell.Put(ctx, url, entry); err != nil {
			return written, fmt.Errorf("storing %s: %w", url, err)
		}
		written = append(written, url)
	}
	return written, nil
}

// discardPartialInstall undoes a failed install. A shell that was already
// complete from an earlier run stays authoritative and is left untouched; the
// entries this install managed to write are fresh replacements, not damage.
// Otherwise only the keys written during this install are removed, and the
// cache itself when nothing else remains.
func (c *Controller) discardPartialInstall(ctx context.Context, shell Cache, written []string, complete bool) {
	if complete {
		return
	}
	for _, key := range written {
		if _, err := shell.Delete(ctx, key); err != nil {
			c.logger.WithError(err).Warn("failed to drop partial shell entry", zap.String("key", key))
		}
	}
	keys, err := shell.Keys(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("failed to list shell cache after failed install")
		return
	}
	if len(keys) == 0 {
		if _, err := c.storage.Delete(ctx, c.ShellCacheName()); err != nil {
			c.logger.WithError(err).Warn("failed to drop empty shell cache")
		}
	}
}

// Activate opens the caches for the current version, deletes caches left over
// from older versions, and starts intercepting requests. It can be called
// without a prior Install when storage already holds a shell from a previous
// run, for example when the process starts with no network.
func (c *Controller) Activate(ctx context.Context) error {
	shell, err := c.storage.Open(ctx, c.ShellCacheName())
	if err != nil {
		return fmt.Errorf("opening shell cache: %w", err)
	}
	runtime, err := c.storage.Open(ctx, runtimeCacheName)
	if err != nil {
		return fmt.Errorf("opening runtime cache: %w", err)
	}

	names, err := c.storage.Names(ctx)
	if err != nil {
		return fmt.Errorf("listing caches: %w", err)
	}

	keep := map[string]bool{
		c.ShellCacheName(): true,
		runtimeCacheName:   true,
	}
	for _, name := range names {
		if keep[name] {
			continue
		}
		if _, err := c.storage.Delete(ctx, name); err != nil {
			return fmt.Errorf("deleting stale cache %s: %w", name, err)
		}
		c.logger.Info("deleted stale cache", zap.String("cache", name))
	}

	c.mu.Lock()
	c.shellCache = shell
	c.runtimeCache = runtime
	c.mu.Unlock()

	c.state.Store(int32(StateActive))
	c.logger.Info("offline cache active", zap.String("cache", c.ShellCacheName()))
	return nil
}

// HandleMessage processes a control message. A SKIP_WAITING message promotes
// a waiting controller to active immediately; anything else is ignored.
func (c *Controller) HandleMessage(ctx context.Context, msg Message) error {
	if msg.Type != MessageSkipWaiting {
		return nil
	}
	if c.State() != StateWaiting {
		return nil
	}
	return c.Activate(ctx)
}

// Run installs and immediately activates, the common path when no previous
// version is still serving.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Install(ctx); err != nil {
		return err
	}
	return c.Activate(ctx)
}

// LastRevalidation returns the outcome of the most recent background
// revalidation, or nil if none has run yet.
func (c *Controller) LastRevalidation() *RevalidationStatus {
	return c.lastRevalidation.Load()
}

// RevalidationFailures returns the number of background revalidations that
// have failed since the controller started.
func (c *Controller) RevalidationFailures() int64 {
	return c.revalidationFailures.Load()
}

// Flush blocks until in-flight background revalidations complete. Intended
// for shutdown and tests.
func (c *Controller) Flush() {
	c.background.Wait()
}

// fetch performs a network GET through the inner transport and captures the
// response as a cache entry.
func (c *Controller) fetch(ctx context.Context, url string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	return captureResponse(resp)
}
