package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/common/config"
	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/offline"
	"github.com/promptdeck/promptdeck/internal/shell"
	"github.com/promptdeck/promptdeck/internal/sync"
)

var (
	cfgPath     string
	serverURL   string
	offlineMode bool
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:   "promptctl",
	Short: "Manage prompts on a promptdeck server",
	Long: `promptctl is the command-line client for promptdeck.

It stores an anonymous identity locally, so the first invocation of any
command signs you in automatically. Your prompts live on the server and
sync to every client signed in with the same identity.

Examples:
  promptctl list                          # List all prompts, newest first
  promptctl create --title "Review" --content "Review this: {code}"
  promptctl list --filter review          # Case-insensitive search
  promptctl export                        # Write prompts-export-<date>.json
  promptctl watch                         # Stream live collection updates`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config directory (default: . and /etc/promptdeck)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&offlineMode, "offline", false, "serve reads through the local offline cache")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON instead of text")
}

// clientEnv bundles what every subcommand needs.
type clientEnv struct {
	cfg    *config.Config
	log    *logger.Logger
	client *sync.Client
}

func newClientEnv(ctx context.Context) (*clientEnv, error) {
	cfg, err := config.LoadWithPath(cfgPath)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Client.ServerURL = serverURL
	}
	if cfg.Client.TokenFile == "" {
		path, err := defaultTokenFile()
		if err != nil {
			return nil, err
		}
		cfg.Client.TokenFile = path
	}

	// CLI output goes to stdout; logs stay on stderr.
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: "stderr",
	})
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	if offlineMode {
		transport, err := newOfflineTransport(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = transport
	}

	env := &clientEnv{
		cfg:    cfg,
		log:    log,
		client: sync.NewClient(cfg.Client, httpClient, log),
	}
	if err := env.ensureSignedIn(ctx); err != nil {
		return nil, err
	}
	return env, nil
}

// ensureSignedIn signs in anonymously when no token is stored yet.
func (e *clientEnv) ensureSignedIn(ctx context.Context) error {
	if e.client.Token() != "" {
		return nil
	}
	resp, err := e.client.SignInAnonymously(ctx)
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}
	fmt.Fprintf(os.Stderr, "signed in as %s\n", resp.UserID)
	return nil
}

// newOfflineTransport builds the stale-while-revalidate cache and runs its
// install/activate lifecycle so cached reads work without a network.
func newOfflineTransport(ctx context.Context, cfg *config.Config, log *logger.Logger) (*offline.Controller, error) {
	var storage offline.Storage
	switch cfg.Cache.Store {
	case "memory":
		storage = offline.NewMemoryStorage()
	default:
		s, err := offline.NewSQLiteStorage(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("opening cache store: %w", err)
		}
		storage = s
	}

	controller := offline.NewController(storage, offline.Options{
		Version:       cfg.Cache.Version,
		Origin:        cfg.Client.ServerURL,
		PrecachePaths: shell.PrecachePaths(),
		BypassHosts:   cfg.Cache.BypassHosts,
	}, log)

	// With no network the cache still serves what it has: activation opens
	// whatever a previous run persisted.
	if err := controller.Run(ctx); err != nil {
		log.WithError(err).Warn("offline cache install failed, serving from existing cache")
		if actErr := controller.Activate(ctx); actErr != nil {
			return nil, fmt.Errorf("activating offline cache: %w", actErr)
		}
	}
	return controller, nil
}

func defaultTokenFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".promptdeck")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return filepath.Join(dir, "token"), nil
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
