// Command promptd runs the promptdeck server: the prompt REST API, anonymous
// authentication, the websocket sync gateway and the embedded web shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/common/config"
	"github.com/promptdeck/promptdeck/internal/common/database"
	"github.com/promptdeck/promptdeck/internal/common/httpmw"
	"github.com/promptdeck/promptdeck/internal/common/logger"
	"github.com/promptdeck/promptdeck/internal/events/bus"
	gateway "github.com/promptdeck/promptdeck/internal/gateway/websocket"
	"github.com/promptdeck/promptdeck/internal/prompt/api"
	"github.com/promptdeck/promptdeck/internal/prompt/repository"
	"github.com/promptdeck/promptdeck/internal/prompt/service"
	"github.com/promptdeck/promptdeck/internal/shell"
	"github.com/promptdeck/promptdeck/pkg/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "promptd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := newRepository(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initializing repository: %w", err)
	}
	defer repo.Close()

	eventBus, err := newEventBus(cfg, log)
	if err != nil {
		return fmt.Errorf("initializing event bus: %w", err)
	}
	defer eventBus.Close()

	// Answer bus liveness pings so the health endpoint can verify a full
	// publish/subscribe round-trip.
	pingSub, err := bus.StartPingResponder(eventBus, "promptd")
	if err != nil {
		return fmt.Errorf("starting ping responder: %w", err)
	}
	defer pingSub.Unsubscribe()

	promptSvc := service.NewService(repo, eventBus, log)
	authSvc := auth.NewService(cfg.Auth, log)

	dispatcher := ws.NewDispatcher()
	gateway.RegisterHealthHandler(dispatcher)
	gateway.RegisterPromptActions(dispatcher, promptSvc)

	hub := gateway.NewHub(dispatcher, log)
	notifier := gateway.NewNotifier(hub, promptSvc, eventBus, log)
	if err := notifier.Start(); err != nil {
		return fmt.Errorf("starting snapshot notifier: %w", err)
	}
	defer notifier.Stop()

	engine, err := newRouter(cfg, log, promptSvc, authSvc, hub, notifier, eventBus)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("database", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newRouter(
	cfg *config.Config,
	log *logger.Logger,
	promptSvc *service.Service,
	authSvc *auth.Service,
	hub *gateway.Hub,
	notifier *gateway.Notifier,
	eventBus bus.EventBus,
) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(httpmw.RequestID(), httpmw.RequestLogger(log), httpmw.Recovery(log))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-ID")
	engine.Use(cors.New(corsCfg))

	engine.GET("/healthz", func(c *gin.Context) {
		if _, err := bus.Ping(c.Request.Context(), eventBus, "healthz", 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "bus": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "bus": "ok"})
	})

	apiGroup := engine.Group("/api/v1")
	auth.RegisterRoutes(apiGroup, auth.NewHandler(authSvc))

	protected := apiGroup.Group("", auth.Middleware(authSvc))
	api.RegisterRoutes(protected, api.NewHandler(promptSvc, log))

	wsHandler := gateway.NewHandler(hub, notifier, log)
	protected.GET("/ws", wsHandler.HandleConnection)

	if err := shell.RegisterRoutes(engine); err != nil {
		return nil, fmt.Errorf("registering shell routes: %w", err)
	}
	return engine, nil
}

func newRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Repository, error) {
	switch cfg.Database.Driver {
	case "memory":
		return repository.NewMemoryRepository(), nil
	case "sqlite":
		return repository.NewSQLiteRepository(cfg.Database.Path)
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresRepository(ctx, pool)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func newEventBus(cfg *config.Config, log *logger.Logger) (bus.EventBus, error) {
	if cfg.NATS.URL == "" {
		log.Info("using in-memory event bus")
		return bus.NewMemoryEventBus(log), nil
	}
	return bus.NewNATSEventBus(cfg.NATS, log)
}
