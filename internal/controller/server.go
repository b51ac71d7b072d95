package controller

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shortfactory/shortfactory/internal/config"
	"github.com/shortfactory/shortfactory/internal/controller/api"
	"github.com/shortfactory/shortfactory/internal/core/client"
	"github.com/shortfactory/shortfactory/internal/core/event"
	"github.com/shortfactory/shortfactory/internal/core/job"
	"github.com/shortfactory/shortfactory/internal/core/objectstore"
	"github.com/shortfactory/shortfactory/internal/core/service"
	"github.com/shortfactory/shortfactory/internal/core/workflow"
	"github.com/shortfactory/shortfactory/internal/database"
)

type deps struct {
	store database.Store
	bus   event.Bus
	jobs  *job.Manager
	svc   *service.WorkflowService
	close func()
}

// build wires the full dependency graph: durable store, event bus, external
// service clients, object storage, persistence gateway, and the workflow
// service on top.
func build(ctx context.Context, cfg *config.Config) (*deps, error) {
	var store database.Store
	cleanup := func() {}

	if cfg.Database.URL == "" {
		log.Warn().Msg("no database URL configured, using in-memory persistence")
		store = database.NewMemoryStore()
	} else {
		pool, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
		if err != nil {
			return nil, fmt.Errorf("database connect: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		store = database.NewPostgresStore(pool)
		cleanup = pool.Close
	}

	objects, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("object storage: %w", err)
	}

	scripts := client.NewAILogicClient(
		cfg.Services.AILogicURL,
		cfg.Services.ScriptTimeoutDuration(),
		cfg.Services.HealthTimeoutDuration(),
	)
	videos := client.NewVideoEngineClient(
		cfg.Services.VideoEngineURL,
		cfg.Services.VideoTimeoutDuration(),
		cfg.Services.HealthTimeoutDuration(),
	)
	sink := client.NewSheetsClient(cfg.Sheets.FormURL, cfg.Sheets.EntryID)

	bus := event.NewBus()
	jobs := job.NewManager(store, bus)

	opts := workflow.DefaultScriptOptions()
	if cfg.Video.TargetDuration > 0 {
		opts.TargetDuration = cfg.Video.TargetDuration
	}
	if len(cfg.Video.Platforms) > 0 {
		opts.TargetPlatforms = cfg.Video.Platforms
	}
	if cfg.Video.Style != "" {
		opts.Style = cfg.Video.Style
	}

	svc := service.NewWorkflowService(
		jobs, scripts, videos, objects, sink,
		cfg.S3.OutputBucket, opts,
		cfg.Services.HealthTimeoutDuration(),
	)

	return &deps{
		store: store,
		bus:   bus,
		jobs:  jobs,
		svc:   svc,
		close: cleanup,
	}, nil
}

func configureLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Debug().Str("level", cfg.Logging.Level).Msg("log level configured")
}

// Run starts the workflow API server and blocks until SIGINT/SIGTERM.
func Run(ctx context.Context, cfg *config.Config) error {
	configureLogging(cfg)

	d, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	e := echo.New()
	e.HideBanner = true

	api.SetupRouter(e, api.RouterConfig{
		Svc:   d.svc,
		Store: d.store,
		Bus:   d.bus,
	})

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info().Str("addr", addr).Msg("HTTP server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	return nil
}

// RunOnce executes a single workflow end to end and exits, for cron-style
// invocation. Unless skipped, it refuses to start when a collaborating
// service is unreachable.
func RunOnce(ctx context.Context, cfg *config.Config, topic string, skipHealthCheck bool) error {
	configureLogging(cfg)

	d, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	if !skipHealthCheck {
		status := d.svc.HealthCheck(ctx)
		log.Info().
			Bool("ai_logic", status.AILogic).
			Bool("video_engine", status.VideoEngine).
			Bool("storage", status.Storage).
			Msg("service health")
		if !status.AILogic || !status.VideoEngine {
			return fmt.Errorf("required services unavailable (ai_logic=%t video_engine=%t)", status.AILogic, status.VideoEngine)
		}
	}

	j, err := d.svc.ExecuteWorkflow(ctx, topic)
	if err != nil {
		return fmt.Errorf("workflow %s: %w", j.ID, err)
	}

	log.Info().Str("job_id", j.ID).Str("video_id", j.VideoID).Msg("workflow finished")
	return nil
}
