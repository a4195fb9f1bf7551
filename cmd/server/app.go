package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/recaplab/recap-api/internal/config"
	"github.com/recaplab/recap-api/internal/events"
	"github.com/recaplab/recap-api/internal/lease"
	"github.com/recaplab/recap-api/internal/pipeline"
	"github.com/recaplab/recap-api/internal/platform/gemini"
	"github.com/recaplab/recap-api/internal/platform/logger"
	"github.com/recaplab/recap-api/internal/platform/postgres"
	"github.com/recaplab/recap-api/internal/service/auth"
)

// application holds the wired dependencies for the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jobStore     *postgres.PostgresBatchJobStore
	summaryStore *postgres.PostgresSummaryStore
	weeklyStore  *postgres.PostgresWeeklyDataStore

	provider *gemini.BatchProvider
	emitter  *events.InMemoryReportEmitter

	submitter *pipeline.Submitter
	consumer  *pipeline.Consumer
	poller    *pipeline.Poller
	janitor   *pipeline.Janitor
	scheduler *pipeline.Scheduler

	jwtService   auth.JWTService
	adminService *auth.AdminService

	cycleLease *lease.RedisLease
}

// newApplication loads configuration and builds the full dependency graph:
// logging, database, migrations, stores, provider, pipeline and auth.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"poll_interval", cfg.Pipeline.PollInterval,
		"weekend_only", cfg.Pipeline.WeekendOnly,
		"lease_enabled", cfg.Redis.LeaseEnabled)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := postgres.MigrateUp(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	app := &application{
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	app.jobStore = postgres.NewPostgresBatchJobStore(db, appLogger)
	app.summaryStore = postgres.NewPostgresSummaryStore(db, appLogger)
	app.weeklyStore = postgres.NewPostgresWeeklyDataStore(db, appLogger)

	app.provider, err = gemini.NewBatchProvider(ctx, appLogger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch provider: %w", err)
	}

	app.emitter = events.NewInMemoryReportEmitter(appLogger)
	app.emitter.RegisterHandler(events.NewLogReportHandler(appLogger))

	app.submitter = pipeline.NewSubmitter(app.weeklyStore, app.summaryStore, app.jobStore, app.provider, appLogger)
	app.consumer = pipeline.NewConsumer(app.jobStore, app.weeklyStore, app.summaryStore, app.provider, app.emitter, appLogger)
	app.poller = pipeline.NewPoller(app.jobStore, app.provider, app.consumer, app.emitter, appLogger)
	app.janitor = pipeline.NewJanitor(app.jobStore, cfg.Pipeline.Retention, appLogger)

	schedulerOpts := pipeline.SchedulerOptions{
		Interval:     cfg.Pipeline.PollInterval,
		CycleTimeout: cfg.Pipeline.CycleTimeout,
	}
	if cfg.Pipeline.WeekendOnly {
		schedulerOpts.Window = pipeline.WeekendWindow
	}
	if cfg.Redis.LeaseEnabled {
		app.cycleLease = lease.NewRedisLease(cfg.Redis, appLogger)
		schedulerOpts.Lease = app.cycleLease
	}
	app.scheduler = pipeline.NewScheduler(app.poller, app.janitor, nil, schedulerOpts, appLogger)

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.adminService = auth.NewAdminService(cfg.Auth, app.jwtService, appLogger)

	return app, nil
}

// run starts the pipeline scheduler and the HTTP server. It blocks until
// ctx is cancelled or the server fails.
func (app *application) run(ctx context.Context) error {
	go app.scheduler.Run(ctx)
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases resources on shutdown.
func (app *application) cleanup() {
	if app.cycleLease != nil {
		if err := app.cycleLease.Close(); err != nil {
			app.logger.Warn("failed to close lease client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn("failed to close database", "error", err)
		}
	}
}
