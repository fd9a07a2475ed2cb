package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/corkboard/internal/automation"
	"github.com/phrazzld/corkboard/internal/collab"
	"github.com/phrazzld/corkboard/internal/config"
	"github.com/phrazzld/corkboard/internal/events"
	"github.com/phrazzld/corkboard/internal/platform/postgres"
	"github.com/phrazzld/corkboard/internal/platform/redisbus"
	"github.com/phrazzld/corkboard/internal/realtime"
	"github.com/phrazzld/corkboard/internal/service/auth"
	"github.com/phrazzld/corkboard/internal/task"
	"github.com/redis/go-redis/v9"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	rdb    *redis.Client

	jwtService auth.JWTService
	verifier   *auth.TokenVerifier

	registry    *realtime.Registry
	router      *realtime.Router
	bus         *redisbus.Bus
	coordinator *collab.Coordinator

	taskQueue  *task.TaskQueue
	workerPool *task.WorkerPool
}

// newApplication wires the stores, the realtime layer, the automation tail
// and the coordinator. rdb may be nil, in which case broadcasts are local.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	rdb *redis.Client,
) (_ *application, err error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		rdb:    rdb,
	}
	// The caller owns db and rdb until construction succeeds.
	defer func() {
		if err != nil && app.bus != nil {
			_ = app.bus.Close()
		}
	}()

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.verifier = auth.NewTokenVerifier(app.jwtService)

	cards := postgres.NewPostgresCardStore(db, logger)
	comments := postgres.NewPostgresCommentStore(db, logger)
	checklists := postgres.NewPostgresChecklistStore(db, logger)
	notifications := postgres.NewPostgresNotificationStore(db, logger)
	activity := postgres.NewPostgresActivityStore(db, logger)
	rules := postgres.NewPostgresRuleStore(db, logger)
	executionLogs := postgres.NewPostgresExecutionLogStore(db, logger)

	app.registry = realtime.NewRegistry(app.verifier, logger)
	var routerOpts []realtime.RouterOption
	if rdb != nil {
		app.bus, err = redisbus.New(rdb, cfg.Redis.Namespace, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis bus: %w", err)
		}
		routerOpts = append(routerOpts, realtime.WithPublisher(app.bus))
	}
	app.router = realtime.NewRouter(app.registry, logger, routerOpts...)
	if app.bus != nil {
		if err = app.bus.Start(ctx, app.router); err != nil {
			return nil, fmt.Errorf("failed to start redis bus: %w", err)
		}
	}

	notifier, err := collab.NewNotifier(notifications, app.router, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	executor, err := automation.NewExecutor(automation.ExecutorDeps{
		Cards:         cards,
		Comments:      comments,
		Checklists:    checklists,
		Notifier:      notifier,
		ExecutionLogs: executionLogs,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create action executor: %w", err)
	}
	engine, err := automation.NewEngine(rules, executor, logger,
		automation.WithActionTimeout(cfg.Automation.ActionTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create automation engine: %w", err)
	}

	app.taskQueue = task.NewTaskQueue(cfg.Automation.QueueSize, logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
		WorkerCount: cfg.Automation.WorkerCount,
	}, logger)

	automationHandler, err := task.NewAutomationEventHandler(app.taskQueue, engine, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create automation event handler: %w", err)
	}
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(automationHandler)

	app.coordinator, err = collab.NewCoordinator(collab.Deps{
		Sessions:    app.registry,
		Presence:    realtime.NewPresenceTracker(app.router, logger),
		Locks:       realtime.NewEditLockTracker(app.router, logger),
		Broadcaster: app.router,
		Activity:    activity,
		Notifier:    notifier,
		Cards:       cards,
		Events:      emitter,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create collaboration coordinator: %w", err)
	}
	app.registry.OnDisconnect(app.coordinator.HandleDisconnect)

	app.workerPool.Start()
	logger.Info("Application initialized successfully",
		"redis_bus", app.bus != nil,
		"automation_workers", cfg.Automation.WorkerCount)
	return app, nil
}

// Run serves HTTP until ctx is canceled or a shutdown signal arrives.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources in reverse dependency order. Running
// automation finishes; runs still queued are dropped.
func (app *application) cleanup() {
	if app.workerPool != nil {
		app.workerPool.Stop()
	}
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}

	if app.bus != nil {
		if err := app.bus.Close(); err != nil {
			app.logger.Error("Error closing redis bus", "error", err)
		}
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("Error closing redis client", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
