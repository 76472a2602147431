package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"fieldvoice_backend/internal/catalog"
	"fieldvoice_backend/internal/events"
	apphttp "fieldvoice_backend/internal/http"
	"fieldvoice_backend/internal/http/router"
	"fieldvoice_backend/internal/intake"
	intakeservice "fieldvoice_backend/internal/intake/service"
	"fieldvoice_backend/internal/invoice"
	"fieldvoice_backend/internal/scheduler"
	"fieldvoice_backend/internal/support"
	"fieldvoice_backend/internal/tickets"
	"fieldvoice_backend/platform/ai/completion"
	"fieldvoice_backend/platform/ai/moonshot"
	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/db"
	"fieldvoice_backend/platform/logger"
	"fieldvoice_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Kimi chat-completion client shared by intake, invoice, and support
	llm := completion.NewClient(moonshot.NewModel(moonshot.Config{
		APIKey:          cfg.MoonshotAPIKey,
		BaseURL:         cfg.MoonshotBaseURL,
		Model:           cfg.MoonshotModel,
		DisableThinking: cfg.MoonshotDisableThinking,
	}))
	log.Info("chat completion client initialized", "model", llm.ModelName())

	// Task queue client; without Redis, enqueue degrades to inline processing
	var enqueuer intakeservice.Enqueuer
	if cfg.RedisURL != "" {
		queueClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize task queue client", "error", err)
			panic("failed to initialize task queue client: " + err.Error())
		}
		defer func() {
			_ = queueClient.Close()
		}()
		enqueuer = queueClient
		log.Info("task queue client initialized", "queue", cfg.AsynqQueueName)
	} else {
		log.Warn("REDIS_URL not configured; voice enqueue will process inline")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	intakeModule, err := intake.NewModule(cfg, pool, llm, eventBus, enqueuer, val, log)
	if err != nil {
		log.Error("failed to initialize intake module", "error", err)
		panic("failed to initialize intake module: " + err.Error())
	}

	catalogModule := catalog.NewModule(pool)
	invoiceModule := invoice.NewModule(cfg, pool, llm, catalogModule.Repository(), val, log)

	ticketsClient := tickets.NewClient(cfg, log)
	supportModule, err := support.NewModule(cfg, llm, ticketsClient, val, log)
	if err != nil {
		log.Error("failed to initialize support module", "error", err)
		panic("failed to initialize support module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			intakeModule,
			catalogModule,
			invoiceModule,
			supportModule,
		},
	}

	engine := router.New(app)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		return engine.Run(cfg.HTTPAddr)
	})

	if cfg.WorkerEmbedded && cfg.RedisURL != "" {
		worker, err := scheduler.NewWorker(cfg, intakeModule.Service(), log)
		if err != nil {
			log.Error("failed to initialize embedded worker", "error", err)
			panic("failed to initialize embedded worker: " + err.Error())
		}
		group.Go(func() error {
			log.Info("embedded worker started", "queue", cfg.AsynqQueueName)
			worker.Run(groupCtx)
			return nil
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("shutdown complete")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
