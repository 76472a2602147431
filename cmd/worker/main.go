// Standalone queue worker. Runs the same intake pipeline as the API's
// embedded worker; deploy this when the queue needs to scale independently.
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

	"fieldvoice_backend/internal/events"
	"fieldvoice_backend/internal/intake"
	"fieldvoice_backend/internal/scheduler"
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
	if cfg.RedisURL == "" {
		panic("REDIS_URL is required for the worker")
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	llm := completion.NewClient(moonshot.NewModel(moonshot.Config{
		APIKey:          cfg.MoonshotAPIKey,
		BaseURL:         cfg.MoonshotBaseURL,
		Model:           cfg.MoonshotModel,
		DisableThinking: cfg.MoonshotDisableThinking,
	}))

	// The worker only drains the queue, so no enqueuer is wired.
	intakeModule, err := intake.NewModule(cfg, pool, llm, eventBus, nil, val, log)
	if err != nil {
		log.Error("failed to initialize intake module", "error", err)
		panic("failed to initialize intake module: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, intakeModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
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
