package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	intakeservice "fieldvoice_backend/internal/intake/service"
	"fieldvoice_backend/internal/intake/workflow"
	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/logger"
)

// Compile-time check that the client satisfies the intake enqueuer port.
var _ intakeservice.Enqueuer = (*Client)(nil)

// Worker drains voice:process tasks through the intake service.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	intake *intakeservice.Service
	log    *logger.Logger
}

// NewWorker builds the asynq server against the configured Redis instance.
func NewWorker(cfg config.SchedulerConfig, intake *intakeservice.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		intake: intake,
		log:    log,
	}

	mux.HandleFunc(TaskVoiceProcess, w.handleVoiceProcess)

	return w, nil
}

// handleVoiceProcess runs the pipeline for one queued message. The pipeline
// compensates internally; only payload decoding and infrastructure failures
// are surfaced for asynq retry.
func (w *Worker) handleVoiceProcess(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseVoiceProcessPayload(task)
	if err != nil {
		return fmt.Errorf("decode voice process payload: %w", err)
	}

	final, err := w.intake.Process(ctx, intakeservice.ProcessRequest{
		MessageID:      payload.MessageID,
		AudioURL:       payload.AudioURL,
		CustomerPhone:  payload.CustomerPhone,
		OrganizationID: payload.OrganizationID,
	})
	if err != nil {
		return fmt.Errorf("process voice message %s: %w", payload.MessageID, err)
	}

	w.log.Info("voice task processed",
		"message_id", payload.MessageID,
		"status", string(final.Status),
		"job_id", final.JobID,
	)
	if final.Status == workflow.StatusFailed {
		w.log.Warn("voice task ended in failed state", "message_id", payload.MessageID, "error", final.Error)
	}
	return nil
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
