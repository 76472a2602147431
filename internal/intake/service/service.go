// Package service orchestrates voice intake: it owns message persistence
// around pipeline runs and the sync/async entry points.
package service

import (
	"context"

	"github.com/google/uuid"

	"fieldvoice_backend/internal/events"
	"fieldvoice_backend/internal/intake/repository"
	"fieldvoice_backend/internal/intake/workflow"
	"fieldvoice_backend/platform/logger"
	"fieldvoice_backend/platform/phone"
)

// Enqueuer hands a voice message to the background queue.
type Enqueuer interface {
	EnqueueVoiceProcess(ctx context.Context, messageID uuid.UUID, audioURL, customerPhone string, organizationID uuid.UUID) error
}

// ProcessRequest is one voice note to run through the pipeline.
type ProcessRequest struct {
	MessageID           uuid.UUID
	AudioURL            string
	CustomerPhone       string
	OrganizationID      uuid.UUID
	ConversationHistory []workflow.ConversationMessage
	Permissions         workflow.Permissions
}

// Service drives the intake pipeline.
type Service struct {
	pipeline          *workflow.Pipeline
	repo              *repository.Repo
	bus               events.Bus
	enqueuer          Enqueuer
	defaultAreaCode   string
	businessLanguages []string
	log               *logger.Logger
}

// New creates the intake service. enqueuer may be nil when no queue is
// configured; Enqueue then degrades to synchronous processing.
func New(
	pipeline *workflow.Pipeline,
	repo *repository.Repo,
	bus events.Bus,
	enqueuer Enqueuer,
	defaultAreaCode string,
	businessLanguages []string,
	log *logger.Logger,
) *Service {
	return &Service{
		pipeline:          pipeline,
		repo:              repo,
		bus:               bus,
		enqueuer:          enqueuer,
		defaultAreaCode:   defaultAreaCode,
		businessLanguages: businessLanguages,
		log:               log,
	}
}

// Process runs the pipeline synchronously and returns the terminal state.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (workflow.State, error) {
	customerPhone := s.canonicalPhone(req.CustomerPhone)

	if err := s.repo.CreateMessage(ctx, req.MessageID, req.OrganizationID, customerPhone, req.AudioURL); err != nil {
		return workflow.State{}, err
	}

	state := workflow.State{
		MessageID:           req.MessageID,
		AudioURL:            req.AudioURL,
		CustomerPhone:       customerPhone,
		OrganizationID:      req.OrganizationID,
		ConversationHistory: req.ConversationHistory,
		BusinessLanguages:   s.businessLanguages,
		Permissions:         req.Permissions,
	}

	final, err := s.pipeline.Run(ctx, state)
	if err != nil {
		return final, err
	}

	s.publishOutcome(ctx, final)
	return final, nil
}

// Enqueue registers the message and defers processing to the worker.
func (s *Service) Enqueue(ctx context.Context, req ProcessRequest) error {
	customerPhone := s.canonicalPhone(req.CustomerPhone)

	if err := s.repo.CreateMessage(ctx, req.MessageID, req.OrganizationID, customerPhone, req.AudioURL); err != nil {
		return err
	}

	if s.enqueuer == nil {
		s.log.Warn("no queue configured, processing inline", "message_id", req.MessageID)
		_, err := s.Process(ctx, req)
		return err
	}

	return s.enqueuer.EnqueueVoiceProcess(ctx, req.MessageID, req.AudioURL, customerPhone, req.OrganizationID)
}

// Status returns the persisted view of one message.
func (s *Service) Status(ctx context.Context, messageID uuid.UUID) (repository.VoiceMessage, error) {
	return s.repo.GetMessage(ctx, messageID)
}

// Retry reruns the pipeline for a previously received message.
func (s *Service) Retry(ctx context.Context, messageID uuid.UUID) (workflow.State, error) {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return workflow.State{}, err
	}

	state := workflow.State{
		MessageID:         msg.ID,
		AudioURL:          msg.AudioURL,
		CustomerPhone:     msg.CustomerPhone,
		OrganizationID:    msg.OrganizationID,
		BusinessLanguages: s.businessLanguages,
	}

	final, err := s.pipeline.Run(ctx, state)
	if err != nil {
		return final, err
	}

	s.publishOutcome(ctx, final)
	return final, nil
}

// RegisterHandlers subscribes the service to inbound gateway events.
func (s *Service) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.VoiceMessageReceived{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			received, ok := event.(events.VoiceMessageReceived)
			if !ok {
				return nil
			}
			return s.Enqueue(ctx, ProcessRequest{
				MessageID:      received.MessageID,
				AudioURL:       received.AudioURL,
				CustomerPhone:  received.CustomerPhone,
				OrganizationID: received.OrganizationID,
			})
		},
	))
}

func (s *Service) canonicalPhone(raw string) string {
	if normalized, ok := phone.NormalizeAR(raw, s.defaultAreaCode); ok {
		return normalized
	}
	return phone.NormalizeE164(raw)
}

func (s *Service) publishOutcome(ctx context.Context, final workflow.State) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(ctx, events.VoiceIntakeCompleted{
		BaseEvent: events.NewBaseEvent(),
		MessageID: final.MessageID,
		Status:    string(final.Status),
		JobID:     final.JobID,
	})

	if final.Status == workflow.StatusHumanReview || final.Status == workflow.StatusFailed {
		reason := final.Error
		if reason == "" {
			reason = "low extraction confidence"
		}
		s.bus.Publish(ctx, events.VoiceIntakeEscalated{
			BaseEvent:     events.NewBaseEvent(),
			MessageID:     final.MessageID,
			CustomerPhone: final.CustomerPhone,
			Reason:        reason,
		})
	}
}
