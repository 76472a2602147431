// Package intake provides the voice intake bounded context module.
package intake

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldvoice_backend/internal/events"
	apphttp "fieldvoice_backend/internal/http"
	"fieldvoice_backend/internal/intake/handler"
	"fieldvoice_backend/internal/intake/repository"
	"fieldvoice_backend/internal/intake/service"
	"fieldvoice_backend/internal/intake/workflow"
	"fieldvoice_backend/internal/translation"
	"fieldvoice_backend/internal/whatsapp"
	"fieldvoice_backend/platform/ai/completion"
	"fieldvoice_backend/platform/ai/whisper"
	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/logger"
	"fieldvoice_backend/platform/validator"
)

// Module is the voice intake bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the intake pipeline, repository, and HTTP handler.
func NewModule(
	cfg *config.Config,
	pool *pgxpool.Pool,
	llm *completion.Client,
	bus events.Bus,
	enqueuer service.Enqueuer,
	val *validator.Validator,
	log *logger.Logger,
) (*Module, error) {
	stt, err := whisper.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}

	repo := repository.New(pool)
	translator := translation.NewService(llm, cfg.GetBusinessLanguages(), log)
	messenger := whatsapp.NewClient(cfg, log)

	pipeline, err := workflow.NewPipeline(
		cfg,
		newFetchingTranscriber(stt, cfg.GetWhatsAppKey()),
		translator,
		llm,
		messenger,
		repo,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}

	svc := service.New(pipeline, repo, bus, enqueuer, cfg.GetDefaultAreaCode(), cfg.GetBusinessLanguages(), log)
	svc.RegisterHandlers(bus)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// Service exposes the intake service to the worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the voice intake routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/voice")
	group.POST("/process", m.handler.ProcessVoice)
	group.POST("/enqueue", m.handler.EnqueueVoice)
	group.GET("/status/:message_id", m.handler.Status)
	group.POST("/retry/:message_id", m.handler.Retry)
}

// Compile-time check that Module implements the HTTP module interface.
var _ apphttp.Module = (*Module)(nil)
