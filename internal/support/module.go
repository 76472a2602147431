// Package support provides the support chat bounded context module.
package support

import (
	"fmt"

	apphttp "fieldvoice_backend/internal/http"
	"fieldvoice_backend/internal/support/handler"
	"fieldvoice_backend/internal/support/knowledge"
	"fieldvoice_backend/internal/support/router"
	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/logger"
	"fieldvoice_backend/platform/validator"
)

// Module is the support bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule loads the knowledge base and compiles the support graph.
func NewModule(
	cfg config.SupportConfig,
	llm router.Completer,
	filer router.TicketFiler,
	val *validator.Validator,
	log *logger.Logger,
) (*Module, error) {
	kb, err := knowledge.Load()
	if err != nil {
		return nil, fmt.Errorf("support: %w", err)
	}

	r, err := router.New(cfg, llm, filer, kb, log)
	if err != nil {
		return nil, fmt.Errorf("support: %w", err)
	}

	return &Module{handler: handler.New(r, val)}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "support"
}

// RegisterRoutes mounts the support chat route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/support")
	group.POST("/chat", m.handler.Chat)
}

// Compile-time check that Module implements the HTTP module interface.
var _ apphttp.Module = (*Module)(nil)
