// Package invoice provides the invoice drafting bounded context module.
package invoice

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "fieldvoice_backend/internal/http"
	"fieldvoice_backend/internal/invoice/generator"
	"fieldvoice_backend/internal/invoice/handler"
	"fieldvoice_backend/internal/invoice/repository"
	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/logger"
	"fieldvoice_backend/platform/validator"
)

// Module is the invoice drafting bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the generator against the shared completion client and the
// catalog repository.
func NewModule(
	cfg config.InvoiceConfig,
	pool *pgxpool.Pool,
	llm generator.Completer,
	catalog generator.CatalogReader,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	gen := generator.New(cfg, llm, catalog, log)
	repo := repository.New(pool)

	return &Module{
		handler: handler.New(gen, repo, val, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "invoice"
}

// RegisterRoutes mounts the invoice draft routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/invoices")
	group.POST("/draft", m.handler.CreateDraft)
	group.GET("/draft/:draft_id", m.handler.GetDraft)
}

// Compile-time check that Module implements the HTTP module interface.
var _ apphttp.Module = (*Module)(nil)
