// Package catalog provides the price-catalog bounded context module.
package catalog

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldvoice_backend/internal/catalog/handler"
	"fieldvoice_backend/internal/catalog/repository"
	apphttp "fieldvoice_backend/internal/http"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	return &Module{
		handler: handler.New(repo),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Repository exposes catalog reads to the invoice module.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the catalog routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/catalog")
	group.GET("/items", m.handler.ListItems)
}

// Compile-time check that Module implements the HTTP module interface.
var _ apphttp.Module = (*Module)(nil)
