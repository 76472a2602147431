package repository

import (
	"context"

	"github.com/google/uuid"

	"fieldvoice_backend/internal/catalog/matcher"
)

// Repository is the catalog data access contract.
type Repository interface {
	// ListPriceItems returns the organization's full price list, in stable
	// insertion order.
	ListPriceItems(ctx context.Context, organizationID uuid.UUID) ([]matcher.PriceItem, error)
}
