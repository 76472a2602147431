package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fieldvoice_backend/internal/catalog/matcher"
)

// Repo implements the catalog repository over Postgres. Prices are stored in
// cents and surfaced as two-place decimals.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ListPriceItems returns the organization's price list ordered by creation.
func (r *Repo) ListPriceItems(ctx context.Context, organizationID uuid.UUID) ([]matcher.PriceItem, error) {
	query := `
		SELECT id, name, description, price_cents, unit, type
		FROM price_items
		WHERE organization_id = $1
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list price items: %w", err)
	}
	defer rows.Close()

	var items []matcher.PriceItem
	for rows.Next() {
		var item matcher.PriceItem
		var priceCents int64
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &priceCents, &item.Unit, &item.Type); err != nil {
			return nil, fmt.Errorf("scan price item: %w", err)
		}
		item.Price = decimal.NewFromInt(priceCents).Shift(-2)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price items: %w", err)
	}

	return items, nil
}
