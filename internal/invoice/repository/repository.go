// Package repository persists generated invoice drafts.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldvoice_backend/internal/invoice/generator"
	"fieldvoice_backend/platform/apperr"
)

const draftNotFoundMessage = "invoice draft not found"

// Repo stores invoice drafts in Postgres. Line items, the extraction, and
// review notes are kept as jsonb documents; the totals are duplicated into
// columns for querying.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new invoice draft repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// SaveDraft inserts a generated draft.
func (r *Repo) SaveDraft(ctx context.Context, draft generator.InvoiceDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal invoice draft: %w", err)
	}

	query := `
		INSERT INTO invoice_drafts (id, organization_id, job_id, subtotal, tax_amount, total,
			requires_review, overall_match_confidence, draft, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := r.pool.Exec(ctx, query,
		draft.ID,
		draft.OrganizationID,
		draft.JobID,
		draft.Subtotal,
		draft.TaxAmount,
		draft.Total,
		draft.RequiresReview,
		draft.OverallMatchConfidence,
		payload,
		draft.GeneratedAt,
	); err != nil {
		return fmt.Errorf("save invoice draft: %w", err)
	}
	return nil
}

// GetDraft fetches one draft by id.
func (r *Repo) GetDraft(ctx context.Context, id uuid.UUID) (generator.InvoiceDraft, error) {
	query := `SELECT draft FROM invoice_drafts WHERE id = $1`

	var payload []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return generator.InvoiceDraft{}, apperr.NotFound(draftNotFoundMessage)
		}
		return generator.InvoiceDraft{}, fmt.Errorf("get invoice draft: %w", err)
	}

	var draft generator.InvoiceDraft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return generator.InvoiceDraft{}, fmt.Errorf("unmarshal invoice draft: %w", err)
	}
	return draft, nil
}

// ListDraftsForJob returns the drafts generated for one job, newest first.
func (r *Repo) ListDraftsForJob(ctx context.Context, organizationID uuid.UUID, jobID string) ([]generator.InvoiceDraft, error) {
	query := `
		SELECT draft FROM invoice_drafts
		WHERE organization_id = $1 AND job_id = $2
		ORDER BY generated_at DESC`

	rows, err := r.pool.Query(ctx, query, organizationID, jobID)
	if err != nil {
		return nil, fmt.Errorf("list invoice drafts: %w", err)
	}
	defer rows.Close()

	var drafts []generator.InvoiceDraft
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan invoice draft: %w", err)
		}
		var draft generator.InvoiceDraft
		if err := json.Unmarshal(payload, &draft); err != nil {
			return nil, fmt.Errorf("unmarshal invoice draft: %w", err)
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}
