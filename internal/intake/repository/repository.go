// Package repository persists voice messages, jobs, and the review queue.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldvoice_backend/internal/intake/workflow"
	"fieldvoice_backend/platform/apperr"
)

const messageNotFoundMessage = "voice message not found"

// VoiceMessage is the persisted view of one inbound voice note.
type VoiceMessage struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	CustomerPhone    string
	AudioURL         string
	Transcription    *string
	Extraction       *workflow.JobExtraction
	Confidence       *float64
	Status           *string
	DetectedLanguage *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Repo implements the intake data store over Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new intake repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo satisfies the pipeline's data-store contract.
var _ workflow.DataStore = (*Repo)(nil)

// CreateMessage records an inbound voice note before processing starts.
func (r *Repo) CreateMessage(ctx context.Context, id, organizationID uuid.UUID, customerPhone, audioURL string) error {
	query := `
		INSERT INTO voice_messages (id, organization_id, customer_phone, audio_url, status)
		VALUES ($1, $2, $3, $4, 'received')
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, id, organizationID, customerPhone, audioURL); err != nil {
		return fmt.Errorf("create voice message: %w", err)
	}
	return nil
}

// GetMessage fetches one voice message by id.
func (r *Repo) GetMessage(ctx context.Context, id uuid.UUID) (VoiceMessage, error) {
	query := `
		SELECT id, organization_id, customer_phone, audio_url, transcription,
			extraction, confidence, status, detected_language, created_at, updated_at
		FROM voice_messages
		WHERE id = $1`

	var msg VoiceMessage
	var extractionJSON []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.OrganizationID, &msg.CustomerPhone, &msg.AudioURL, &msg.Transcription,
		&extractionJSON, &msg.Confidence, &msg.Status, &msg.DetectedLanguage, &msg.CreatedAt, &msg.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VoiceMessage{}, apperr.NotFound(messageNotFoundMessage)
		}
		return VoiceMessage{}, fmt.Errorf("get voice message: %w", err)
	}

	if len(extractionJSON) > 0 {
		var extraction workflow.JobExtraction
		if err := json.Unmarshal(extractionJSON, &extraction); err == nil {
			msg.Extraction = &extraction
		}
	}

	return msg, nil
}

// UpdateMessage applies a partial update to the persisted message.
func (r *Repo) UpdateMessage(ctx context.Context, messageID uuid.UUID, update workflow.MessageUpdate) error {
	sets := []string{"updated_at = now()"}
	args := []any{messageID}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Transcription != nil {
		addSet("transcription", *update.Transcription)
	}
	if update.Extraction != nil {
		payload, err := json.Marshal(update.Extraction)
		if err != nil {
			return fmt.Errorf("marshal extraction: %w", err)
		}
		addSet("extraction", payload)
	}
	if update.Confidence != nil {
		addSet("confidence", *update.Confidence)
	}
	if update.Status != nil {
		addSet("status", *update.Status)
	}
	if update.DetectedLanguage != nil {
		addSet("detected_language", *update.DetectedLanguage)
	}
	if update.OriginalContent != nil {
		addSet("original_content", *update.OriginalContent)
	}
	if update.TranslatedContent != nil {
		addSet("translated_content", *update.TranslatedContent)
	}

	query := fmt.Sprintf("UPDATE voice_messages SET %s WHERE id = $1", strings.Join(sets, ", "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update voice message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(messageNotFoundMessage)
	}
	return nil
}

// CreateJob inserts a job derived from an extraction and returns its id.
func (r *Repo) CreateJob(ctx context.Context, params workflow.CreateJobParams) (string, error) {
	extraction, err := json.Marshal(params.Extraction)
	if err != nil {
		return "", fmt.Errorf("marshal extraction: %w", err)
	}

	query := `
		INSERT INTO jobs (organization_id, customer_phone, title, description, service_type,
			address, city, province, urgency, extraction, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, query,
		params.OrganizationID,
		params.CustomerPhone,
		params.Extraction.Title,
		params.Extraction.Description,
		params.Extraction.ServiceType,
		params.Extraction.Address,
		params.Extraction.City,
		params.Extraction.Province,
		params.Extraction.Urgency,
		extraction,
		params.Source,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	return id.String(), nil
}

// EnqueueReview places a message on the operator review queue.
func (r *Repo) EnqueueReview(ctx context.Context, entry workflow.ReviewEntry) error {
	var extraction []byte
	if entry.Extraction != nil {
		payload, err := json.Marshal(entry.Extraction)
		if err != nil {
			return fmt.Errorf("marshal extraction: %w", err)
		}
		extraction = payload
	}

	query := `
		INSERT INTO review_queue (organization_id, message_id, transcription, extraction, confidence, customer_phone)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.pool.Exec(ctx, query,
		entry.OrganizationID, entry.MessageID, entry.Transcription, extraction, entry.Confidence, entry.CustomerPhone,
	); err != nil {
		return fmt.Errorf("enqueue review: %w", err)
	}
	return nil
}
