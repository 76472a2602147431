// Package handler exposes the invoice draft HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldvoice_backend/internal/invoice/generator"
	"fieldvoice_backend/internal/invoice/repository"
	"fieldvoice_backend/platform/httpkit"
	"fieldvoice_backend/platform/logger"
	"fieldvoice_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidDraftID   = "invalid draft id"
	msgGenerationFailed = "invoice generation failed"
)

// DraftRequest asks for a draft invoice from a voice report transcription.
type DraftRequest struct {
	Transcription  string    `json:"transcription" validate:"required"`
	OrganizationID uuid.UUID `json:"organization_id" validate:"required"`
	JobID          string    `json:"job_id" validate:"required"`
	ServiceType    string    `json:"service_type,omitempty"`
	EquipmentInfo  string    `json:"equipment_info,omitempty"`
}

// DraftResponse wraps the generated draft with a quick summary for the UI.
type DraftResponse struct {
	Success            bool                    `json:"success"`
	Draft              *generator.InvoiceDraft `json:"draft,omitempty"`
	LineItemCount      int                     `json:"line_item_count"`
	ItemsNeedingReview int                     `json:"items_needing_review"`
	EstimatedTotal     string                  `json:"estimated_total"`
	ProcessingTimeMS   int64                   `json:"processing_time_ms"`
}

// Handler handles invoice draft HTTP requests.
type Handler struct {
	gen  *generator.Generator
	repo *repository.Repo
	val  *validator.Validator
	log  *logger.Logger
}

// New creates a new invoice handler.
func New(gen *generator.Generator, repo *repository.Repo, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{gen: gen, repo: repo, val: val, log: log}
}

// CreateDraft runs the generator, persists the draft, and returns it.
// POST /v1/invoices/draft
func (h *Handler) CreateDraft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	draft, err := h.gen.Generate(c.Request.Context(), generator.Request{
		Transcription:  req.Transcription,
		OrganizationID: req.OrganizationID,
		JobID:          req.JobID,
		ServiceType:    req.ServiceType,
		EquipmentInfo:  req.EquipmentInfo,
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, msgGenerationFailed, nil)
		return
	}

	if err := h.repo.SaveDraft(c.Request.Context(), draft); err != nil {
		h.log.DatabaseError("save invoice draft", err)
	}

	httpkit.OK(c, draftToResponse(draft))
}

// GetDraft fetches a previously generated draft.
// GET /v1/invoices/draft/:draft_id
func (h *Handler) GetDraft(c *gin.Context) {
	draftID, err := uuid.Parse(c.Param("draft_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDraftID, nil)
		return
	}

	draft, err := h.repo.GetDraft(c.Request.Context(), draftID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, draftToResponse(draft))
}

func draftToResponse(draft generator.InvoiceDraft) DraftResponse {
	needingReview := 0
	for _, item := range draft.LineItems {
		if item.NeedsReview {
			needingReview++
		}
	}

	return DraftResponse{
		Success:            true,
		Draft:              &draft,
		LineItemCount:      len(draft.LineItems),
		ItemsNeedingReview: needingReview,
		EstimatedTotal:     draft.Total.StringFixed(2),
		ProcessingTimeMS:   draft.ProcessingDurationMS,
	}
}
