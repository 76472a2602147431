package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldvoice_backend/internal/catalog/repository"
	"fieldvoice_backend/platform/httpkit"
)

const msgInvalidOrgID = "invalid organization_id"

// Handler serves catalog read endpoints.
type Handler struct {
	repo repository.Repository
}

// New creates a new catalog handler.
func New(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

type priceItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       string    `json:"price"`
	Unit        string    `json:"unit"`
	Type        string    `json:"type"`
}

// ListItems retrieves the organization's price list.
// GET /v1/catalog/items?organization_id=...
func (h *Handler) ListItems(c *gin.Context) {
	organizationID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOrgID, nil)
		return
	}

	items, err := h.repo.ListPriceItems(c.Request.Context(), organizationID)
	if httpkit.HandleError(c, err) {
		return
	}

	payload := make([]priceItemResponse, 0, len(items))
	for _, item := range items {
		payload = append(payload, priceItemResponse{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price.StringFixed(2),
			Unit:        item.Unit,
			Type:        item.Type,
		})
	}
	httpkit.OK(c, gin.H{"items": payload})
}
