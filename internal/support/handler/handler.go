// Package handler exposes the support chat HTTP endpoint.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldvoice_backend/internal/support/router"
	"fieldvoice_backend/platform/httpkit"
	"fieldvoice_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgChatFailed       = "support chat failed"
)

// ChatMessage is one wire chat turn.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest carries one support conversation turn.
type ChatRequest struct {
	Messages       []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	UserID         string        `json:"user_id,omitempty"`
	OrganizationID string        `json:"organization_id,omitempty"`
	SessionID      string        `json:"session_id,omitempty"`
}

// Handler handles support chat HTTP requests.
type Handler struct {
	router *router.Router
	val    *validator.Validator
}

// New creates a new support handler.
func New(r *router.Router, val *validator.Validator) *Handler {
	return &Handler{router: r, val: val}
}

// Chat runs one turn through the support graph.
// POST /v1/support/chat
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	messages := make([]router.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, router.Message{Role: msg.Role, Content: msg.Content})
	}

	result, err := h.router.Run(c.Request.Context(), router.State{
		Messages:       messages,
		UserID:         req.UserID,
		OrganizationID: req.OrganizationID,
		SessionID:      sessionID,
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, msgChatFailed, nil)
		return
	}

	httpkit.OK(c, result)
}
