// Package handler exposes the voice intake HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldvoice_backend/internal/intake/service"
	"fieldvoice_backend/internal/intake/transport"
	"fieldvoice_backend/internal/intake/workflow"
	"fieldvoice_backend/platform/httpkit"
	"fieldvoice_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidMessageID = "invalid message id"
)

// Handler handles voice intake HTTP requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new intake handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ProcessVoice runs the pipeline synchronously.
// POST /v1/voice/process
func (h *Handler) ProcessVoice(c *gin.Context) {
	req, ok := h.bindProcessRequest(c)
	if !ok {
		return
	}

	final, err := h.svc.Process(c.Request.Context(), req)
	if err != nil {
		if httpkit.HandleError(c, err) {
			return
		}
	}

	httpkit.OK(c, stateToResponse(final))
}

// EnqueueVoice defers processing to the background worker.
// POST /v1/voice/enqueue
func (h *Handler) EnqueueVoice(c *gin.Context) {
	req, ok := h.bindProcessRequest(c)
	if !ok {
		return
	}

	if err := h.svc.Enqueue(c.Request.Context(), req); err != nil {
		if httpkit.HandleError(c, err) {
			return
		}
	}

	httpkit.JSON(c, http.StatusAccepted, transport.EnqueueVoiceResponse{
		Queued:    true,
		MessageID: req.MessageID,
	})
}

// Status reports the persisted state of one message.
// GET /v1/voice/status/:message_id
func (h *Handler) Status(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("message_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidMessageID, nil)
		return
	}

	msg, err := h.svc.Status(c.Request.Context(), messageID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.StatusResponse{
		MessageID:        msg.ID,
		Status:           msg.Status,
		Transcription:    msg.Transcription,
		Extraction:       msg.Extraction,
		Confidence:       msg.Confidence,
		DetectedLanguage: msg.DetectedLanguage,
	})
}

// Retry reruns a previously received message.
// POST /v1/voice/retry/:message_id
func (h *Handler) Retry(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("message_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidMessageID, nil)
		return
	}

	final, err := h.svc.Retry(c.Request.Context(), messageID)
	if err != nil {
		if httpkit.HandleError(c, err) {
			return
		}
	}

	httpkit.OK(c, stateToResponse(final))
}

func (h *Handler) bindProcessRequest(c *gin.Context) (service.ProcessRequest, bool) {
	var req transport.ProcessVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return service.ProcessRequest{}, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return service.ProcessRequest{}, false
	}

	return service.ProcessRequest{
		MessageID:           req.MessageID,
		AudioURL:            req.AudioURL,
		CustomerPhone:       req.CustomerPhone,
		OrganizationID:      req.OrganizationID,
		ConversationHistory: req.History(),
		Permissions:         req.Perms(),
	}, true
}

func stateToResponse(final workflow.State) transport.ProcessVoiceResponse {
	resp := transport.ProcessVoiceResponse{
		Success:       final.Status != workflow.StatusFailed,
		Status:        string(final.Status),
		MessageID:     final.MessageID,
		Transcription: final.Transcription,
		Extraction:    final.Extraction,
		JobID:         final.JobID,
		Error:         final.Error,
	}
	if final.Extraction != nil {
		confidence := final.Confidence
		resp.Confidence = &confidence
	}
	return resp
}
