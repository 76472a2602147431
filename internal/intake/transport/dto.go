// Package transport defines the intake HTTP request/response shapes.
package transport

import (
	"github.com/google/uuid"

	"fieldvoice_backend/internal/intake/workflow"
)

// ConversationTurn mirrors workflow.ConversationMessage on the wire.
type ConversationTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
	Type    string `json:"type,omitempty"`
}

// ProcessVoiceRequest starts one pipeline run.
type ProcessVoiceRequest struct {
	MessageID           uuid.UUID          `json:"message_id" validate:"required"`
	AudioURL            string             `json:"audio_url" validate:"required,url"`
	CustomerPhone       string             `json:"customer_phone" validate:"required"`
	OrganizationID      uuid.UUID          `json:"organization_id" validate:"required"`
	ConversationHistory []ConversationTurn `json:"conversation_history,omitempty" validate:"dive"`

	// Permissions mixes boolean flags with numeric tuning values (the
	// auto-approve threshold), so the values stay untyped on the wire.
	Permissions map[string]any `json:"permissions,omitempty"`
}

// ProcessVoiceResponse is the terminal pipeline state.
type ProcessVoiceResponse struct {
	Success       bool                    `json:"success"`
	Status        string                  `json:"status"`
	MessageID     uuid.UUID               `json:"message_id"`
	Transcription string                  `json:"transcription,omitempty"`
	Extraction    *workflow.JobExtraction `json:"extraction,omitempty"`
	Confidence    *float64                `json:"confidence,omitempty"`
	JobID         string                  `json:"job_id,omitempty"`
	Error         string                  `json:"error,omitempty"`
}

// EnqueueVoiceResponse acknowledges an async submission.
type EnqueueVoiceResponse struct {
	Queued    bool      `json:"queued"`
	MessageID uuid.UUID `json:"message_id"`
}

// StatusResponse is the persisted view of a message.
type StatusResponse struct {
	MessageID        uuid.UUID               `json:"message_id"`
	Status           *string                 `json:"status"`
	Transcription    *string                 `json:"transcription,omitempty"`
	Extraction       *workflow.JobExtraction `json:"extraction,omitempty"`
	Confidence       *float64                `json:"confidence,omitempty"`
	DetectedLanguage *string                 `json:"detected_language,omitempty"`
}

// Perms extracts the boolean permission flags. Non-boolean values are
// accepted on the wire but carry no flag semantics.
func (r ProcessVoiceRequest) Perms() workflow.Permissions {
	if len(r.Permissions) == 0 {
		return nil
	}
	perms := make(workflow.Permissions, len(r.Permissions))
	for key, value := range r.Permissions {
		if flag, ok := value.(bool); ok {
			perms[key] = flag
		}
	}
	return perms
}

// History converts wire turns into workflow turns.
func (r ProcessVoiceRequest) History() []workflow.ConversationMessage {
	if len(r.ConversationHistory) == 0 {
		return nil
	}
	history := make([]workflow.ConversationMessage, 0, len(r.ConversationHistory))
	for _, turn := range r.ConversationHistory {
		history = append(history, workflow.ConversationMessage{
			Role:    turn.Role,
			Content: turn.Content,
			Type:    turn.Type,
		})
	}
	return history
}
