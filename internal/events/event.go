// Package events provides domain event definitions for decoupled
// communication between modules. Infrastructure (Bus, Handler) is in
// platform/events.
package events

import (
	"github.com/google/uuid"

	"fieldvoice_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// VoiceMessageReceived is published when the messaging gateway hands over a
// new voice note. The intake module subscribes and enqueues the pipeline run.
type VoiceMessageReceived struct {
	BaseEvent
	MessageID      uuid.UUID `json:"messageId"`
	AudioURL       string    `json:"audioUrl"`
	CustomerPhone  string    `json:"customerPhone"`
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (e VoiceMessageReceived) EventName() string { return "voice.message.received" }

// VoiceIntakeCompleted is published when a pipeline run reaches a terminal
// outcome, whatever that outcome is.
type VoiceIntakeCompleted struct {
	BaseEvent
	MessageID uuid.UUID `json:"messageId"`
	Status    string    `json:"status"`
	JobID     string    `json:"jobId,omitempty"`
}

func (e VoiceIntakeCompleted) EventName() string { return "voice.intake.completed" }

// VoiceIntakeEscalated is published when a message lands in the review queue
// so operators can be notified out of band.
type VoiceIntakeEscalated struct {
	BaseEvent
	MessageID     uuid.UUID `json:"messageId"`
	CustomerPhone string    `json:"customerPhone"`
	Reason        string    `json:"reason"`
}

func (e VoiceIntakeEscalated) EventName() string { return "voice.intake.escalated" }
