package scheduler

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskVoiceProcess runs the intake pipeline for one queued voice message.
const TaskVoiceProcess = "voice:process"

// VoiceProcessPayload is the JSON body of a voice:process task.
type VoiceProcessPayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	AudioURL       string    `json:"audio_url"`
	CustomerPhone  string    `json:"customer_phone"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// NewVoiceProcessTask builds the asynq task for one voice message.
func NewVoiceProcessTask(payload VoiceProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVoiceProcess, data), nil
}

// ParseVoiceProcessPayload decodes a voice:process task body.
func ParseVoiceProcessPayload(task *asynq.Task) (VoiceProcessPayload, error) {
	var payload VoiceProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return VoiceProcessPayload{}, err
	}
	return payload, nil
}
