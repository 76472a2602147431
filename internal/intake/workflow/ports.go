package workflow

import (
	"context"

	"github.com/google/uuid"

	"fieldvoice_backend/internal/translation"
	"fieldvoice_backend/internal/whatsapp"
	"fieldvoice_backend/platform/ai/completion"
)

// Transcriber turns the audio at a locator into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, languageHint string) (string, error)
}

// Translator detects the transcript language and translates when needed.
type Translator interface {
	DetectAndTranslate(ctx context.Context, text string) (translation.Result, error)
}

// Completer is the chat-completion surface used for extraction.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// Messenger sends outbound messages to the customer and returns the
// gateway message id. SendButtons falls back to plain text on gateways
// without interactive support.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendButtons(ctx context.Context, to, body string, buttons []whatsapp.Button) (string, error)
}

// JobSourceVoiceAuto marks jobs created autonomously from a voice note.
const JobSourceVoiceAuto = "voice_ai_auto"

// CreateJobParams is the data-store create-job contract.
type CreateJobParams struct {
	OrganizationID uuid.UUID
	CustomerPhone  string
	Extraction     JobExtraction
	Source         string
}

// ReviewEntry is one item placed on the operator review queue.
type ReviewEntry struct {
	OrganizationID uuid.UUID
	MessageID      uuid.UUID
	Transcription  string
	Extraction     *JobExtraction
	Confidence     float64
	CustomerPhone  string
}

// MessageUpdate is a partial update of the persisted voice message. Nil
// fields are left untouched.
type MessageUpdate struct {
	Transcription     *string
	Extraction        *JobExtraction
	Confidence        *float64
	Status            *string
	DetectedLanguage  *string
	OriginalContent   *string
	TranslatedContent *string
}

// DataStore is the persistence contract the pipeline writes through.
type DataStore interface {
	CreateJob(ctx context.Context, params CreateJobParams) (string, error)
	EnqueueReview(ctx context.Context, entry ReviewEntry) error
	UpdateMessage(ctx context.Context, messageID uuid.UUID, update MessageUpdate) error
}
