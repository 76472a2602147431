// Package workflow implements the voice intake pipeline: a state graph that
// takes a customer voice note from audio to one of three terminal outcomes.
package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Status is the pipeline-internal lifecycle of one run.
type Status string

const (
	StatusTranscribing Status = "transcribing"
	StatusTranslating  Status = "translating"
	StatusExtracting   Status = "extracting"
	StatusRouting      Status = "routing"
	StatusConfirming   Status = "confirming"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusHumanReview  Status = "human_review"
)

// Persisted message statuses written through the data store. These are the
// stable strings other services read; they are distinct from Status.
const (
	PersistedTranscribed          = "transcribed"
	PersistedExtracted            = "extracted"
	PersistedAwaitingConfirmation = "awaiting_confirmation"
	PersistedJobCreated           = "job_created"
	PersistedQueuedForReview      = "queued_for_review"
	PersistedProcessingFailed     = "processing_failed"
)

// Permission keys consulted by the pipeline. Only PermTranslateMessages is
// enforced today; the rest are accepted at the boundary and reserved.
const (
	PermSuggestResponses      = "suggestResponses"
	PermTranslateMessages     = "translateMessages"
	PermSuggestActions        = "suggestActions"
	PermAccessDatabase        = "accessDatabase"
	PermAccessSchedule        = "accessSchedule"
	PermAutoAssignTechnicians = "autoAssignTechnicians"

	// PermAutoApproveSmallAdjustments must be granted explicitly.
	PermAutoApproveSmallAdjustments = "autoApproveSmallPriceAdjustments"

	// PermAutoApproveThresholdPct carries a number on the wire, not a
	// flag; the boundary accepts it but it never reaches this map.
	PermAutoApproveThresholdPct = "autoApproveThresholdPercent"
)

// permDefaultOff lists keys that are disabled unless explicitly granted.
var permDefaultOff = map[string]bool{
	PermAutoApproveSmallAdjustments: true,
}

// Permissions is the per-run permission set. Missing keys default to
// enabled, except those in permDefaultOff.
type Permissions map[string]bool

// Enabled reports whether the permission is on.
func (p Permissions) Enabled(key string) bool {
	if v, ok := p[key]; ok {
		return v
	}
	return !permDefaultOff[key]
}

// ConversationMessage is one prior turn of the customer conversation, passed
// through as extraction context.
type ConversationMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Type      string     `json:"type,omitempty"`
}

// JobExtraction is the structured result of parsing a customer request.
// Empty string means the attribute was not extracted.
type JobExtraction struct {
	Title              string `json:"title,omitempty"`
	Description        string `json:"description,omitempty"`
	ServiceType        string `json:"service_type,omitempty"`
	Address            string `json:"address,omitempty"`
	City               string `json:"city,omitempty"`
	Province           string `json:"province,omitempty"`
	PreferredDate      string `json:"preferred_date,omitempty"`
	PreferredTime      string `json:"preferred_time,omitempty"`
	Urgency            string `json:"urgency,omitempty"`
	CustomerName       string `json:"customer_name,omitempty"`
	ApplianceBrand     string `json:"appliance_brand,omitempty"`
	ApplianceModel     string `json:"appliance_model,omitempty"`
	ProblemDescription string `json:"problem_description,omitempty"`

	FieldConfidences  map[string]float64 `json:"field_confidences,omitempty"`
	OverallConfidence float64            `json:"overall_confidence"`
}

// State is the record threaded through the intake graph. Nodes receive it by
// value and return a merged copy.
type State struct {
	// Inputs
	MessageID           uuid.UUID
	AudioURL            string
	CustomerPhone       string
	OrganizationID      uuid.UUID
	ConversationHistory []ConversationMessage

	// Policy inputs
	BusinessLanguages []string
	Permissions       Permissions

	Status Status

	// Derived
	Transcription           string
	DetectedLanguage        string
	DetectedLanguageName    string
	LanguageConfidence      float64
	OriginalTranscription   string
	TranslatedTranscription string
	Extraction              *JobExtraction
	Confidence              float64
	JobID                   string
	Error                   string
	ConfirmationSent        bool
	ConfirmationMessageID   string
}
