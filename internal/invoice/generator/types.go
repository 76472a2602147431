// Package generator turns technician voice reports into draft invoices.
package generator

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExtractedPart is a part or material mentioned in the voice report.
type ExtractedPart struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	SourceText string  `json:"source_text"`
	Confidence float64 `json:"confidence"`
}

// ExtractedService is a service or labor task mentioned in the voice report.
type ExtractedService struct {
	Description     string  `json:"description"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	ServiceType     string  `json:"service_type,omitempty"`
	SourceText      string  `json:"source_text"`
	Confidence      float64 `json:"confidence"`
}

// TechnicianReport is the structured extraction of a job completion report.
type TechnicianReport struct {
	JobSummary        string             `json:"job_summary,omitempty"`
	WorkPerformed     string             `json:"work_performed,omitempty"`
	PartsUsed         []ExtractedPart    `json:"parts_used,omitempty"`
	ServicesPerformed []ExtractedService `json:"services_performed,omitempty"`
	ArrivalTime       string             `json:"arrival_time,omitempty"`
	DepartureTime     string             `json:"departure_time,omitempty"`
	TotalLaborHours   *float64           `json:"total_labor_hours,omitempty"`
	EquipmentStatus   string             `json:"equipment_status,omitempty"`
	Recommendations   string             `json:"recommendations,omitempty"`
	FollowUpRequired  bool               `json:"follow_up_required"`
	FollowUpNotes     string             `json:"follow_up_notes,omitempty"`
	PhotosMentioned   bool               `json:"photos_mentioned"`
	SignatureObtained bool               `json:"signature_obtained"`
	OverallConfidence float64            `json:"overall_confidence"`
}

// AlternativeMatch is a runner-up catalog candidate offered for user selection.
type AlternativeMatch struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Unit  string          `json:"unit"`
	Score float64         `json:"score"`
}

// DraftLineItem is one suggested invoice line, priced when a catalog match
// was confident enough and left for manual pricing otherwise.
type DraftLineItem struct {
	Description          string             `json:"description"`
	Quantity             float64            `json:"quantity"`
	Unit                 string             `json:"unit"`
	UnitPrice            *decimal.Decimal   `json:"unit_price,omitempty"`
	Total                *decimal.Decimal   `json:"total,omitempty"`
	SourceType           string             `json:"source_type"`
	SourceText           string             `json:"source_text,omitempty"`
	MatchedPriceItemID   *uuid.UUID         `json:"matched_price_item_id,omitempty"`
	MatchedPriceItemName string             `json:"matched_price_item_name,omitempty"`
	MatchConfidence      float64            `json:"match_confidence"`
	AlternativeMatches   []AlternativeMatch `json:"alternative_matches,omitempty"`
	NeedsReview          bool               `json:"needs_review"`
	ReviewReason         string             `json:"review_reason,omitempty"`
}

// Source types for draft line items.
const (
	SourcePart    = "part"
	SourceService = "service"
)

// InvoiceDraft is the complete generated suggestion, ready for technician
// review before real line items are created.
type InvoiceDraft struct {
	ID                     uuid.UUID       `json:"id"`
	JobID                  string          `json:"job_id"`
	OrganizationID         uuid.UUID       `json:"organization_id"`
	LineItems              []DraftLineItem `json:"line_items"`
	Subtotal               decimal.Decimal `json:"subtotal"`
	TaxAmount              decimal.Decimal `json:"tax_amount"`
	Total                  decimal.Decimal `json:"total"`
	Extraction             TechnicianReport `json:"extraction"`
	Transcription          string          `json:"transcription"`
	ProcessingDurationMS   int64           `json:"processing_duration_ms"`
	GeneratedAt            time.Time       `json:"generated_at"`
	RequiresReview         bool            `json:"requires_review"`
	ReviewNotes            []string        `json:"review_notes,omitempty"`
	OverallMatchConfidence float64         `json:"overall_match_confidence"`
}
