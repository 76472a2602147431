package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fieldvoice_backend/internal/catalog/matcher"
	"fieldvoice_backend/platform/ai/completion"
	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/logger"
)

// Completer is the chat-completion collaborator.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// CatalogReader lists an organization's price items.
type CatalogReader interface {
	ListPriceItems(ctx context.Context, organizationID uuid.UUID) ([]matcher.PriceItem, error)
}

// Request carries the inputs for one draft generation.
type Request struct {
	Transcription  string
	OrganizationID uuid.UUID
	JobID          string
	ServiceType    string
	EquipmentInfo  string
}

// Generator produces invoice drafts from technician voice reports. It is
// stateless; every call is independent.
type Generator struct {
	llm     Completer
	catalog CatalogReader

	highThreshold   float64
	mediumThreshold float64
	taxRate         decimal.Decimal
	llmTimeout      time.Duration
	catalogTimeout  time.Duration

	log *logger.Logger
}

// New builds a generator from the invoice configuration.
func New(cfg config.InvoiceConfig, llm Completer, catalog CatalogReader, log *logger.Logger) *Generator {
	return &Generator{
		llm:             llm,
		catalog:         catalog,
		highThreshold:   cfg.GetInvoiceHighThreshold(),
		mediumThreshold: cfg.GetInvoiceMediumThreshold(),
		taxRate:         decimal.NewFromFloat(cfg.GetTaxRate()),
		llmTimeout:      cfg.GetLLMTimeout(),
		catalogTimeout:  cfg.GetCatalogTimeout(),
		log:             log,
	}
}

// Generate extracts parts and services from the transcription, matches them
// against the organization's catalog, and assembles a priced draft. Extraction
// and catalog failures degrade to an empty report or catalog instead of
// aborting; every affected line then carries a review flag.
func (g *Generator) Generate(ctx context.Context, req Request) (InvoiceDraft, error) {
	start := time.Now()

	report := g.extractReport(ctx, req)
	catalog := g.fetchCatalog(ctx, req.OrganizationID)

	var (
		lineItems   []DraftLineItem
		reviewNotes []string
	)

	for _, part := range report.PartsUsed {
		item, note := g.matchPart(part, catalog)
		lineItems = append(lineItems, item)
		if note != "" {
			reviewNotes = append(reviewNotes, note)
		}
	}

	for _, svc := range report.ServicesPerformed {
		item, note := g.matchService(svc, catalog)
		lineItems = append(lineItems, item)
		if note != "" {
			reviewNotes = append(reviewNotes, note)
		}
	}

	subtotal := decimal.Zero
	requiresReview := false
	pricedCount := 0
	confidenceSum := 0.0
	for _, item := range lineItems {
		if item.Total != nil {
			subtotal = subtotal.Add(*item.Total)
		}
		if item.UnitPrice != nil {
			pricedCount++
			confidenceSum += item.MatchConfidence
		}
		if item.NeedsReview {
			requiresReview = true
		}
	}

	subtotal = subtotal.RoundBank(2)
	taxAmount := subtotal.Mul(g.taxRate).RoundBank(2)
	total := subtotal.Add(taxAmount)

	overallConfidence := 0.0
	if pricedCount > 0 {
		overallConfidence = confidenceSum / float64(pricedCount)
	}

	return InvoiceDraft{
		ID:                     uuid.New(),
		JobID:                  req.JobID,
		OrganizationID:         req.OrganizationID,
		LineItems:              lineItems,
		Subtotal:               subtotal,
		TaxAmount:              taxAmount,
		Total:                  total,
		Extraction:             report,
		Transcription:          req.Transcription,
		ProcessingDurationMS:   time.Since(start).Milliseconds(),
		GeneratedAt:            time.Now(),
		RequiresReview:         requiresReview,
		ReviewNotes:            reviewNotes,
		OverallMatchConfidence: overallConfidence,
	}, nil
}

// extractReport calls the model for structured extraction. Any failure yields
// an empty report with zero confidence.
func (g *Generator) extractReport(ctx context.Context, req Request) TechnicianReport {
	callCtx, cancel := context.WithTimeout(ctx, g.llmTimeout)
	defer cancel()

	raw, err := g.llm.Complete(callCtx, completion.Request{
		System:      extractSystemPrompt,
		User:        buildExtractUserPrompt(req.Transcription, req.ServiceType, req.EquipmentInfo),
		Temperature: 0.1,
		MaxTokens:   2000,
		JSONOutput:  true,
	})
	if err != nil {
		g.log.CollaboratorError("llm", "invoice extraction", err)
		return TechnicianReport{}
	}

	payload, ok := completion.ExtractJSONObject(raw)
	if !ok {
		g.log.Warn("invoice extraction returned no JSON object", "job_id", req.JobID)
		return TechnicianReport{}
	}

	var report TechnicianReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		g.log.Warn("invoice extraction unmarshal failed", "job_id", req.JobID, "error", err)
		return TechnicianReport{}
	}

	for i := range report.PartsUsed {
		if report.PartsUsed[i].Quantity <= 0 {
			report.PartsUsed[i].Quantity = 1
		}
		if report.PartsUsed[i].Unit == "" {
			report.PartsUsed[i].Unit = "unidad"
		}
		if report.PartsUsed[i].Confidence == 0 {
			report.PartsUsed[i].Confidence = 0.8
		}
	}
	for i := range report.ServicesPerformed {
		if report.ServicesPerformed[i].Confidence == 0 {
			report.ServicesPerformed[i].Confidence = 0.8
		}
	}
	if report.OverallConfidence == 0 {
		report.OverallConfidence = 0.8
	}
	return report
}

// fetchCatalog loads the price list. A fetch failure degrades to an empty
// catalog so every extracted item becomes a custom line.
func (g *Generator) fetchCatalog(ctx context.Context, organizationID uuid.UUID) []matcher.PriceItem {
	callCtx, cancel := context.WithTimeout(ctx, g.catalogTimeout)
	defer cancel()

	items, err := g.catalog.ListPriceItems(callCtx, organizationID)
	if err != nil {
		g.log.CollaboratorError("catalog", "list price items", err)
		return nil
	}
	return items
}

func (g *Generator) matchPart(part ExtractedPart, catalog []matcher.PriceItem) (DraftLineItem, string) {
	result := matcher.Match(part.Name, part.Unit, catalog, matcher.TypeFilterPart)

	switch {
	case result.Best != nil && result.Confidence >= g.highThreshold:
		item := pricedLine(result, part.Quantity, part.Unit, SourcePart, part.SourceText)
		return item, ""

	case result.Best != nil && result.Confidence >= g.mediumThreshold:
		item := pricedLine(result, part.Quantity, part.Unit, SourcePart, part.SourceText)
		item.NeedsReview = true
		item.ReviewReason = fmt.Sprintf("Coincidencia media (%d%%): '%s' → '%s'",
			int(result.Confidence*100), part.Name, result.Best.Item.Name)
		return item, fmt.Sprintf("Revisar: '%s' coincide parcialmente con '%s'", part.Name, result.Best.Item.Name)

	default:
		confidence := 0.0
		if result.Best != nil {
			confidence = result.Confidence
		}
		return DraftLineItem{
			Description:        part.Name,
			Quantity:           part.Quantity,
			Unit:               part.Unit,
			SourceType:         SourcePart,
			SourceText:         part.SourceText,
			MatchConfidence:    confidence,
			AlternativeMatches: alternatives(result),
			NeedsReview:        true,
			ReviewReason:       fmt.Sprintf("Parte no encontrada en catálogo: '%s'", part.Name),
		}, fmt.Sprintf("Agregá precio para: '%s'", part.Name)
	}
}

func (g *Generator) matchService(svc ExtractedService, catalog []matcher.PriceItem) (DraftLineItem, string) {
	hours := 1.0
	if svc.DurationMinutes != nil && *svc.DurationMinutes > 0 {
		hours = float64(*svc.DurationMinutes) / 60
	}

	result := matcher.Match(svc.Description, "hora", catalog, matcher.TypeFilterService)

	if result.Best != nil && result.Confidence >= g.mediumThreshold {
		item := pricedLine(result, hours, "hora", SourceService, svc.SourceText)
		if result.Confidence < g.highThreshold {
			item.NeedsReview = true
			item.ReviewReason = fmt.Sprintf("Servicio: '%s'", svc.Description)
		}
		return item, ""
	}

	return DraftLineItem{
		Description:        svc.Description,
		Quantity:           hours,
		Unit:               "hora",
		SourceType:         SourceService,
		SourceText:         svc.SourceText,
		AlternativeMatches: alternatives(result),
		NeedsReview:        true,
		ReviewReason:       fmt.Sprintf("Servicio no encontrado: '%s'", svc.Description),
	}, fmt.Sprintf("Agregá precio para servicio: '%s'", svc.Description)
}

func pricedLine(result matcher.Result, quantity float64, fallbackUnit, sourceType, sourceText string) DraftLineItem {
	match := result.Best.Item
	unit := match.Unit
	if unit == "" {
		unit = fallbackUnit
	}

	unitPrice := match.Price
	total := unitPrice.Mul(decimal.NewFromFloat(quantity)).RoundBank(2)
	matchedID := match.ID

	return DraftLineItem{
		Description:          match.Name,
		Quantity:             quantity,
		Unit:                 unit,
		UnitPrice:            &unitPrice,
		Total:                &total,
		SourceType:           sourceType,
		SourceText:           sourceText,
		MatchedPriceItemID:   &matchedID,
		MatchedPriceItemName: match.Name,
		MatchConfidence:      result.Confidence,
		AlternativeMatches:   alternatives(result),
	}
}

func alternatives(result matcher.Result) []AlternativeMatch {
	if len(result.Alternatives) == 0 {
		return nil
	}
	alts := make([]AlternativeMatch, 0, len(result.Alternatives))
	for _, alt := range result.Alternatives {
		alts = append(alts, AlternativeMatch{
			ID:    alt.Item.ID,
			Name:  alt.Item.Name,
			Price: alt.Item.Price,
			Unit:  alt.Item.Unit,
			Score: alt.Score,
		})
	}
	return alts
}
