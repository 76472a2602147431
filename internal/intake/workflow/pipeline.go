package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fieldvoice_backend/internal/graph"
	"fieldvoice_backend/internal/whatsapp"
	"fieldvoice_backend/platform/ai/completion"
	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/logger"
)

// Node and branch labels.
const (
	nodeTranscribe    = "transcribe"
	nodeTranslate     = "translate"
	nodeExtract       = "extract"
	nodeAutoCreate    = "auto_create"
	nodeConfirm       = "confirm"
	nodeHumanReview   = "human_review"
	nodeHandleFailure = "handle_failure"

	branchEnd = "end"
)

// confirmButtons are the quick replies attached to the confirmation
// prompt. The gateway falls back to plain text when unsupported.
var confirmButtons = []whatsapp.Button{
	{ID: "confirm_yes", Title: "✅ Sí, crear trabajo"},
	{ID: "confirm_edit", Title: "✏️ Corregir"},
}

// Pipeline is the compiled voice intake graph plus its collaborators. One
// Pipeline serves all runs; it holds no per-run state.
type Pipeline struct {
	stt        Transcriber
	translator Translator
	llm        Completer
	messenger  Messenger
	store      DataStore
	log        *logger.Logger

	autoCreateThreshold float64
	confirmThreshold    float64
	sttTimeout          time.Duration
	llmTimeout          time.Duration
	sendTimeout         time.Duration
	businessLanguages   []string

	graph *graph.Graph[State]
}

// NewPipeline wires the collaborators and compiles the graph.
func NewPipeline(
	cfg config.IntakeConfig,
	stt Transcriber,
	translator Translator,
	llm Completer,
	messenger Messenger,
	store DataStore,
	log *logger.Logger,
) (*Pipeline, error) {
	p := &Pipeline{
		stt:                 stt,
		translator:          translator,
		llm:                 llm,
		messenger:           messenger,
		store:               store,
		log:                 log,
		autoCreateThreshold: cfg.GetAutoCreateThreshold(),
		confirmThreshold:    cfg.GetConfirmThreshold(),
		sttTimeout:          cfg.GetSTTTimeout(),
		llmTimeout:          cfg.GetLLMTimeout(),
		sendTimeout:         cfg.GetSendTimeout(),
		businessLanguages:   cfg.GetBusinessLanguages(),
	}

	compiled, err := graph.NewBuilder[State](nodeTranscribe).
		AddNode(nodeTranscribe, p.transcribeNode).
		AddNode(nodeTranslate, p.translateNode).
		AddNode(nodeExtract, p.extractNode).
		AddNode(nodeAutoCreate, p.autoCreateNode).
		AddNode(nodeConfirm, p.confirmNode).
		AddNode(nodeHumanReview, p.humanReviewNode).
		AddNode(nodeHandleFailure, p.handleFailureNode).
		AddConditionalEdge(nodeTranscribe, func(s State) string {
			if s.Status == StatusFailed {
				return nodeHandleFailure
			}
			return nodeTranslate
		}, map[string]string{
			nodeTranslate:     nodeTranslate,
			nodeHandleFailure: nodeHandleFailure,
		}).
		AddEdge(nodeTranslate, nodeExtract).
		AddConditionalEdge(nodeExtract, func(s State) string {
			if s.Status == StatusFailed {
				return nodeHandleFailure
			}
			return RouteByConfidence(s.Confidence, p.autoCreateThreshold, p.confirmThreshold)
		}, map[string]string{
			nodeAutoCreate:    nodeAutoCreate,
			nodeConfirm:       nodeConfirm,
			nodeHumanReview:   nodeHumanReview,
			nodeHandleFailure: nodeHandleFailure,
		}).
		AddConditionalEdge(nodeAutoCreate, fallbackToReview, map[string]string{
			nodeHumanReview: nodeHumanReview,
			branchEnd:       graph.End,
		}).
		AddConditionalEdge(nodeConfirm, fallbackToReview, map[string]string{
			nodeHumanReview: nodeHumanReview,
			branchEnd:       graph.End,
		}).
		AddEdge(nodeHumanReview, graph.End).
		AddEdge(nodeHandleFailure, graph.End).
		Compile()
	if err != nil {
		return nil, fmt.Errorf("compile intake graph: %w", err)
	}

	p.graph = compiled
	return p, nil
}

// RouteByConfidence maps the overall extraction confidence to a branch.
// Boundaries are inclusive toward the higher-confidence branch.
func RouteByConfidence(confidence, autoCreateThreshold, confirmThreshold float64) string {
	switch {
	case confidence >= autoCreateThreshold:
		return nodeAutoCreate
	case confidence >= confirmThreshold:
		return nodeConfirm
	default:
		return nodeHumanReview
	}
}

// fallbackToReview routes auto_create and confirm failures into the review
// queue instead of ending the run.
func fallbackToReview(s State) string {
	if s.Status == StatusHumanReview {
		return nodeHumanReview
	}
	return branchEnd
}

// Run executes one pipeline instance to a terminal node.
func (p *Pipeline) Run(ctx context.Context, state State) (State, error) {
	state.Status = StatusTranscribing
	return p.graph.Run(ctx, state)
}

func (p *Pipeline) transcribeNode(ctx context.Context, state State) (State, error) {
	p.log.PipelineNode(state.MessageID.String(), nodeTranscribe, "start")

	sttCtx, cancel := context.WithTimeout(ctx, p.sttTimeout)
	defer cancel()

	transcription, err := p.stt.Transcribe(sttCtx, state.AudioURL, "es")
	if err != nil {
		p.log.CollaboratorError("stt", "transcribe", err)
		state.Status = StatusFailed
		state.Error = fmt.Sprintf("Transcription failed: %v", err)
		return state, nil
	}

	if err := p.store.UpdateMessage(ctx, state.MessageID, MessageUpdate{
		Transcription: &transcription,
		Status:        ptr(PersistedTranscribed),
	}); err != nil {
		p.log.DatabaseError("update message transcription", err)
	}

	state.Transcription = transcription
	state.Status = StatusTranslating
	state.Error = ""
	return state, nil
}

func (p *Pipeline) translateNode(ctx context.Context, state State) (State, error) {
	p.log.PipelineNode(state.MessageID.String(), nodeTranslate, "start")

	if !state.Permissions.Enabled(PermTranslateMessages) {
		state.DetectedLanguage = "es"
		state.Status = StatusExtracting
		return state, nil
	}

	llmCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()

	result, err := p.translator.DetectAndTranslate(llmCtx, state.Transcription)
	if err != nil {
		// Non-fatal: keep the original transcription and move on.
		p.log.CollaboratorError("translator", "detect_and_translate", err)
		state.Error = fmt.Sprintf("Translation warning: %v", err)
		state.DetectedLanguage = result.LanguageCode
		state.DetectedLanguageName = result.LanguageName
		state.LanguageConfidence = result.Confidence
		state.Status = StatusExtracting
		return state, nil
	}

	state.DetectedLanguage = result.LanguageCode
	state.DetectedLanguageName = result.LanguageName
	state.LanguageConfidence = result.Confidence

	if result.Translated != nil {
		state.OriginalTranscription = state.Transcription
		state.TranslatedTranscription = *result.Translated
		state.Transcription = result.Text

		if err := p.store.UpdateMessage(ctx, state.MessageID, MessageUpdate{
			DetectedLanguage:  &result.LanguageCode,
			OriginalContent:   &state.OriginalTranscription,
			TranslatedContent: &state.TranslatedTranscription,
		}); err != nil {
			p.log.DatabaseError("update message translation", err)
		}
	}

	state.Status = StatusExtracting
	return state, nil
}

func (p *Pipeline) extractNode(ctx context.Context, state State) (State, error) {
	p.log.PipelineNode(state.MessageID.String(), nodeExtract, "start")

	if state.Transcription == "" {
		state.Status = StatusFailed
		state.Error = "No transcription available"
		return state, nil
	}

	llmCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()

	raw, err := p.llm.Complete(llmCtx, completion.Request{
		System:      extractSystemPrompt,
		User:        buildExtractUserPrompt(state.Transcription, state.ConversationHistory),
		Temperature: 0.3,
		MaxTokens:   1000,
		JSONOutput:  true,
	})
	if err != nil {
		p.log.CollaboratorError("llm", "extract", err)
		state.Status = StatusFailed
		state.Error = fmt.Sprintf("Extraction failed: %v", err)
		return state, nil
	}

	extraction := parseExtraction(raw, state.Transcription)
	extraction.OverallConfidence = clamp01(extraction.OverallConfidence)

	if err := p.store.UpdateMessage(ctx, state.MessageID, MessageUpdate{
		Extraction: &extraction,
		Confidence: &extraction.OverallConfidence,
		Status:     ptr(PersistedExtracted),
	}); err != nil {
		p.log.DatabaseError("update message extraction", err)
	}

	state.Extraction = &extraction
	state.Confidence = extraction.OverallConfidence
	state.Status = StatusRouting
	state.Error = ""
	return state, nil
}

func (p *Pipeline) autoCreateNode(ctx context.Context, state State) (State, error) {
	p.log.PipelineNode(state.MessageID.String(), nodeAutoCreate, "start")

	if state.Extraction == nil {
		state.Status = StatusHumanReview
		state.Error = "No extraction data"
		return state, nil
	}

	jobID, err := p.store.CreateJob(ctx, CreateJobParams{
		OrganizationID: state.OrganizationID,
		CustomerPhone:  state.CustomerPhone,
		Extraction:     *state.Extraction,
		Source:         JobSourceVoiceAuto,
	})
	if err != nil {
		p.log.DatabaseError("create job", err)
		state.Status = StatusHumanReview
		state.Error = fmt.Sprintf("Job creation failed: %v", err)
		return state, nil
	}

	title := state.Extraction.Title
	if title == "" {
		title = "tu trabajo"
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()
	if _, err := p.messenger.SendText(sendCtx, state.CustomerPhone, fmt.Sprintf(
		"✅ *Trabajo creado:* %s\n\nTe avisamos cuando asignemos un técnico.\nPodés ver el estado en cualquier momento escribiendo *estado*.",
		title,
	)); err != nil {
		p.log.CollaboratorError("messenger", "send job confirmation", err)
		state.Status = StatusHumanReview
		state.Error = fmt.Sprintf("Job created but notification failed: %v", err)
		state.JobID = jobID
		return state, nil
	}

	if err := p.store.UpdateMessage(ctx, state.MessageID, MessageUpdate{
		Status: ptr(PersistedJobCreated),
	}); err != nil {
		p.log.DatabaseError("update message status", err)
	}

	state.Status = StatusCompleted
	state.JobID = jobID
	state.Error = ""
	return state, nil
}

func (p *Pipeline) confirmNode(ctx context.Context, state State) (State, error) {
	p.log.PipelineNode(state.MessageID.String(), nodeConfirm, "start")

	if state.Extraction == nil {
		state.Status = StatusHumanReview
		state.Error = "No extraction data"
		return state, nil
	}

	message := FormatConfirmationMessage(*state.Extraction)

	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()

	messageID, err := p.messenger.SendButtons(sendCtx, state.CustomerPhone, message, confirmButtons)
	if err != nil {
		p.log.CollaboratorError("messenger", "send confirmation", err)
		state.Status = StatusHumanReview
		state.Error = fmt.Sprintf("Confirmation failed: %v", err)
		return state, nil
	}

	if err := p.store.UpdateMessage(ctx, state.MessageID, MessageUpdate{
		Status: ptr(PersistedAwaitingConfirmation),
	}); err != nil {
		p.log.DatabaseError("update message status", err)
	}

	state.Status = StatusConfirming
	state.ConfirmationSent = true
	state.ConfirmationMessageID = messageID
	return state, nil
}

func (p *Pipeline) humanReviewNode(ctx context.Context, state State) (State, error) {
	p.log.PipelineNode(state.MessageID.String(), nodeHumanReview, "start")

	if err := p.store.EnqueueReview(ctx, ReviewEntry{
		OrganizationID: state.OrganizationID,
		MessageID:      state.MessageID,
		Transcription:  state.Transcription,
		Extraction:     state.Extraction,
		Confidence:     state.Confidence,
		CustomerPhone:  state.CustomerPhone,
	}); err != nil {
		p.log.DatabaseError("enqueue review", err)
		state.Status = StatusFailed
		state.Error = fmt.Sprintf("Failed to queue for review: %v", err)
		return state, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()
	if _, err := p.messenger.SendText(sendCtx, state.CustomerPhone,
		"📝 Recibimos tu mensaje de voz.\nUn operador lo revisará en breve y te contactará.\nGracias por tu paciencia.",
	); err != nil {
		p.log.CollaboratorError("messenger", "send waiting notice", err)
	}

	if err := p.store.UpdateMessage(ctx, state.MessageID, MessageUpdate{
		Status: ptr(PersistedQueuedForReview),
	}); err != nil {
		p.log.DatabaseError("update message status", err)
	}

	state.Status = StatusHumanReview
	return state, nil
}

// handleFailureNode is the compensating sink. All three outward calls are
// best-effort; the run stays failed regardless of their outcome.
func (p *Pipeline) handleFailureNode(ctx context.Context, state State) (State, error) {
	p.log.PipelineNode(state.MessageID.String(), nodeHandleFailure, "start")

	if err := p.store.UpdateMessage(ctx, state.MessageID, MessageUpdate{
		Status: ptr(PersistedProcessingFailed),
	}); err != nil {
		p.log.DatabaseError("mark message failed", err)
	}

	transcription := state.Transcription
	if transcription == "" {
		transcription = "(transcription failed)"
	}
	if err := p.store.EnqueueReview(ctx, ReviewEntry{
		OrganizationID: state.OrganizationID,
		MessageID:      state.MessageID,
		Transcription:  transcription,
		Extraction:     nil,
		Confidence:     0,
		CustomerPhone:  state.CustomerPhone,
	}); err != nil {
		p.log.DatabaseError("enqueue failed message for review", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()
	if _, err := p.messenger.SendText(sendCtx, state.CustomerPhone,
		"❌ Tuvimos un problema procesando tu mensaje de voz.\nUn operador te contactará pronto.\nDisculpá las molestias.",
	); err != nil {
		p.log.CollaboratorError("messenger", "send failure notice", err)
	}

	state.Status = StatusFailed
	return state, nil
}

func parseExtraction(raw, transcription string) JobExtraction {
	fallback := JobExtraction{
		Description:       transcription,
		OverallConfidence: 0.3,
	}

	payload, ok := completion.ExtractJSONObject(raw)
	if !ok {
		return fallback
	}

	var extraction JobExtraction
	if err := json.Unmarshal([]byte(payload), &extraction); err != nil {
		return fallback
	}
	if extraction.Urgency == "" {
		extraction.Urgency = "normal"
	}
	return extraction
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ptr[T any](v T) *T {
	return &v
}
