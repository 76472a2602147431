package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"fieldvoice_backend/internal/translation"
	"fieldvoice_backend/internal/whatsapp"
	"fieldvoice_backend/platform/ai/completion"
	"fieldvoice_backend/platform/logger"
)

type testConfig struct{}

func (testConfig) GetAutoCreateThreshold() float64 { return 0.85 }
func (testConfig) GetConfirmThreshold() float64    { return 0.50 }
func (testConfig) GetDefaultAreaCode() string      { return "11" }
func (testConfig) GetBusinessLanguages() []string  { return []string{"es"} }
func (testConfig) GetSTTTimeout() time.Duration    { return 30 * time.Second }
func (testConfig) GetLLMTimeout() time.Duration    { return 30 * time.Second }
func (testConfig) GetSendTimeout() time.Duration   { return 30 * time.Second }

type fakeStt struct {
	text string
	err  error
}

func (f *fakeStt) Transcribe(context.Context, string, string) (string, error) {
	return f.text, f.err
}

type fakeTranslator struct {
	result translation.Result
	err    error
}

func (f *fakeTranslator) DetectAndTranslate(_ context.Context, text string) (translation.Result, error) {
	if f.result.Text == "" {
		return translation.Result{Text: text, LanguageCode: "es", LanguageName: "español", Confidence: 0.95}, f.err
	}
	return f.result, f.err
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(context.Context, completion.Request) (string, error) {
	return f.response, f.err
}

type fakeMessenger struct {
	sent    []string
	buttons [][]whatsapp.Button
	sendErr error
}

func (f *fakeMessenger) SendText(_ context.Context, _, body string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, body)
	return fmt.Sprintf("wamid-%d", len(f.sent)), nil
}

func (f *fakeMessenger) SendButtons(ctx context.Context, to, body string, buttons []whatsapp.Button) (string, error) {
	f.buttons = append(f.buttons, buttons)
	return f.SendText(ctx, to, body)
}

type fakeStore struct {
	jobs      []CreateJobParams
	reviews   []ReviewEntry
	updates   []MessageUpdate
	createErr error
	reviewErr error
}

func (f *fakeStore) CreateJob(_ context.Context, params CreateJobParams) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.jobs = append(f.jobs, params)
	return "job-123", nil
}

func (f *fakeStore) EnqueueReview(_ context.Context, entry ReviewEntry) error {
	if f.reviewErr != nil {
		return f.reviewErr
	}
	f.reviews = append(f.reviews, entry)
	return nil
}

func (f *fakeStore) UpdateMessage(_ context.Context, _ uuid.UUID, update MessageUpdate) error {
	f.updates = append(f.updates, update)
	return nil
}

func (f *fakeStore) lastStatus() string {
	for i := len(f.updates) - 1; i >= 0; i-- {
		if f.updates[i].Status != nil {
			return *f.updates[i].Status
		}
	}
	return ""
}

func extractionJSON(confidence float64) string {
	return fmt.Sprintf(`{
		"title": "Reparación de heladera",
		"service_type": "refrigeracion",
		"appliance_brand": "Samsung",
		"problem_description": "No enfría",
		"urgency": "normal",
		"field_confidences": {"title": %.2f},
		"overall_confidence": %.2f
	}`, confidence, confidence)
}

func newTestPipeline(t *testing.T, stt *fakeStt, llm *fakeLLM, messenger *fakeMessenger, store *fakeStore) *Pipeline {
	t.Helper()
	p, err := NewPipeline(testConfig{}, stt, &fakeTranslator{}, llm, messenger, store, logger.New("development"))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func baseState() State {
	return State{
		MessageID:      uuid.New(),
		AudioURL:       "https://media.example/audio.ogg",
		CustomerPhone:  "+5493874475398",
		OrganizationID: uuid.New(),
	}
}

func TestRouteByConfidence(t *testing.T) {
	cases := []struct {
		confidence float64
		want       string
	}{
		{0.92, "auto_create"},
		{0.85, "auto_create"},
		{0.65, "confirm"},
		{0.50, "confirm"},
		{0.49, "human_review"},
		{0.35, "human_review"},
		{0.0, "human_review"},
	}
	for _, tc := range cases {
		if got := RouteByConfidence(tc.confidence, 0.85, 0.50); got != tc.want {
			t.Fatalf("confidence %.2f: expected %s, got %s", tc.confidence, tc.want, got)
		}
	}
}

func TestHighConfidenceAutoCreate(t *testing.T) {
	stt := &fakeStt{text: "se me rompió la heladera samsung, no enfría nada"}
	llm := &fakeLLM{response: extractionJSON(0.92)}
	messenger := &fakeMessenger{}
	store := &fakeStore{}

	final, err := newTestPipeline(t, stt, llm, messenger, store).Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.JobID != "job-123" {
		t.Fatalf("expected job id set, got %q", final.JobID)
	}
	if len(store.jobs) != 1 {
		t.Fatalf("expected 1 create_job call, got %d", len(store.jobs))
	}
	if store.jobs[0].Source != JobSourceVoiceAuto {
		t.Fatalf("expected source voice_ai_auto, got %q", store.jobs[0].Source)
	}
	if len(messenger.sent) != 1 || !strings.Contains(messenger.sent[0], "Trabajo creado") {
		t.Fatalf("expected one outbound containing Trabajo creado, got %v", messenger.sent)
	}
	if store.lastStatus() != PersistedJobCreated {
		t.Fatalf("expected persisted status job_created, got %q", store.lastStatus())
	}
}

func TestMediumConfidenceConfirmation(t *testing.T) {
	stt := &fakeStt{text: "hola, tengo un problema con la heladera"}
	llm := &fakeLLM{response: extractionJSON(0.65)}
	messenger := &fakeMessenger{}
	store := &fakeStore{}

	final, err := newTestPipeline(t, stt, llm, messenger, store).Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.Status != StatusConfirming {
		t.Fatalf("expected confirming, got %s", final.Status)
	}
	if !final.ConfirmationSent || final.ConfirmationMessageID == "" {
		t.Fatal("expected confirmation outbound recorded")
	}
	if len(store.jobs) != 0 {
		t.Fatalf("expected no create_job calls, got %d", len(store.jobs))
	}
	if len(messenger.sent) != 1 || !strings.Contains(messenger.sent[0], "¿Es correcto?") {
		t.Fatalf("expected confirmation prompt, got %v", messenger.sent)
	}
	if len(messenger.buttons) != 1 || len(messenger.buttons[0]) != 2 {
		t.Fatalf("expected two quick-reply buttons, got %v", messenger.buttons)
	}
	if store.lastStatus() != PersistedAwaitingConfirmation {
		t.Fatalf("expected persisted status awaiting_confirmation, got %q", store.lastStatus())
	}
}

func TestLowConfidenceHumanReview(t *testing.T) {
	stt := &fakeStt{text: "eh... hola... no sé"}
	llm := &fakeLLM{response: extractionJSON(0.35)}
	messenger := &fakeMessenger{}
	store := &fakeStore{}

	final, err := newTestPipeline(t, stt, llm, messenger, store).Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.Status != StatusHumanReview {
		t.Fatalf("expected human_review, got %s", final.Status)
	}
	if len(store.reviews) != 1 {
		t.Fatalf("expected 1 enqueue_review call, got %d", len(store.reviews))
	}
	if len(messenger.sent) != 1 || !strings.Contains(messenger.sent[0], "operador") {
		t.Fatalf("expected waiting message, got %v", messenger.sent)
	}
	if store.lastStatus() != PersistedQueuedForReview {
		t.Fatalf("expected persisted status queued_for_review, got %q", store.lastStatus())
	}
}

func TestTranscriptionFailureCompensates(t *testing.T) {
	stt := &fakeStt{err: errors.New("stt unavailable")}
	llm := &fakeLLM{}
	messenger := &fakeMessenger{}
	store := &fakeStore{}

	final, err := newTestPipeline(t, stt, llm, messenger, store).Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if len(store.jobs) != 0 {
		t.Fatalf("expected no create_job calls, got %d", len(store.jobs))
	}
	// Compensation: status write, review enqueue, and outbound notice.
	if store.lastStatus() != PersistedProcessingFailed {
		t.Fatalf("expected persisted status processing_failed, got %q", store.lastStatus())
	}
	if len(store.reviews) != 1 {
		t.Fatalf("expected failed message queued for review, got %d", len(store.reviews))
	}
	if store.reviews[0].Transcription != "(transcription failed)" {
		t.Fatalf("expected placeholder transcription, got %q", store.reviews[0].Transcription)
	}
	if len(messenger.sent) != 1 || !strings.Contains(messenger.sent[0], "problema") {
		t.Fatalf("expected problem notice, got %v", messenger.sent)
	}
}

func TestCompensationSurvivesCollaboratorFailures(t *testing.T) {
	stt := &fakeStt{err: errors.New("stt unavailable")}
	llm := &fakeLLM{}
	messenger := &fakeMessenger{sendErr: errors.New("gateway down")}
	store := &fakeStore{reviewErr: errors.New("db down")}

	final, err := newTestPipeline(t, stt, llm, messenger, store).Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("expected compensation to swallow failures, got %v", err)
	}
	if final.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
}

func TestConfirmSendFailureFallsBackToReview(t *testing.T) {
	stt := &fakeStt{text: "tengo un problema con la heladera"}
	llm := &fakeLLM{response: extractionJSON(0.65)}
	messenger := &fakeMessenger{sendErr: errors.New("gateway down")}
	store := &fakeStore{}

	final, err := newTestPipeline(t, stt, llm, messenger, store).Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.Status != StatusHumanReview {
		t.Fatalf("expected fallback to human_review, got %s", final.Status)
	}
	if len(store.reviews) != 1 {
		t.Fatalf("expected review enqueue after send failure, got %d", len(store.reviews))
	}
}

func TestAutoCreateFailureFallsBackToReview(t *testing.T) {
	stt := &fakeStt{text: "se me rompió la heladera samsung"}
	llm := &fakeLLM{response: extractionJSON(0.92)}
	messenger := &fakeMessenger{}
	store := &fakeStore{createErr: errors.New("db down")}

	final, err := newTestPipeline(t, stt, llm, messenger, store).Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.Status != StatusHumanReview {
		t.Fatalf("expected fallback to human_review, got %s", final.Status)
	}
	if final.JobID != "" {
		t.Fatalf("expected no job id, got %q", final.JobID)
	}
	if len(store.reviews) != 1 {
		t.Fatalf("expected review enqueue, got %d", len(store.reviews))
	}
}

func TestMalformedExtractionDegradesToLowConfidence(t *testing.T) {
	stt := &fakeStt{text: "se me rompió la heladera"}
	llm := &fakeLLM{response: "lo siento, no puedo responder en JSON"}
	messenger := &fakeMessenger{}
	store := &fakeStore{}

	final, err := newTestPipeline(t, stt, llm, messenger, store).Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Parse failure yields confidence 0.3, which routes to human review.
	if final.Status != StatusHumanReview {
		t.Fatalf("expected human_review, got %s", final.Status)
	}
	if final.Extraction == nil || final.Extraction.Description != "se me rompió la heladera" {
		t.Fatal("expected fallback extraction with raw transcription as description")
	}
	if final.Confidence != 0.3 {
		t.Fatalf("expected confidence 0.3, got %f", final.Confidence)
	}
}

func TestTranslateDisabledByPermission(t *testing.T) {
	stt := &fakeStt{text: "my fridge is broken"}
	llm := &fakeLLM{response: extractionJSON(0.92)}
	messenger := &fakeMessenger{}
	store := &fakeStore{}

	state := baseState()
	state.Permissions = Permissions{PermTranslateMessages: false}

	final, err := newTestPipeline(t, stt, llm, messenger, store).Run(context.Background(), state)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if final.DetectedLanguage != "es" {
		t.Fatalf("expected forced es, got %q", final.DetectedLanguage)
	}
	if final.OriginalTranscription != "" {
		t.Fatal("expected no translation bookkeeping when disabled")
	}
}

func TestTranslationAppliedBeforeExtraction(t *testing.T) {
	translated := "se me rompió la heladera"
	stt := &fakeStt{text: "minha geladeira quebrou"}
	llm := &fakeLLM{response: extractionJSON(0.92)}
	messenger := &fakeMessenger{}
	store := &fakeStore{}

	p, err := NewPipeline(testConfig{}, stt, &fakeTranslator{
		result: translation.Result{
			Text:         translated,
			LanguageCode: "pt",
			LanguageName: "portugués",
			Confidence:   0.9,
			Translated:   &translated,
		},
	}, llm, messenger, store, logger.New("development"))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	final, err := p.Run(context.Background(), baseState())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if final.Transcription != translated {
		t.Fatalf("expected translated transcription, got %q", final.Transcription)
	}
	if final.OriginalTranscription != "minha geladeira quebrou" {
		t.Fatalf("expected original preserved, got %q", final.OriginalTranscription)
	}
	if final.DetectedLanguage != "pt" {
		t.Fatalf("expected pt, got %q", final.DetectedLanguage)
	}
}
