package router

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fieldvoice_backend/internal/support/knowledge"
	"fieldvoice_backend/internal/tickets"
	"fieldvoice_backend/platform/ai/completion"
	"fieldvoice_backend/platform/logger"
)

type testConfig struct{}

func (testConfig) GetLLMTimeout() time.Duration { return 30 * time.Second }

// scriptedLLM returns responses in call order: classify first, answer second.
type scriptedLLM struct {
	responses []string
	errs      []error
	requests  []completion.Request
}

func (s *scriptedLLM) Complete(_ context.Context, req completion.Request) (string, error) {
	idx := len(s.requests)
	s.requests = append(s.requests, req)
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", errors.New("no scripted response")
}

type fakeTickets struct {
	reports []tickets.Report
	err     error
}

func (f *fakeTickets) File(_ context.Context, report tickets.Report) (string, error) {
	f.reports = append(f.reports, report)
	if f.err != nil {
		return "", f.err
	}
	return "ticket-1", nil
}

func newTestRouter(t *testing.T, llm Completer, filer TicketFiler) *Router {
	t.Helper()
	kb, err := knowledge.Load()
	if err != nil {
		t.Fatalf("load knowledge base: %v", err)
	}
	r, err := New(testConfig{}, llm, filer, kb, logger.New("development"))
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return r
}

func userTurn(content string) State {
	return State{
		Messages:  []Message{{Role: "user", Content: content}},
		SessionID: "session-1",
	}
}

func TestRunAnswersWithoutEscalation(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"facturacion", "Andá a Configuración > AFIP > Subir certificado. ¿Algo más?"}}
	filer := &fakeTickets{}

	result, err := newTestRouter(t, llm, filer).Run(context.Background(), userTurn("¿Cómo cargo mi certificado AFIP?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Category != CategoryBilling {
		t.Fatalf("expected facturacion, got %q", result.Category)
	}
	if result.Escalated || !result.Resolved {
		t.Fatalf("expected resolved without escalation, got escalated=%v resolved=%v", result.Escalated, result.Resolved)
	}
	if !strings.Contains(result.Response, "certificado") {
		t.Fatalf("unexpected response: %q", result.Response)
	}
	if len(filer.reports) != 0 {
		t.Fatalf("no ticket expected, got %d", len(filer.reports))
	}
	if len(result.Messages) != 2 {
		t.Fatalf("expected user + assistant turns, got %d", len(result.Messages))
	}

	answerReq := llm.requests[1]
	if !strings.Contains(answerReq.System, "¿Cómo cargo mi certificado AFIP?") {
		t.Fatalf("answer prompt must include the category FAQs")
	}
}

func TestRunEscalatesOnExplicitPhrase(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"cuenta", "No puedo resolver este problema específico de tu cuenta."}}
	filer := &fakeTickets{}

	result, err := newTestRouter(t, llm, filer).Run(context.Background(), State{
		Messages:       []Message{{Role: "user", Content: "Mi cuenta quedó bloqueada con un error raro"}},
		UserID:         "user-7",
		OrganizationID: "org-7",
		SessionID:      "session-7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Escalated || result.Resolved {
		t.Fatalf("expected escalation, got escalated=%v resolved=%v", result.Escalated, result.Resolved)
	}
	if result.Response != escalationMessage {
		t.Fatalf("expected reassurance message, got %q", result.Response)
	}

	if len(filer.reports) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(filer.reports))
	}
	report := filer.reports[0]
	if report.Type != "escalation" {
		t.Fatalf("expected escalation type, got %q", report.Type)
	}
	if !strings.Contains(report.Description, "Category: cuenta") {
		t.Fatalf("description must cite the category: %q", report.Description)
	}
	if report.Context["session_id"] != "session-7" {
		t.Fatalf("ticket context missing session id: %v", report.Context)
	}

	// Transcript order: user question, bot answer, reassurance.
	if len(result.Messages) != 3 || result.Messages[2].Content != escalationMessage {
		t.Fatalf("unexpected transcript: %v", result.Messages)
	}
}

func TestSalesQuestionsNeverEscalate(t *testing.T) {
	for _, category := range []string{CategorySales, CategoryFeatures} {
		llm := &scriptedLLM{responses: []string{category, "No tengo esa información a mano, pero nuestros planes arrancan en $25.000."}}
		filer := &fakeTickets{}

		result, err := newTestRouter(t, llm, filer).Run(context.Background(), userTurn("¿Cuánto cuesta el plan anual?"))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", category, err)
		}

		if result.Escalated {
			t.Fatalf("%s questions must never escalate", category)
		}
		if !result.Resolved {
			t.Fatalf("%s: expected resolved", category)
		}
		if len(filer.reports) != 0 {
			t.Fatalf("%s: no ticket expected", category)
		}

		answerReq := llm.requests[1]
		if !strings.Contains(answerReq.System, "Planes y Precios") {
			t.Fatalf("%s: answer prompt must include the business document", category)
		}
	}
}

func TestUnrecognizedCategoryCoercedToOther(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"recetas de cocina", "Solo puedo ayudarte con FieldVoice. ¿Algo más?"}}

	result, err := newTestRouter(t, llm, &fakeTickets{}).Run(context.Background(), userTurn("¿Cómo hago milanesas?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Category != CategoryOther {
		t.Fatalf("expected otro, got %q", result.Category)
	}
}

func TestClassifierFailureDegradesToOther(t *testing.T) {
	llm := &scriptedLLM{
		responses: []string{"", "Podés escribirnos a soporte@fieldvoice.com.ar. ¿Algo más?"},
		errs:      []error{errors.New("model down")},
	}

	result, err := newTestRouter(t, llm, &fakeTickets{}).Run(context.Background(), userTurn("Tengo un problema"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Category != CategoryOther {
		t.Fatalf("expected otro after classifier failure, got %q", result.Category)
	}
	if result.Response == "" {
		t.Fatalf("expected an answer despite classifier failure")
	}
}

func TestAnswerFailureEscalates(t *testing.T) {
	llm := &scriptedLLM{
		responses: []string{"cuenta", ""},
		errs:      []error{nil, errors.New("model down")},
	}
	filer := &fakeTickets{}

	result, err := newTestRouter(t, llm, filer).Run(context.Background(), userTurn("No puedo entrar a mi cuenta"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Escalated {
		t.Fatalf("expected escalation after answer failure")
	}
	if len(filer.reports) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(filer.reports))
	}
	if result.Response != escalationMessage {
		t.Fatalf("expected reassurance message, got %q", result.Response)
	}
}

func TestTicketFailureIsSwallowed(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"pagos", "No puedo resolver ese problema con tu pago."}}
	filer := &fakeTickets{err: errors.New("backend down")}

	result, err := newTestRouter(t, llm, filer).Run(context.Background(), userTurn("Me cobraron dos veces"))
	if err != nil {
		t.Fatalf("ticket failure must not surface: %v", err)
	}
	if result.Response != escalationMessage {
		t.Fatalf("expected reassurance message, got %q", result.Response)
	}
}
