package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fieldvoice_backend/internal/graph"
	"fieldvoice_backend/internal/support/knowledge"
	"fieldvoice_backend/internal/tickets"
	"fieldvoice_backend/platform/ai/completion"
	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/logger"
)

const (
	nodeClassify = "classify"
	nodeAnswer   = "answer"
	nodeEscalate = "escalate"

	branchEscalate = "escalate"
	branchEnd      = "end"
)

// Completer is the chat-completion collaborator.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// TicketFiler files escalation reports. *tickets.Client satisfies this.
type TicketFiler interface {
	File(ctx context.Context, report tickets.Report) (string, error)
}

// Result is the outcome of one chat turn.
type Result struct {
	Response  string    `json:"response"`
	Category  string    `json:"category"`
	Escalated bool      `json:"escalated"`
	Resolved  bool      `json:"resolved"`
	Messages  []Message `json:"messages"`
}

// Router runs support conversations through the classify/answer/escalate
// graph. Safe for concurrent use; all per-conversation state lives in State.
type Router struct {
	llm        Completer
	tickets    TicketFiler
	kb         *knowledge.Base
	graph      *graph.Graph[State]
	llmTimeout time.Duration
	log        *logger.Logger
}

// New compiles the support graph.
func New(cfg config.SupportConfig, llm Completer, filer TicketFiler, kb *knowledge.Base, log *logger.Logger) (*Router, error) {
	r := &Router{
		llm:        llm,
		tickets:    filer,
		kb:         kb,
		llmTimeout: cfg.GetLLMTimeout(),
		log:        log,
	}

	compiled, err := graph.NewBuilder[State](nodeClassify).
		AddNode(nodeClassify, r.classifyNode).
		AddNode(nodeAnswer, r.answerNode).
		AddNode(nodeEscalate, r.escalateNode).
		AddEdge(nodeClassify, nodeAnswer).
		AddConditionalEdge(nodeAnswer, func(s State) string {
			if s.Escalate {
				return branchEscalate
			}
			return branchEnd
		}, map[string]string{
			branchEscalate: nodeEscalate,
			branchEnd:      graph.End,
		}).
		AddEdge(nodeEscalate, graph.End).
		Compile()
	if err != nil {
		return nil, fmt.Errorf("support router: %w", err)
	}

	r.graph = compiled
	return r, nil
}

// Run processes one chat turn and returns the outcome.
func (r *Router) Run(ctx context.Context, state State) (Result, error) {
	final, err := r.graph.Run(ctx, state)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Response:  final.LastResponse,
		Category:  final.Category,
		Escalated: final.Escalate,
		Resolved:  final.Resolved,
		Messages:  final.Messages,
	}, nil
}

// classifyNode assigns one of the support categories. A classifier failure
// or an unrecognized token degrades to CategoryOther.
func (r *Router) classifyNode(ctx context.Context, state State) (State, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.llmTimeout)
	defer cancel()

	raw, err := r.llm.Complete(callCtx, completion.Request{
		System:    classifySystemPrompt,
		User:      state.lastUserMessage(),
		MaxTokens: 10,
	})
	if err != nil {
		r.log.CollaboratorError("llm", "support classify", err)
		state.Category = CategoryOther
		return state, nil
	}

	category := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := validCategories[category]; !ok {
		category = CategoryOther
	}
	state.Category = category
	return state, nil
}

// answerNode produces the FAQ-grounded reply and decides on escalation.
func (r *Router) answerNode(ctx context.Context, state State) (State, error) {
	faqs := r.kb.FAQsFor(state.Category)

	knowledgeBase := ""
	salesQuestion := state.Category == CategorySales || state.Category == CategoryFeatures
	if salesQuestion {
		knowledgeBase = r.kb.BusinessDoc()
	}

	callCtx, cancel := context.WithTimeout(ctx, r.llmTimeout)
	defer cancel()

	answer, err := r.llm.Complete(callCtx, completion.Request{
		System:      buildAnswerSystemPrompt(knowledgeBase, faqs, buildHistory(state.Messages)),
		User:        state.lastUserMessage(),
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		r.log.CollaboratorError("llm", "support answer", err)
		state.LastResponse = "Lo siento, hubo un error. Por favor intentá de nuevo."
		state.Escalate = !salesQuestion
		state.Resolved = false
		state.Messages = append(state.Messages, Message{Role: "assistant", Content: state.LastResponse})
		return state, nil
	}

	escalate := false
	if !salesQuestion {
		lowered := strings.ToLower(answer)
		for _, phrase := range escalationPhrases {
			if strings.Contains(lowered, phrase) {
				escalate = true
				break
			}
		}
	}

	state.Messages = append(state.Messages, Message{Role: "assistant", Content: answer})
	state.LastResponse = answer
	state.Escalate = escalate
	state.Resolved = !escalate
	return state, nil
}

// escalateNode files a ticket best-effort and appends the reassurance line.
func (r *Router) escalateNode(ctx context.Context, state State) (State, error) {
	var transcript strings.Builder
	for _, msg := range state.Messages {
		fmt.Fprintf(&transcript, "%s: %s\n", msg.Role, msg.Content)
	}

	_, err := r.tickets.File(ctx, tickets.Report{
		Type:        "escalation",
		Description: fmt.Sprintf("[AI Escalation] Category: %s\n\nConversation:\n%s", state.Category, transcript.String()),
		Context: map[string]any{
			"source":          "ai_support_bot",
			"user_id":         state.UserID,
			"organization_id": state.OrganizationID,
			"session_id":      state.SessionID,
			"category":        state.Category,
		},
	})
	if err != nil {
		r.log.CollaboratorError("tickets", "file escalation", err)
	}

	state.Messages = append(state.Messages, Message{Role: "assistant", Content: escalationMessage})
	state.LastResponse = escalationMessage
	return state, nil
}
