package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type counterState struct {
	steps []string
	fail  bool
}

func record(label string) NodeFunc[counterState] {
	return func(_ context.Context, s counterState) (counterState, error) {
		s.steps = append(s.steps, label)
		return s, nil
	}
}

func TestRunLinear(t *testing.T) {
	g, err := NewBuilder[counterState]("a").
		AddNode("a", record("a")).
		AddNode("b", record("b")).
		AddNode("c", record("c")).
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", End).
		Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	final, err := g.Run(context.Background(), counterState{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Join(final.steps, ","); got != "a,b,c" {
		t.Fatalf("expected a,b,c, got %s", got)
	}
}

func TestRunConditionalBranch(t *testing.T) {
	g, err := NewBuilder[counterState]("start").
		AddNode("start", record("start")).
		AddNode("ok", record("ok")).
		AddNode("bad", record("bad")).
		AddConditionalEdge("start", func(s counterState) string {
			if s.fail {
				return "failure"
			}
			return "success"
		}, map[string]string{"success": "ok", "failure": "bad"}).
		AddEdge("ok", End).
		AddEdge("bad", End).
		Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	final, err := g.Run(context.Background(), counterState{fail: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Join(final.steps, ","); got != "start,bad" {
		t.Fatalf("expected start,bad, got %s", got)
	}

	final, err = g.Run(context.Background(), counterState{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Join(final.steps, ","); got != "start,ok" {
		t.Fatalf("expected start,ok, got %s", got)
	}
}

func TestRunNodeError(t *testing.T) {
	boom := errors.New("boom")
	g, err := NewBuilder[counterState]("a").
		AddNode("a", record("a")).
		AddNode("b", func(_ context.Context, s counterState) (counterState, error) {
			return s, boom
		}).
		AddEdge("a", "b").
		AddEdge("b", End).
		Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	final, err := g.Run(context.Background(), counterState{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := strings.Join(final.steps, ","); got != "a" {
		t.Fatalf("expected partial state a, got %s", got)
	}
}

func TestRunRejectsReentry(t *testing.T) {
	g, err := NewBuilder[counterState]("a").
		AddNode("a", record("a")).
		AddNode("b", record("b")).
		AddEdge("a", "b").
		AddEdge("b", "a").
		Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	_, err = g.Run(context.Background(), counterState{})
	if err == nil || !strings.Contains(err.Error(), "re-entered") {
		t.Fatalf("expected re-entry error, got %v", err)
	}
}

func TestCompileValidation(t *testing.T) {
	_, err := NewBuilder[counterState]("missing").Compile()
	if err == nil {
		t.Fatal("expected error for unregistered entry node")
	}

	_, err = NewBuilder[counterState]("a").
		AddNode("a", record("a")).
		AddEdge("a", "nowhere").
		Compile()
	if err == nil {
		t.Fatal("expected error for edge to unknown node")
	}

	_, err = NewBuilder[counterState]("a").
		AddNode("a", record("a")).
		AddNode("dangling", record("dangling")).
		AddEdge("a", End).
		Compile()
	if err == nil {
		t.Fatal("expected error for node without outgoing edge")
	}

	_, err = NewBuilder[counterState]("a").
		AddNode("a", record("a")).
		AddConditionalEdge("a", func(counterState) string { return "x" }, map[string]string{"x": End}).
		Compile()
	if err != nil {
		t.Fatalf("expected conditional edge to End to compile, got %v", err)
	}
}

func TestRunUnknownBranch(t *testing.T) {
	g, err := NewBuilder[counterState]("a").
		AddNode("a", record("a")).
		AddConditionalEdge("a", func(counterState) string { return "nope" }, map[string]string{"x": End}).
		Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	_, err = g.Run(context.Background(), counterState{})
	if err == nil || !strings.Contains(err.Error(), "unknown branch") {
		t.Fatalf("expected unknown branch error, got %v", err)
	}
}
