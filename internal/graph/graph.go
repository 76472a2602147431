// Package graph provides a minimal state-graph executor. A graph is an
// immutable set of named nodes over a typed state record, wired by static or
// state-predicated edges, and run as a simple loop: one node at a time, no
// parallel branches, no re-entry within a run.
package graph

import (
	"context"
	"fmt"
)

// End is the terminal sink label. An edge targeting End stops the run.
const End = "__end__"

// NodeFunc is a single step over the state. Nodes receive the state by value
// and return the merged successor state. Nodes are expected to translate
// their own I/O failures into state; a returned error aborts the whole run
// and is surfaced to the caller unchanged.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Predicate maps the state returned by a node to a branch label.
// It must be pure.
type Predicate[S any] func(state S) string

type edge[S any] struct {
	next      string
	predicate Predicate[S]
	branches  map[string]string
}

// Builder assembles a Graph. Compile validates the wiring and returns an
// immutable value safe for concurrent runs.
type Builder[S any] struct {
	entry string
	nodes map[string]NodeFunc[S]
	edges map[string]edge[S]
}

// NewBuilder creates a builder with the given entry node label.
func NewBuilder[S any](entry string) *Builder[S] {
	return &Builder[S]{
		entry: entry,
		nodes: make(map[string]NodeFunc[S]),
		edges: make(map[string]edge[S]),
	}
}

// AddNode registers a node under the given label.
func (b *Builder[S]) AddNode(label string, fn NodeFunc[S]) *Builder[S] {
	b.nodes[label] = fn
	return b
}

// AddEdge wires an unconditional edge from one node to the next.
// The target may be End.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	b.edges[from] = edge[S]{next: to}
	return b
}

// AddConditionalEdge wires a predicated edge: after from returns, the
// predicate is evaluated against the new state and the matching branch
// target is dispatched. Branch targets may be End.
func (b *Builder[S]) AddConditionalEdge(from string, predicate Predicate[S], branches map[string]string) *Builder[S] {
	b.edges[from] = edge[S]{predicate: predicate, branches: branches}
	return b
}

// Compile validates that every edge source and target resolves to a
// registered node (or End) and returns the immutable graph.
func (b *Builder[S]) Compile() (*Graph[S], error) {
	if _, ok := b.nodes[b.entry]; !ok {
		return nil, fmt.Errorf("graph: entry node %q not registered", b.entry)
	}

	for from, e := range b.edges {
		if _, ok := b.nodes[from]; !ok {
			return nil, fmt.Errorf("graph: edge from unknown node %q", from)
		}
		targets := []string{e.next}
		if e.predicate != nil {
			targets = targets[:0]
			for _, to := range e.branches {
				targets = append(targets, to)
			}
		}
		for _, to := range targets {
			if to == End {
				continue
			}
			if _, ok := b.nodes[to]; !ok {
				return nil, fmt.Errorf("graph: edge %q -> unknown node %q", from, to)
			}
		}
	}

	for label := range b.nodes {
		if _, ok := b.edges[label]; !ok {
			return nil, fmt.Errorf("graph: node %q has no outgoing edge", label)
		}
	}

	return &Graph[S]{entry: b.entry, nodes: b.nodes, edges: b.edges}, nil
}

// Graph is a compiled, immutable state graph. It holds no mutable shared
// state and may be run from many goroutines concurrently.
type Graph[S any] struct {
	entry string
	nodes map[string]NodeFunc[S]
	edges map[string]edge[S]
}

// Run executes the graph from the entry node until control reaches End.
// The final state is returned. A node error aborts the run immediately with
// the state as of that node's return.
func (g *Graph[S]) Run(ctx context.Context, state S) (S, error) {
	current := g.entry
	visited := make(map[string]bool, len(g.nodes))

	for {
		if visited[current] {
			return state, fmt.Errorf("graph: node %q re-entered in the same run", current)
		}
		visited[current] = true

		next, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("graph: unknown node %q", current)
		}

		var err error
		state, err = next(ctx, state)
		if err != nil {
			return state, err
		}

		e := g.edges[current]
		target := e.next
		if e.predicate != nil {
			label := e.predicate(state)
			target, ok = e.branches[label]
			if !ok {
				return state, fmt.Errorf("graph: node %q returned unknown branch %q", current, label)
			}
		}

		if target == End {
			return state, nil
		}
		current = target
	}
}
