// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/abcd1927/AI-coding-demo/pkg/core"
	"github.com/abcd1927/AI-coding-demo/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Handler executes a node and can update state.
type Handler func(ctx context.Context, node Node, state *State) (any, error)

// State holds outputs produced during graph execution.
type State struct {
	Last    any
	Outputs map[string]any
	// Path lists the executed node ids in order.
	Path []string
}

// NewState creates an initialized execution state.
func NewState() *State {
	return &State{Outputs: make(map[string]any)}
}

// Audit statuses reported to AuditHook.
const (
	AuditStarted   = "started"
	AuditCompleted = "completed"
	AuditFailed    = "failed"
)

// AuditEvent describes one node transition.
type AuditEvent struct {
	GraphID    string
	RunID      string
	NodeID     string
	NodeType   string
	Status     string
	Output     any
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Executor runs a graph using node handlers. HandlersByID takes precedence
// over the type keyed Handlers.
type Executor struct {
	Handlers     map[string]Handler
	HandlersByID map[string]Handler
	AuditHook    func(ctx context.Context, event AuditEvent)
	tracer       trace.Tracer
}

// NewExecutor creates an executor with provided handlers.
func NewExecutor(handlers map[string]Handler) *Executor {
	return &Executor{
		Handlers: handlers,
		tracer:   otel.Tracer("concierge/planner"),
	}
}

// Execute runs the graph from its start node and returns the final state.
// Nodes run at most once; a node without outgoing edges ends the run.
func (e *Executor) Execute(ctx context.Context, graph *Graph, state *State) (*State, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	if state == nil {
		state = NewState()
	}
	if state.Outputs == nil {
		state.Outputs = make(map[string]any)
	}

	startID, err := resolveStartNode(graph)
	if err != nil {
		return nil, err
	}
	adjacency := buildAdjacency(graph)
	runID, _ := core.RunID(ctx)

	visited := make(map[string]bool)
	currentID := startID
	for currentID != "" {
		if visited[currentID] {
			return nil, fmt.Errorf("cycle detected at node %q", currentID)
		}
		visited[currentID] = true

		node := graph.Nodes[currentID]
		handler := e.handlerFor(node)
		if handler == nil {
			return nil, fmt.Errorf("no handler for node %q (type %q)", node.ID, node.Type)
		}

		output, err := e.runNode(ctx, graph.ID, runID, node, handler, state)
		if err != nil {
			return state, fmt.Errorf("node %q failed: %w", node.ID, err)
		}
		state.Outputs[node.ID] = output
		state.Last = output
		state.Path = append(state.Path, node.ID)

		currentID, err = nextNode(adjacency[currentID], state)
		if err != nil {
			return state, fmt.Errorf("node %q: %w", node.ID, err)
		}
	}

	return state, nil
}

func (e *Executor) handlerFor(node Node) Handler {
	if h := e.HandlersByID[node.ID]; h != nil {
		return h
	}
	return e.Handlers[node.Type]
}

func (e *Executor) runNode(ctx context.Context, graphID, runID string, node Node, handler Handler, state *State) (any, error) {
	nodeCtx, span := e.tracer.Start(ctx, "Planner.Node",
		trace.WithAttributes(telemetry.NodeAttributes(graphID, node.ID, node.Type)...),
	)
	defer span.End()

	started := time.Now().UTC()
	e.audit(nodeCtx, AuditEvent{
		GraphID: graphID, RunID: runID, NodeID: node.ID, NodeType: node.Type,
		Status: AuditStarted, StartedAt: started,
	})

	output, err := handler(nodeCtx, node, state)

	event := AuditEvent{
		GraphID: graphID, RunID: runID, NodeID: node.ID, NodeType: node.Type,
		Status: AuditCompleted, Output: output, StartedAt: started, FinishedAt: time.Now().UTC(),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		event.Status = AuditFailed
		event.Error = err.Error()
	} else {
		span.SetStatus(codes.Ok, "")
	}
	e.audit(nodeCtx, event)
	return output, err
}

func (e *Executor) audit(ctx context.Context, event AuditEvent) {
	if e.AuditHook != nil {
		e.AuditHook(ctx, event)
	}
}

// nextNode picks the first conditional edge that holds, falling back to the
// default edge. No edges ends the run.
func nextNode(edges []Edge, state *State) (string, error) {
	if len(edges) == 0 {
		return "", nil
	}
	fallback := ""
	for _, edge := range edges {
		if isDefault(edge.Condition) {
			fallback = edge.To
			continue
		}
		ok, err := evaluateCondition(edge.Condition, state)
		if err != nil {
			return "", err
		}
		if ok {
			return edge.To, nil
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("no outgoing edge matched")
	}
	return fallback, nil
}

func resolveStartNode(graph *Graph) (string, error) {
	if graph.Start != "" {
		if _, ok := graph.Nodes[graph.Start]; !ok {
			return "", fmt.Errorf("start node %q not found", graph.Start)
		}
		return graph.Start, nil
	}

	incoming := make(map[string]int)
	for id := range graph.Nodes {
		incoming[id] = 0
	}
	for _, edge := range graph.Edges {
		incoming[edge.To]++
	}

	var candidates []string
	for id, count := range incoming {
		if count == 0 {
			candidates = append(candidates, id)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", fmt.Errorf("no start node found")
	default:
		return "", fmt.Errorf("multiple start nodes found")
	}
}

func buildAdjacency(graph *Graph) map[string][]Edge {
	adj := make(map[string][]Edge, len(graph.Nodes))
	for _, edge := range graph.Edges {
		adj[edge.From] = append(adj[edge.From], edge)
	}
	return adj
}
