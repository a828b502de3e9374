// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func echo(_ context.Context, node Node, _ *State) (any, error) {
	return node.Input, nil
}

func TestExecutorSinglePath(t *testing.T) {
	graph := &Graph{
		ID:    "graph",
		Start: "n1",
		Nodes: map[string]Node{
			"n1": {Type: "echo", Input: "first"},
			"n2": {Type: "echo", Input: "second"},
		},
		Edges: []Edge{{From: "n1", To: "n2"}},
	}

	state, err := NewExecutor(map[string]Handler{"echo": echo}).Execute(context.Background(), graph, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if state.Last != "second" {
		t.Fatalf("unexpected last output: %v", state.Last)
	}
	if state.Outputs["n1"] != "first" {
		t.Fatalf("unexpected n1 output: %v", state.Outputs["n1"])
	}
	if strings.Join(state.Path, ",") != "n1,n2" {
		t.Fatalf("unexpected path %v", state.Path)
	}
}

func TestExecutorBranching(t *testing.T) {
	newGraph := func(first string) *Graph {
		return &Graph{
			ID:    "graph-branch",
			Start: "n1",
			Nodes: map[string]Node{
				"n1": {Type: "echo", Input: map[string]any{"outcome": first}},
				"n2": {Type: "echo", Input: "loop"},
				"n3": {Type: "echo", Input: "done"},
			},
			Edges: []Edge{
				{From: "n1", To: "n3", Condition: "default"},
				{From: "n1", To: "n2", Condition: "output.n1.outcome==continue"},
				{From: "n2", To: "n3"},
			},
		}
	}
	exec := NewExecutor(map[string]Handler{"echo": echo})

	state, err := exec.Execute(context.Background(), newGraph("continue"), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Join(state.Path, ",") != "n1,n2,n3" {
		t.Fatalf("expected conditional branch, got %v", state.Path)
	}

	state, err = exec.Execute(context.Background(), newGraph("terminate"), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Join(state.Path, ",") != "n1,n3" {
		t.Fatalf("expected default branch, got %v", state.Path)
	}
}

func TestExecutorNoEdgeMatched(t *testing.T) {
	graph := &Graph{
		Start: "n1",
		Nodes: map[string]Node{
			"n1": {Type: "echo", Input: "x"},
			"n2": {Type: "echo"},
		},
		Edges: []Edge{{From: "n1", To: "n2", Condition: "last==y"}},
	}
	if _, err := NewExecutor(map[string]Handler{"echo": echo}).Execute(context.Background(), graph, nil); err == nil {
		t.Fatalf("expected error when no edge matches")
	}
}

func TestExecutorHandlersByID(t *testing.T) {
	graph := &Graph{
		Start: "a",
		Nodes: map[string]Node{"a": {Type: "echo", Input: "type"}},
	}
	exec := NewExecutor(map[string]Handler{"echo": echo})
	exec.HandlersByID = map[string]Handler{
		"a": func(context.Context, Node, *State) (any, error) { return "override", nil },
	}
	state, err := exec.Execute(context.Background(), graph, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if state.Last != "override" {
		t.Fatalf("expected id handler to win, got %v", state.Last)
	}
}

func TestExecutorAuditHook(t *testing.T) {
	graph := &Graph{
		ID:    "graph-audit",
		Start: "n1",
		Nodes: map[string]Node{
			"n1": {Type: "echo", Input: "one"},
			"n2": {Type: "fail"},
		},
		Edges: []Edge{{From: "n1", To: "n2"}},
	}

	var events []AuditEvent
	exec := NewExecutor(map[string]Handler{
		"echo": echo,
		"fail": func(context.Context, Node, *State) (any, error) { return nil, errors.New("boom") },
	})
	exec.AuditHook = func(_ context.Context, ev AuditEvent) { events = append(events, ev) }

	state, err := exec.Execute(context.Background(), graph, nil)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if state == nil || state.Outputs["n1"] != "one" {
		t.Fatalf("expected partial state on failure")
	}
	want := []string{"n1:started", "n1:completed", "n2:started", "n2:failed"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, ev := range events {
		if got := ev.NodeID + ":" + ev.Status; got != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got)
		}
		if ev.GraphID != "graph-audit" {
			t.Fatalf("expected graph id on events")
		}
	}
	if events[3].Error != "boom" {
		t.Fatalf("expected error text, got %q", events[3].Error)
	}
}

func TestExecutorMissingHandler(t *testing.T) {
	graph := &Graph{Start: "n1", Nodes: map[string]Node{"n1": {Type: "unknown"}}}
	if _, err := NewExecutor(nil).Execute(context.Background(), graph, nil); err == nil {
		t.Fatalf("expected missing handler error")
	}
}

func TestExecutorCycle(t *testing.T) {
	graph := &Graph{
		Start: "a",
		Nodes: map[string]Node{"a": {Type: "echo"}, "b": {Type: "echo"}},
		Edges: []Edge{{From: "a", To: "b"}, {From: "b", To: "a"}},
	}
	if _, err := NewExecutor(map[string]Handler{"echo": echo}).Execute(context.Background(), graph, nil); err == nil {
		t.Fatalf("expected cycle error")
	}
}

func TestResolveStartNodeWithoutStart(t *testing.T) {
	graph := &Graph{
		Nodes: map[string]Node{"a": {Type: "echo"}, "b": {Type: "echo"}},
		Edges: []Edge{{From: "a", To: "b"}},
	}
	start, err := resolveStartNode(graph)
	if err != nil || start != "a" {
		t.Fatalf("expected a, got %q (%v)", start, err)
	}
}
