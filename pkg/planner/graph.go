// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package planner runs deterministic node graphs with conditional edges.
package planner

import "fmt"

// Graph defines a deterministic execution graph.
type Graph struct {
	ID    string          `json:"id" yaml:"id"`
	Start string          `json:"start" yaml:"start"`
	Nodes map[string]Node `json:"nodes" yaml:"nodes"`
	Edges []Edge          `json:"edges" yaml:"edges"`
}

// Node represents a step in the graph.
type Node struct {
	ID       string            `json:"id" yaml:"id"`
	Type     string            `json:"type" yaml:"type"`
	Input    any               `json:"input,omitempty" yaml:"input,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Edge defines a transition between nodes. An empty condition or
// "default" is taken when no conditional sibling edge matches.
type Edge struct {
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Validate ensures the graph is well-formed for execution.
func (g *Graph) Validate() error {
	if g == nil {
		return fmt.Errorf("graph is nil")
	}
	if len(g.Nodes) == 0 {
		return fmt.Errorf("graph has no nodes")
	}

	for id, node := range g.Nodes {
		if node.ID == "" {
			node.ID = id
			g.Nodes[id] = node
		}
		if node.ID != id {
			return fmt.Errorf("node %q declares id %q", id, node.ID)
		}
		if node.Type == "" {
			return fmt.Errorf("node %q missing type", node.ID)
		}
	}

	defaults := make(map[string]int)
	for _, edge := range g.Edges {
		if edge.From == "" || edge.To == "" {
			return fmt.Errorf("edge must include from/to")
		}
		if _, ok := g.Nodes[edge.From]; !ok {
			return fmt.Errorf("edge from %q not found", edge.From)
		}
		if _, ok := g.Nodes[edge.To]; !ok {
			return fmt.Errorf("edge to %q not found", edge.To)
		}
		if isDefault(edge.Condition) {
			defaults[edge.From]++
			if defaults[edge.From] > 1 {
				return fmt.Errorf("node %q has more than one default edge", edge.From)
			}
			continue
		}
		if _, err := parseCondition(edge.Condition); err != nil {
			return fmt.Errorf("edge %s->%s: %w", edge.From, edge.To, err)
		}
	}
	return nil
}
