// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package planner_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/abcd1927/AI-coding-demo/pkg/planner"
)

const routingGraph = `
id: routing
start: classify
nodes:
  classify: {type: classify}
  bind:     {type: bind}
  work:     {type: work}
  reply:    {type: reply}
edges:
  - {from: classify, to: bind}
  - {from: bind, to: work, condition: "output.bind.outcome==continue"}
  - {from: bind, to: reply, condition: default}
  - {from: work, to: reply}
`

func ExampleExecutor() {
	graph, err := planner.ParseYAML([]byte(routingGraph))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	known := map[string]bool{"early_checkout": true}
	var intent string
	executor := planner.NewExecutor(map[string]planner.Handler{
		"classify": func(context.Context, planner.Node, *planner.State) (any, error) {
			intent = "weather"
			return intent, nil
		},
		"bind": func(context.Context, planner.Node, *planner.State) (any, error) {
			if known[intent] {
				return map[string]any{"outcome": "continue"}, nil
			}
			return map[string]any{"outcome": "terminate"}, nil
		},
		"work": func(context.Context, planner.Node, *planner.State) (any, error) {
			return "done", nil
		},
		"reply": func(context.Context, planner.Node, *planner.State) (any, error) {
			return "replied", nil
		},
	})

	state, err := executor.Execute(context.Background(), graph, nil)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(strings.Join(state.Path, " -> "))
	// Output: classify -> bind -> reply
}
