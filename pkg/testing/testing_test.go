// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abcd1927/AI-coding-demo/pkg/llm"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
)

func TestScenarioProviderServesInOrder(t *testing.T) {
	call := NewToolCall("order_query").WithID("call_1").WithArg("order_id", "HT1").Build()
	p := NewScenarioProvider().
		AddResponse("early_checkout").
		AddToolCallResponse(call).
		AddErrorResponse(errors.New("boom"))

	ctx := context.Background()
	resp, err := p.Chat(ctx, llm.ChatRequest{Messages: []llm.Message{llm.UserMessage("hi")}})
	RequireNoError(t, err, "first call")
	if resp.Content != "early_checkout" {
		t.Fatalf("unexpected content %q", resp.Content)
	}

	resp, err = p.Chat(ctx, llm.ChatRequest{})
	RequireNoError(t, err, "second call")
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Function.Name != "order_query" {
		t.Fatalf("unexpected tool calls %+v", resp.ToolCalls)
	}
	args, err := resp.ToolCalls[0].Args()
	RequireNoError(t, err, "args")
	if args["order_id"] != "HT1" {
		t.Fatalf("unexpected args %v", args)
	}

	if _, err := p.Chat(ctx, llm.ChatRequest{}); err == nil || err.Error() != "boom" {
		t.Fatalf("expected scripted error, got %v", err)
	}
	if _, err := p.Chat(ctx, llm.ChatRequest{}); err == nil || !strings.Contains(err.Error(), "no more scripted responses") {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
	if p.CallCount() != 4 {
		t.Fatalf("expected 4 captured requests, got %d", p.CallCount())
	}
	NewAssertions(t).AssertRequest(&p.Requests()[0]).HasUserMessage("hi").HasMessageCount(1)
}

func TestScenarioProviderFallbackAndCondition(t *testing.T) {
	p := NewScenarioProvider().
		AddScriptedResponse(ScriptedResponse{
			Content:   "skipped",
			Condition: func(req llm.ChatRequest) bool { return len(req.Tools) > 0 },
		}).
		WithFallback(ScriptedResponse{Content: "again"})

	for i := 0; i < 3; i++ {
		resp, err := p.Chat(context.Background(), llm.ChatRequest{})
		RequireNoError(t, err, "chat")
		if resp.Content != "again" {
			t.Fatalf("call %d: expected fallback, got %q", i, resp.Content)
		}
	}
	if p.Remaining() != 0 {
		t.Fatalf("expected queue drained, %d left", p.Remaining())
	}
}

func TestScenarioProviderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScenarioProvider().AddResponse("x").Chat(ctx, llm.ChatRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestActionLogAssertions(t *testing.T) {
	actions := []session.Action{
		{Index: 0, Kind: session.KindIntentRecognition, Status: session.ActionSuccess},
		{Index: 1, Kind: session.KindSkillLoaded, Status: session.ActionError},
		{Index: 2, Kind: session.KindCompleted, Status: session.ActionSuccess},
	}
	a := NewAssertions(t)
	a.AssertActions(actions).
		HasKinds(session.KindIntentRecognition, session.KindSkillLoaded, session.KindCompleted).
		HasContiguousIndices().
		AllTerminal().
		StatusAt(1, session.ActionError)
	if a.Failed() {
		t.Fatalf("assertions failed on a valid log:\n%s", FormatActions(actions))
	}
}
