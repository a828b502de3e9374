// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestRunAttributes(t *testing.T) {
	attrs := RunAttributes("session-1", 12, 20)
	assertAttributes(t, attrs, map[string]any{
		AttrSessionID:     "session-1",
		AttrTriggerLength: 12,
		AttrRunMaxIter:    20,
	})
}

func TestSkillAttributesOmitEmpty(t *testing.T) {
	attrs := SkillAttributes("unknown", "", "")
	if len(attrs) != 1 {
		t.Fatalf("expected only the intent attribute, got %v", attrs)
	}
	attrs = SkillAttributes("early_checkout", "early_checkout", "Early checkout")
	assertAttributes(t, attrs, map[string]any{
		AttrIntent:    "early_checkout",
		AttrSkillID:   "early_checkout",
		AttrSkillName: "Early checkout",
	})
}

func TestToolCallAttributes(t *testing.T) {
	attrs := ToolCallAttributes("order_query", "call-1", 3, 2)
	assertAttributes(t, attrs, map[string]any{
		AttrToolName:     "order_query",
		AttrToolCallID:   "call-1",
		AttrActionIndex:  3,
		AttrRunIteration: 2,
	})
}

func TestToolCallArgsResultTruncates(t *testing.T) {
	long := strings.Repeat("x", maxAttrLen+10)
	attrs := ToolCallArgsResult(long, "ok")
	found := map[string]string{}
	for _, attr := range attrs {
		found[string(attr.Key)] = attr.Value.AsString()
	}
	if got := found[AttrToolArgs]; len(got) != maxAttrLen+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated args, got len %d", len(got))
	}
	if found[AttrToolResult] != "ok" {
		t.Fatalf("unexpected result attribute %q", found[AttrToolResult])
	}
}

func TestLLMAttributes(t *testing.T) {
	assertAttributes(t, LLMAttributes("qwen", 4, 2), map[string]any{
		AttrLLMModel:     "qwen",
		AttrLLMMessages:  4,
		AttrLLMToolCalls: 2,
	})
	if attrs := LLMUsageAttributes(0, 0); len(attrs) != 0 {
		t.Fatalf("expected no usage attributes, got %v", attrs)
	}
}

func TestNodeAttributes(t *testing.T) {
	assertAttributes(t, NodeAttributes("pipeline", "classify", "classify"), map[string]any{
		AttrGraphID:  "pipeline",
		AttrNodeID:   "classify",
		AttrNodeType: "classify",
	})
}

func assertAttributes(t *testing.T, attrs []attribute.KeyValue, expected map[string]any) {
	t.Helper()

	found := make(map[string]attribute.KeyValue)
	for _, attr := range attrs {
		found[string(attr.Key)] = attr
	}

	for key, expectedVal := range expected {
		attr, ok := found[key]
		if !ok {
			t.Errorf("missing attribute %s", key)
			continue
		}

		var actualVal any
		switch attr.Value.Type() {
		case attribute.STRING:
			actualVal = attr.Value.AsString()
		case attribute.INT64:
			actualVal = int(attr.Value.AsInt64())
		case attribute.FLOAT64:
			actualVal = attr.Value.AsFloat64()
		case attribute.BOOL:
			actualVal = attr.Value.AsBool()
		}

		if actualVal != expectedVal {
			t.Errorf("attribute %s: got %v, want %v", key, actualVal, expectedVal)
		}
	}
}
