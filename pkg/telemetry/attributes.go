// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry bootstrap, trace-aware logging
// and the attribute keys and metrics used across the agent pipeline.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys. Names follow OpenTelemetry conventions where one exists.
const (
	// Session/run attributes
	AttrSessionID     = "concierge.session.id"
	AttrRunStatus     = "concierge.run.status"
	AttrRunIteration  = "concierge.run.iteration"
	AttrRunMaxIter    = "concierge.run.max_iterations"
	AttrTriggerLength = "concierge.run.trigger_length"

	// Skill attributes
	AttrIntent    = "concierge.intent"
	AttrSkillID   = "concierge.skill.id"
	AttrSkillName = "concierge.skill.name"

	// Tool attributes
	AttrToolName       = "concierge.tool.name"
	AttrToolCallID     = "concierge.tool.call_id"
	AttrToolArgs       = "concierge.tool.arguments"
	AttrToolResult     = "concierge.tool.result"
	AttrToolDurationMs = "concierge.tool.duration_ms"
	AttrToolStatus     = "concierge.tool.status"
	AttrActionIndex    = "concierge.action.index"

	// LLM attributes (gen_ai conventions)
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMMessages     = "gen_ai.request.messages"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrLLMToolCalls    = "gen_ai.tool_calls"

	// Planner attributes
	AttrNodeID   = "concierge.node.id"
	AttrNodeType = "concierge.node.type"
	AttrGraphID  = "concierge.graph.id"
)

// maxAttrLen bounds free-text attribute values.
const maxAttrLen = 500

// RunAttributes returns attributes for a pipeline run span.
func RunAttributes(sessionID string, triggerLength, maxIter int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrSessionID, sessionID),
		attribute.Int(AttrTriggerLength, triggerLength),
	}
	if maxIter > 0 {
		attrs = append(attrs, attribute.Int(AttrRunMaxIter, maxIter))
	}
	return attrs
}

// SkillAttributes returns attributes describing a bound skill.
func SkillAttributes(intent, skillID, skillName string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(AttrIntent, intent)}
	if skillID != "" {
		attrs = append(attrs, attribute.String(AttrSkillID, skillID))
	}
	if skillName != "" {
		attrs = append(attrs, attribute.String(AttrSkillName, skillName))
	}
	return attrs
}

// ToolCallAttributes returns attributes for a tool call span.
func ToolCallAttributes(name, callID string, actionIndex int, iteration int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrToolName, name),
		attribute.Int(AttrActionIndex, actionIndex),
	}
	if callID != "" {
		attrs = append(attrs, attribute.String(AttrToolCallID, callID))
	}
	if iteration > 0 {
		attrs = append(attrs, attribute.Int(AttrRunIteration, iteration))
	}
	return attrs
}

// ToolCallArgsResult returns truncated argument and result attributes.
func ToolCallArgsResult(args, result string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{}
	if args != "" {
		attrs = append(attrs, attribute.String(AttrToolArgs, truncate(args, maxAttrLen)))
	}
	if result != "" {
		attrs = append(attrs, attribute.String(AttrToolResult, truncate(result, maxAttrLen)))
	}
	return attrs
}

// LLMAttributes returns attributes for a model call span.
func LLMAttributes(model string, msgCount, toolCallCount int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrLLMMessages, msgCount),
	}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrLLMModel, model))
	}
	if toolCallCount > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMToolCalls, toolCallCount))
	}
	return attrs
}

// LLMUsageAttributes returns token usage attributes; zero counts are omitted.
func LLMUsageAttributes(inputTokens, outputTokens int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{}
	if inputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensInput, inputTokens))
	}
	if outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensOutput, outputTokens))
	}
	return attrs
}

// NodeAttributes returns attributes for a planner node span.
func NodeAttributes(graphID, nodeID, nodeType string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrNodeID, nodeID),
		attribute.String(AttrNodeType, nodeType),
	}
	if graphID != "" {
		attrs = append(attrs, attribute.String(AttrGraphID, graphID))
	}
	return attrs
}

func truncate(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "..."
}
