// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"strings"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// Client binds a Provider to a model and sampling temperature.
type Client struct {
	Provider    Provider
	Model       string
	Temperature float64
}

// NewClient returns a Client for model on provider.
func NewClient(provider Provider, model string, temperature float64) *Client {
	return &Client{Provider: provider, Model: model, Temperature: temperature}
}

// Classify sends a single system + user exchange without tools and returns
// the trimmed text answer.
func (c *Client) Classify(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := c.chat(ctx, "LLM.Classify", []Message{
		SystemMessage(systemPrompt),
		UserMessage(userMessage),
	}, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// Converse sends the full conversation with the tool catalog.
func (c *Client) Converse(ctx context.Context, turns []Message, tools []Tool) (*ChatResponse, error) {
	return c.chat(ctx, "LLM.Converse", turns, tools)
}

func (c *Client) chat(ctx context.Context, spanName string, msgs []Message, tools []Tool) (*ChatResponse, error) {
	if c == nil || c.Provider == nil {
		return nil, cerrors.New(cerrors.CodeLLMError, "no model provider configured", nil)
	}
	ctx, span := otel.Tracer("concierge/llm").Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(telemetry.LLMAttributes(c.Model, len(msgs), 0)...)

	resp, err := c.Provider.Chat(ctx, ChatRequest{
		Model:       c.Model,
		Messages:    msgs,
		Tools:       tools,
		Temperature: c.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, cerrors.New(cerrors.CodeLLMError, "model call failed", err)
	}
	if resp == nil {
		resp = &ChatResponse{}
	}
	span.SetAttributes(telemetry.LLMAttributes(c.Model, len(msgs), len(resp.ToolCalls))...)
	span.SetAttributes(telemetry.LLMUsageAttributes(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)...)
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
