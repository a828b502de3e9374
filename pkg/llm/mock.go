// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"sync"
)

// MockProvider answers every request with the same canned response and
// remembers what it was asked. ChatFunc, when set, replaces the canned
// answer entirely.
type MockProvider struct {
	Response  string
	ToolCalls []ToolCall
	Err       error
	ChatFunc  func(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	mu       sync.Mutex
	requests []ChatRequest
}

// Chat implements Provider.
func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prompt := 0
	for _, msg := range req.Messages {
		prompt += len(msg.Content)
	}
	return &ChatResponse{
		Content:   m.Response,
		ToolCalls: append([]ToolCall(nil), m.ToolCalls...),
		Usage: Usage{
			PromptTokens:     prompt,
			CompletionTokens: len(m.Response),
			TotalTokens:      prompt + len(m.Response),
		},
	}, nil
}

// Requests returns the requests received so far.
func (m *MockProvider) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatRequest(nil), m.requests...)
}
