// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"log/slog"

	"github.com/abcd1927/AI-coding-demo/pkg/llm"
)

// Provider wraps an llm.Provider with retries inside a circuit breaker.
// A request is rejected outright while the circuit is open.
type Provider struct {
	next    llm.Provider
	retry   RetryConfig
	breaker *CircuitBreaker
	logger  *slog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithRetry sets the retry policy.
func WithRetry(rc RetryConfig) ProviderOption {
	return func(p *Provider) { p.retry = rc }
}

// WithBreaker sets the circuit breaker.
func WithBreaker(cb *CircuitBreaker) ProviderOption {
	return func(p *Provider) {
		if cb != nil {
			p.breaker = cb
		}
	}
}

// WithLogger sets the logger for retry events.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider guards next with DefaultRetryConfig and a default breaker.
func NewProvider(next llm.Provider, opts ...ProviderOption) *Provider {
	p := &Provider{
		next:    next,
		retry:   DefaultRetryConfig(),
		breaker: NewCircuitBreaker(CircuitBreakerConfig{}),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Chat implements llm.Provider.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	var resp *llm.ChatResponse
	attempt := 0
	err := p.retry.Do(ctx, func() error {
		attempt++
		return p.breaker.Call(ctx, func() error {
			var err error
			resp, err = p.next.Chat(ctx, req)
			if err != nil {
				p.logger.WarnContext(ctx, "llm.call.failed",
					slog.Int("attempt", attempt),
					slog.String("model", req.Model),
					slog.String("error", err.Error()),
				)
			}
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Breaker returns the circuit breaker guarding the backend.
func (p *Provider) Breaker() *CircuitBreaker { return p.breaker }
