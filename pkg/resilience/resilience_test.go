// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/llm"
)

func fastRetry(n int) RetryConfig {
	return DefaultRetryConfig().WithMaxAttempts(n).WithInitialDelay(time.Millisecond)
}

func TestRetrySuccess(t *testing.T) {
	attempts := 0
	err := fastRetry(3).Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	err := fastRetry(2).Do(context.Background(), func() error {
		attempts++
		return errors.New("always fails")
	})
	if err == nil || err.Error() != "always fails" {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryNonRecoverable(t *testing.T) {
	attempts := 0
	err := fastRetry(3).Do(context.Background(), func() error {
		attempts++
		return cerrors.New(cerrors.CodeInvalidInput, "bad request", nil)
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := DefaultRetryConfig().WithInitialDelay(time.Hour).Do(ctx, func() error {
		attempts++
		cancel()
		return errors.New("transient")
	})
	if !cerrors.Is(err, cerrors.CodeTimeout) {
		t.Fatalf("expected timeout code, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestIsRecoverable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection reset"), true},
		{context.Canceled, false},
		{context.DeadlineExceeded, false},
		{cerrors.New(cerrors.CodeLLMError, "x", nil).WithRecoverable(true), true},
		{cerrors.New(cerrors.CodeLLMError, "x", nil), false},
		{cerrors.New(cerrors.CodeLLMError, "open", ErrCircuitOpen).WithRecoverable(true), false},
	}
	for _, tc := range cases {
		if got := IsRecoverable(tc.err); got != tc.want {
			t.Errorf("%v: expected %v, got %v", tc.err, tc.want, got)
		}
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, Cooldown: time.Minute})
	cb.now = func() time.Time { return now }
	ctx := context.Background()
	fail := func() error { return errors.New("down") }

	_ = cb.Call(ctx, fail)
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after one failure")
	}
	_ = cb.Call(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatalf("expected open after threshold")
	}

	called := false
	err := cb.Call(ctx, func() error { called = true; return nil })
	if called || !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected rejection while open, got %v", err)
	}

	now = now.Add(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open after cooldown, got %s", cb.State())
	}
	if err := cb.Call(ctx, func() error { return nil }); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after successful trial, got %s", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cb.Call(ctx, func() error { return errors.New("down") })
	now = now.Add(time.Second)
	_ = cb.Call(ctx, func() error { return errors.New("still down") })
	if cb.State() != StateOpen {
		t.Fatalf("expected open after failed trial, got %s", cb.State())
	}
	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after reset")
	}
}

func TestCircuitBreakerIgnoresCallerCancellation(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = cb.Call(ctx, func() error { return ctx.Err() })
	if cb.State() != StateClosed {
		t.Fatalf("cancellation must not open the circuit")
	}
}

func TestProviderRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	next := &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return &llm.ChatResponse{Content: "early_checkout"}, nil
	}}
	p := NewProvider(next, WithRetry(fastRetry(3)))

	resp, err := p.Chat(context.Background(), llm.ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "early_checkout" || calls.Load() != 2 {
		t.Fatalf("unexpected result %q after %d calls", resp.Content, calls.Load())
	}
}

func TestProviderStopsAtOpenCircuit(t *testing.T) {
	var calls atomic.Int32
	next := &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	}}
	p := NewProvider(next,
		WithRetry(fastRetry(5)),
		WithBreaker(NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, Cooldown: time.Hour})),
	)

	_, err := p.Chat(context.Background(), llm.ChatRequest{})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 backend calls, got %d", calls.Load())
	}
	if p.Breaker().State() != StateOpen {
		t.Fatalf("expected breaker open")
	}
}
