// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
)

type engineFunc func(ctx context.Context, sessionID, message string) error

func (f engineFunc) Run(ctx context.Context, sessionID, message string) error {
	return f(ctx, sessionID, message)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubmitRequiresStart(t *testing.T) {
	r := NewRunner(engineFunc(func(context.Context, string, string) error { return nil }), quietLogger())
	if err := r.Submit(context.Background(), "s1", "hi"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}

func TestSubmitRunsDetachedFromRequest(t *testing.T) {
	var ran atomic.Int32
	r := NewRunner(engineFunc(func(ctx context.Context, sessionID, message string) error {
		if ctx.Err() != nil {
			t.Errorf("run context cancelled early: %v", ctx.Err())
		}
		if sessionID != "s1" || message != "hi" {
			t.Errorf("unexpected run arguments %s %s", sessionID, message)
		}
		ran.Add(1)
		return nil
	}), quietLogger())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	reqCtx, cancel := context.WithCancel(context.Background())
	if err := r.Submit(reqCtx, "s1", "hi"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	cancel()
	r.Wait()

	if ran.Load() != 1 {
		t.Fatalf("expected one run, got %d", ran.Load())
	}
	if r.InFlight() != 0 || r.Running("s1") {
		t.Fatalf("expected no runs in flight")
	}
}

func TestSubmitRejectsConcurrentRunOnSameSession(t *testing.T) {
	release := make(chan struct{})
	r := NewRunner(engineFunc(func(context.Context, string, string) error {
		<-release
		return nil
	}), quietLogger())
	_ = r.Start(context.Background())

	if err := r.Submit(context.Background(), "s1", "a"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := r.Submit(context.Background(), "s1", "b"); !cerrors.Is(err, cerrors.CodeInvalidInput) {
		t.Fatalf("expected busy session error, got %v", err)
	}
	if err := r.Submit(context.Background(), "s2", "c"); err != nil {
		t.Fatalf("other sessions must be accepted: %v", err)
	}
	close(release)
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStopCancelsOnDeadline(t *testing.T) {
	r := NewRunner(engineFunc(func(ctx context.Context, _, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}), quietLogger())
	_ = r.Start(context.Background())
	if err := r.Submit(context.Background(), "s1", "hi"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if r.InFlight() != 0 {
		t.Fatalf("expected runs to be cancelled")
	}
	if err := r.Submit(context.Background(), "s2", "hi"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected submissions refused after stop, got %v", err)
	}
}
