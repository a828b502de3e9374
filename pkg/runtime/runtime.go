// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package runtime runs agent pipelines in the background and tracks them
// for graceful shutdown.
package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotStarted is returned by Submit before Start or after Stop.
var ErrNotStarted = errors.New("runtime not started")

// Engine runs one message through the pipeline. *agent.Engine satisfies it.
type Engine interface {
	Run(ctx context.Context, sessionID, message string) error
}

// Runner launches runs detached from the submitting request.
type Runner struct {
	engine Engine
	logger *slog.Logger
	tracer trace.Tracer

	mu       sync.Mutex
	started  bool
	baseCtx  context.Context
	cancel   context.CancelFunc
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

// NewRunner creates a stopped runner.
func NewRunner(engine Engine, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		engine:   engine,
		logger:   logger,
		tracer:   otel.Tracer("concierge/runtime"),
		inFlight: make(map[string]struct{}),
	}
}

// Start makes the runner accept submissions. Runs inherit the values of ctx
// but are only cancelled by Stop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	r.baseCtx, r.cancel = context.WithCancel(context.WithoutCancel(ctx))
	r.started = true
	return nil
}

// Submit starts a run for sessionID and returns immediately. The span of
// the submitting request is linked from the run's span.
func (r *Runner) Submit(ctx context.Context, sessionID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return ErrNotStarted
	}
	if _, busy := r.inFlight[sessionID]; busy {
		return cerrors.Newf(cerrors.CodeInvalidInput, "session %s already has a run in progress", sessionID)
	}
	r.inFlight[sessionID] = struct{}{}

	runCtx, span := r.tracer.Start(r.baseCtx, "Runtime.Run",
		trace.WithLinks(trace.LinkFromContext(ctx)),
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer span.End()
		defer r.release(sessionID)

		r.logger.Info("runtime.run.start", slog.String("session_id", sessionID))
		if err := r.engine.Run(runCtx, sessionID, message); err != nil {
			span.RecordError(err)
			r.logger.Error("runtime.run.error",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			return
		}
		r.logger.Info("runtime.run.complete", slog.String("session_id", sessionID))
	}()
	return nil
}

func (r *Runner) release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, sessionID)
}

// Running reports whether sessionID has a run in progress.
func (r *Runner) Running(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inFlight[sessionID]
	return ok
}

// InFlight returns the number of runs in progress.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inFlight)
}

// Wait blocks until every submitted run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Stop refuses new submissions and waits for in-flight runs. When ctx
// expires first the remaining runs are cancelled and ctx.Err is returned.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	cancel := r.cancel
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cancel()
		return nil
	case <-ctx.Done():
		r.logger.Warn("runtime.stop.timeout", slog.Int("in_flight", r.InFlight()))
		cancel()
		<-done
		return ctx.Err()
	}
}
