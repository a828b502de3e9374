// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/abcd1927/AI-coding-demo/pkg/core"
	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/planner"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/abcd1927/AI-coding-demo/pkg/telemetry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Node types the engine registers handlers for.
const (
	NodeClassification = "classification"
	NodeSkillBinding   = "skill_binding"
	NodeToolLoop       = "tool_loop"
	NodeCompletion     = "completion"
)

// Sender names and reply prefixes published on the chat channel.
const (
	SenderUser        = "user"
	SenderAgent       = "agent"
	FailurePrefix     = "processing failed: "
	SystemErrorPrefix = "system error: "
)

//go:embed pipeline.yaml
var pipelineYAML []byte

// DefaultPipeline parses the embedded pipeline graph.
func DefaultPipeline() (*planner.Graph, error) {
	return planner.ParseYAML(pipelineYAML)
}

type step func(ctx context.Context, st *runState) (Outcome, error)

// Run processes one inbound message for sessionID. Step failures are
// recorded in the action log and published as the final reply; Run only
// returns an error when the session is unknown or the run escaped the
// pipeline (store failure, panic), in which case the session has been
// marked failed with a system-error reply.
func (e *Engine) Run(ctx context.Context, sessionID, message string) (err error) {
	ctx, _ = core.EnsureRunID(ctx)
	ctx = core.WithSessionID(ctx, sessionID)
	ctx, span := e.tracer.Start(ctx, "Agent.Run",
		trace.WithAttributes(telemetry.RunAttributes(sessionID, len(message), e.maxIterations)...),
	)
	defer span.End()

	log := e.logger
	log.InfoContext(ctx, "agent.run.start", slog.Int("trigger_length", len(message)))

	if err := e.store.UpdateStatus(sessionID, session.StatusRunning); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WarnContext(ctx, "agent.run.rejected", slog.String("error", err.Error()))
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = e.abort(ctx, log, sessionID, cerrors.Newf(cerrors.CodeInternal, "panic: %v", r))
		}
	}()

	if _, err := e.store.AddMessage(sessionID, session.ChannelChat, SenderUser, message); err != nil {
		return e.abort(ctx, log, sessionID, err)
	}

	st := &runState{sessionID: sessionID, triggerMessage: message}
	executor := planner.NewExecutor(map[string]planner.Handler{
		NodeClassification: e.node(st, e.classify),
		NodeSkillBinding:   e.node(st, e.bind),
		NodeToolLoop:       e.node(st, e.toolLoop),
		NodeCompletion:     e.node(st, e.complete),
	})
	executor.AuditHook = func(ctx context.Context, event planner.AuditEvent) {
		log.DebugContext(ctx, "agent.pipeline.node",
			slog.String("node_id", event.NodeID),
			slog.String("node_type", event.NodeType),
			slog.String("status", event.Status),
			slog.String("error", event.Error),
		)
	}

	state, execErr := executor.Execute(ctx, e.graph, planner.NewState())
	if execErr != nil {
		return e.abort(ctx, log, sessionID, execErr)
	}

	status := session.StatusCompleted
	if st.failed() {
		status = session.StatusError
	}
	log.InfoContext(ctx, "agent.run.finished",
		slog.String("status", string(status)),
		slog.Any("path", state.Path),
	)
	span.SetStatus(codes.Ok, "")
	return nil
}

func (e *Engine) node(st *runState, fn step) planner.Handler {
	return func(ctx context.Context, _ planner.Node, _ *planner.State) (any, error) {
		return fn(ctx, st)
	}
}

// abort is the outer safety net: it marks the session failed and
// publishes a system-error reply. Store failures here are only logged.
func (e *Engine) abort(ctx context.Context, log *slog.Logger, sessionID string, cause error) error {
	msg := cerrors.Message(cause)
	log.ErrorContext(ctx, "agent.run.error", slog.String("error", msg))

	span := trace.SpanFromContext(ctx)
	span.RecordError(cause)
	span.SetStatus(codes.Error, msg)
	e.metrics.RecordError(ctx, cause, "agent")
	e.metrics.RecordRun(ctx, string(session.StatusError))

	if err := e.store.UpdateStatus(sessionID, session.StatusError); err != nil {
		log.WarnContext(ctx, "agent.run.abort.status", slog.String("error", err.Error()))
	}
	if err := e.publish(sessionID, SystemErrorPrefix+msg); err != nil {
		log.WarnContext(ctx, "agent.run.abort.reply", slog.String("error", err.Error()))
	}
	return fmt.Errorf("agent run %s: %w", sessionID, cause)
}

// publish sets the final reply and echoes it on the chat channel.
func (e *Engine) publish(sessionID, reply string) error {
	if err := e.store.SetFinalReply(sessionID, reply); err != nil {
		return err
	}
	_, err := e.store.AddMessage(sessionID, session.ChannelChat, SenderAgent, reply)
	return err
}

// fail records msg as the run's error and publishes the failure reply.
func (e *Engine) fail(st *runState, msg string) (Outcome, error) {
	st.setError(msg)
	if err := e.publish(st.sessionID, FailurePrefix+msg); err != nil {
		return Outcome{}, err
	}
	return terminate(session.ActionError, msg), nil
}
