// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/llm"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/abcd1927/AI-coding-demo/pkg/telemetry"
	"github.com/abcd1927/AI-coding-demo/pkg/tools"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tool names the loop reacts to beyond recording the call.
const (
	toolOrderQuery  = "order_query"
	toolMessageSend = "message_send"
)

// UpstreamReplyPrefix starts the user turn that carries an upstream reply
// back into the conversation.
const UpstreamReplyPrefix = "upstream supplier reply: "

// loopState is the conversation of one tool loop.
type loopState struct {
	turns     []llm.Message
	iteration int
	// correlationID is the supplier order id seen in the last successful
	// order_query; it keys the upstream reply.
	correlationID string
}

// toolLoop drives the model with the bound skill as system prompt until it
// answers without tool calls, a tool fails, or the iteration ceiling is hit.
func (e *Engine) toolLoop(ctx context.Context, st *runState) (Outcome, error) {
	skillID := ""
	if st.matchedSkill != nil {
		skillID = *st.matchedSkill
	}
	skill, ok := e.skills.Get(skillID)
	if !ok {
		return e.fail(st, fmt.Sprintf("skill %s not found", skillID))
	}

	catalog := e.tools.LLMTools()
	ls := &loopState{turns: []llm.Message{
		llm.SystemMessage(skill.Content),
		llm.UserMessage(st.triggerMessage),
	}}

	for {
		if ls.iteration >= e.maxIterations {
			return e.iterationLimit(ctx, st, ls)
		}
		ls.iteration++

		resp, err := e.model.Converse(ctx, ls.turns, catalog)
		if err != nil {
			e.metrics.RecordError(ctx, err, "tool_loop")
			e.logger.Warn("agent.loop.model_error",
				slog.String("session_id", st.sessionID),
				slog.Int("iteration", ls.iteration),
				slog.String("error", err.Error()),
			)
			e.metrics.RecordIterations(ctx, ls.iteration)
			return e.fail(st, cerrors.Message(err))
		}
		resp.ToolCalls = assignCallIDs(resp.ToolCalls, ls.iteration)
		ls.turns = append(ls.turns, resp.Message())

		if len(resp.ToolCalls) == 0 {
			e.metrics.RecordIterations(ctx, ls.iteration)
			if strings.TrimSpace(resp.Content) == "" {
				return terminate(session.ActionSuccess, ""), nil
			}
			if err := e.publish(st.sessionID, resp.Content); err != nil {
				return Outcome{}, err
			}
			return terminate(session.ActionSuccess, resp.Content), nil
		}

		// Upstream replies are injected after every tool result of the
		// batch so each tool call is answered before the next user turn.
		var injected []llm.Message
		for _, call := range resp.ToolCalls {
			outcome, inject, err := e.callTool(ctx, st, ls, call)
			if err != nil {
				return Outcome{}, err
			}
			if outcome != nil {
				e.metrics.RecordIterations(ctx, ls.iteration)
				return *outcome, nil
			}
			injected = append(injected, inject...)
		}
		ls.turns = append(ls.turns, injected...)
	}
}

func (e *Engine) iterationLimit(ctx context.Context, st *runState, ls *loopState) (Outcome, error) {
	msg := fmt.Sprintf("exceeded maximum iteration count %d", e.maxIterations)
	if _, err := e.store.AddAction(st.sessionID, session.KindToolCall, "iteration limit", msg,
		session.ActionError, map[string]any{"max_iterations": e.maxIterations}); err != nil {
		return Outcome{}, err
	}
	e.logger.Warn("agent.loop.iteration_limit",
		slog.String("session_id", st.sessionID),
		slog.Int("max_iterations", e.maxIterations),
	)
	e.metrics.RecordIterations(ctx, ls.iteration)
	e.metrics.RecordError(ctx, cerrors.New(cerrors.CodeIterationLimit, msg, nil), "tool_loop")
	return e.fail(st, msg)
}

// callTool records, executes and answers one tool call. A non-nil outcome
// ends the loop; the returned messages are injected after the batch.
func (e *Engine) callTool(ctx context.Context, st *runState, ls *loopState, call llm.ToolCall) (*Outcome, []llm.Message, error) {
	name := call.Function.Name
	args, argErr := call.Args()
	if args == nil {
		args = map[string]any{}
	}
	argsJSON := encodeArgs(args)

	action, err := e.store.AddAction(st.sessionID, session.KindToolCall, "call tool: "+name,
		argsJSON, session.ActionRunning, map[string]any{"input": args})
	if err != nil {
		return nil, nil, err
	}

	ctx, span := e.tracer.Start(ctx, "Agent.Tool.Call",
		trace.WithAttributes(telemetry.ToolCallAttributes(name, call.ID, action.Index, ls.iteration)...),
	)
	defer span.End()

	result, callErr := e.invoke(ctx, name, args, argErr)
	if callErr != nil {
		msg := cerrors.Message(callErr)
		span.RecordError(callErr)
		span.SetStatus(codes.Error, msg)
		e.logger.Error("agent.tool.error",
			slog.String("session_id", st.sessionID),
			slog.String("tool", name),
			slog.String("call_id", call.ID),
			slog.String("error", msg),
		)
		e.metrics.RecordToolCall(ctx, name, "error")
		e.metrics.RecordError(ctx, callErr, "tool")

		if err := e.store.UpdateAction(st.sessionID, action.Index, session.ActionError,
			map[string]any{"input": args, "error": msg}, ""); err != nil {
			return nil, nil, err
		}
		ls.turns = append(ls.turns, llm.ToolMessage(call.ID, errorPayload(msg)))
		outcome, err := e.fail(st, msg)
		return &outcome, nil, err
	}

	payload := result.JSON()
	span.SetAttributes(telemetry.ToolCallArgsResult(argsJSON, payload)...)
	ls.turns = append(ls.turns, llm.ToolMessage(call.ID, payload))

	if result.Error {
		span.SetStatus(codes.Error, result.Message)
		e.logger.Warn("agent.tool.failed",
			slog.String("session_id", st.sessionID),
			slog.String("tool", name),
			slog.String("error_type", result.ErrorType),
			slog.String("message", result.Message),
		)
		e.metrics.RecordToolCall(ctx, name, "error")
		if err := e.store.UpdateAction(st.sessionID, action.Index, session.ActionError,
			map[string]any{"input": args, "output": result.Map()}, ""); err != nil {
			return nil, nil, err
		}
		outcome, err := e.fail(st, result.Message)
		return &outcome, nil, err
	}

	span.SetStatus(codes.Ok, "")
	e.metrics.RecordToolCall(ctx, name, "success")
	if err := e.store.UpdateAction(st.sessionID, action.Index, session.ActionSuccess,
		map[string]any{"input": args, "output": result.Map()}, ""); err != nil {
		return nil, nil, err
	}

	if name == toolOrderQuery {
		if id, ok := result.Data["supplier_order_id"].(string); ok && id != "" {
			ls.correlationID = id
		}
	}
	if name == toolMessageSend && args["channel"] == string(session.ChannelUpstream) {
		return e.awaitUpstream(ctx, st, ls)
	}
	return nil, nil, nil
}

func (e *Engine) invoke(ctx context.Context, name string, args map[string]any, argErr error) (tools.Result, error) {
	if argErr != nil {
		return tools.Result{}, cerrors.New(cerrors.CodeInvalidInput, "invalid arguments for tool "+name, argErr)
	}
	tool, ok := e.tools.Get(name)
	if !ok {
		return tools.Result{}, cerrors.Newf(cerrors.CodeToolFailure, "tool %s not found", name)
	}
	return tool.Call(ctx, args)
}

// awaitUpstream records the wait for the supplier and turns its reply into
// a user turn for the next model call.
func (e *Engine) awaitUpstream(ctx context.Context, st *runState, ls *loopState) (*Outcome, []llm.Message, error) {
	wait, err := e.store.AddAction(st.sessionID, session.KindWaiting, "waiting for upstream reply",
		"waiting for the supplier to process the request", session.ActionRunning, nil)
	if err != nil {
		return nil, nil, err
	}

	reply, err := e.external.Reply(ctx, ls.correlationID)
	if err != nil {
		msg := cerrors.Message(err)
		e.metrics.RecordError(ctx, err, "upstream")
		if err := e.store.UpdateAction(st.sessionID, wait.Index, session.ActionError,
			map[string]any{"error": msg}, ""); err != nil {
			return nil, nil, err
		}
		outcome, err := e.fail(st, msg)
		return &outcome, nil, err
	}

	if err := e.store.UpdateAction(st.sessionID, wait.Index, session.ActionSuccess,
		map[string]any{"reply": reply}, "supplier replied"); err != nil {
		return nil, nil, err
	}
	return nil, []llm.Message{llm.UserMessage(UpstreamReplyPrefix + reply)}, nil
}

// assignCallIDs fills in ids the model left empty so every tool result
// can reference its call.
func assignCallIDs(calls []llm.ToolCall, iteration int) []llm.ToolCall {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = fmt.Sprintf("call_%d_%d", iteration, i)
		}
		if calls[i].Type == "" {
			calls[i].Type = llm.ToolTypeFunction
		}
	}
	return calls
}

func encodeArgs(args map[string]any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func errorPayload(msg string) string {
	raw, _ := json.Marshal(map[string]any{"error": true, "message": msg})
	return string(raw)
}
