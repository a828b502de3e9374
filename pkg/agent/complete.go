// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"log/slog"

	"github.com/abcd1927/AI-coding-demo/pkg/session"
)

// complete closes the run: final session status, the completion entry and
// the history record. A history failure is logged and does not change the
// outcome of the run.
func (e *Engine) complete(ctx context.Context, st *runState) (Outcome, error) {
	status := session.StatusCompleted
	actionStatus := session.ActionSuccess
	summary := "agent finished"
	detail := map[string]any(nil)
	if st.failed() {
		status = session.StatusError
		actionStatus = session.ActionError
		summary = "aborted: " + *st.errMessage
		detail = map[string]any{"error": *st.errMessage}
	}

	if err := e.store.UpdateStatus(st.sessionID, status); err != nil {
		return Outcome{}, err
	}
	if _, err := e.store.AddAction(st.sessionID, session.KindCompleted,
		"run completed", summary, actionStatus, detail); err != nil {
		return Outcome{}, err
	}

	var skillName *string
	if st.matchedSkill != nil {
		if skill, ok := e.skills.Get(*st.matchedSkill); ok {
			name := skill.Name
			skillName = &name
		}
	}
	if entry, err := e.store.SaveHistory(ctx, st.sessionID, st.triggerMessage, skillName); err != nil {
		e.logger.Error("agent.history.save_failed",
			slog.String("session_id", st.sessionID),
			slog.String("error", err.Error()),
		)
		e.metrics.RecordError(ctx, err, "history")
	} else {
		e.logger.Debug("agent.history.saved",
			slog.String("session_id", st.sessionID),
			slog.String("execution_id", entry.ExecutionID),
		)
	}

	e.metrics.RecordRun(ctx, string(status))
	payload := ""
	if st.failed() {
		payload = *st.errMessage
	}
	return terminate(actionStatus, payload), nil
}
