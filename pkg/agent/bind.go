// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/abcd1927/AI-coding-demo/pkg/skills"
	"github.com/abcd1927/AI-coding-demo/pkg/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// UnsupportedPrefix starts the reply published when no skill matches.
const UnsupportedPrefix = "Unable to handle this request. Currently supported scenarios: "

// bind resolves the classified intent to a skill. A miss, including a
// null intent after a failed classification, publishes the list of
// supported scenarios and skips the tool loop; a miss alone is not an
// error of the run.
func (e *Engine) bind(ctx context.Context, st *runState) (Outcome, error) {
	intent := ""
	if st.matchedIntent != nil {
		intent = *st.matchedIntent
	}

	skill, ok := e.skills.Get(intent)
	if !ok {
		if _, err := e.store.AddAction(st.sessionID, session.KindSkillLoaded,
			"skill loading", "no skill matched: "+intent, session.ActionError,
			map[string]any{"intent": intent}); err != nil {
			return Outcome{}, err
		}
		reply := unsupportedReply(e.skills.List())
		if err := e.publish(st.sessionID, reply); err != nil {
			return Outcome{}, err
		}
		e.logger.Info("agent.skill.unmatched",
			slog.String("session_id", st.sessionID),
			slog.String("intent", intent),
		)
		return terminate(session.ActionSuccess, reply), nil
	}

	trace.SpanFromContext(ctx).SetAttributes(telemetry.SkillAttributes(intent, skill.ID, skill.Name)...)
	if _, err := e.store.AddAction(st.sessionID, session.KindSkillLoaded,
		"skill loading", "loaded skill: "+skill.Name, session.ActionSuccess,
		map[string]any{"skill_id": skill.ID, "skill_name": skill.Name}); err != nil {
		return Outcome{}, err
	}
	st.matchedSkill = &skill.ID
	e.logger.Info("agent.skill.bound",
		slog.String("session_id", st.sessionID),
		slog.String("skill_id", skill.ID),
	)
	return continueOutcome(), nil
}

func unsupportedReply(catalog []skills.Skill) string {
	if len(catalog) == 0 {
		return UnsupportedPrefix + "none"
	}
	names := make([]string, len(catalog))
	for i, skill := range catalog {
		names[i] = skill.Name
	}
	return UnsupportedPrefix + strings.Join(names, ", ")
}
