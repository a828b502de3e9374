// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/abcd1927/AI-coding-demo/pkg/skills"
)

// UnknownIntent is the verdict the classifier returns when no skill fits.
const UnknownIntent = "unknown"

// classify asks the model which skill id the trigger message belongs to.
// A model failure is recorded as the run's error; the pipeline still goes
// on so that completion can close the run.
func (e *Engine) classify(ctx context.Context, st *runState) (Outcome, error) {
	action, err := e.store.AddAction(st.sessionID, session.KindIntentRecognition,
		"intent recognition", "analyzing message intent", session.ActionRunning, nil)
	if err != nil {
		return Outcome{}, err
	}

	verdict, err := e.model.Classify(ctx, classificationPrompt(e.skills.List()), st.triggerMessage)
	if err != nil {
		msg := cerrors.Message(err)
		e.logger.Warn("agent.classify.error",
			slog.String("session_id", st.sessionID),
			slog.String("error", msg),
		)
		e.metrics.RecordError(ctx, err, "classification")
		st.setError(msg)
		if err := e.store.UpdateAction(st.sessionID, action.Index, session.ActionError,
			map[string]any{"error": msg}, "intent recognition failed"); err != nil {
			return Outcome{}, err
		}
		return continueOutcome(), nil
	}

	verdict = strings.TrimSpace(verdict)
	st.matchedIntent = &verdict
	if err := e.store.UpdateAction(st.sessionID, action.Index, session.ActionSuccess,
		map[string]any{"intent": verdict}, "identified intent: "+verdict); err != nil {
		return Outcome{}, err
	}
	return continueOutcome(), nil
}

// classificationPrompt lists every skill and asks for a bare skill id.
func classificationPrompt(catalog []skills.Skill) string {
	var b strings.Builder
	b.WriteString("You are an intent classifier for a hotel distribution support desk. ")
	b.WriteString("Identify the business intent of the user's message.\n\n")
	b.WriteString("Available intents:\n")
	for _, skill := range catalog {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", skill.ID, skill.Name, skill.Description)
	}
	b.WriteString("\nRules:\n")
	b.WriteString("1. If the message matches one of the intents, answer with its skill_id.\n")
	fmt.Fprintf(&b, "2. If no intent matches, answer with %s.\n", UnknownIntent)
	b.WriteString("3. Answer with the skill_id only, without any other text.\n")
	return b.String()
}
