// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "github.com/abcd1927/AI-coding-demo/pkg/session"

// runState is the data threaded through one pipeline run.
type runState struct {
	sessionID      string
	triggerMessage string
	matchedIntent  *string
	matchedSkill   *string
	// errMessage is sticky: the first recorded error wins.
	errMessage *string
}

func (s *runState) setError(msg string) {
	if s.errMessage == nil {
		s.errMessage = &msg
	}
}

func (s *runState) failed() bool { return s.errMessage != nil }

// OutcomeKind tells the pipeline whether to go on to the next step.
type OutcomeKind string

const (
	OutcomeContinue  OutcomeKind = "continue"
	OutcomeTerminate OutcomeKind = "terminate"
)

// Outcome is what each step returns. A terminate outcome carries the status
// the step ended with and its payload (the published reply or error text).
type Outcome struct {
	Kind    OutcomeKind
	Status  session.ActionStatus
	Payload string
}

func continueOutcome() Outcome {
	return Outcome{Kind: OutcomeContinue}
}

func terminate(status session.ActionStatus, payload string) Outcome {
	return Outcome{Kind: OutcomeTerminate, Status: status, Payload: payload}
}

// Field exposes the outcome to pipeline edge conditions
// (output.<node>.outcome, .status, .payload).
func (o Outcome) Field(name string) (any, bool) {
	switch name {
	case "outcome":
		return string(o.Kind), true
	case "status":
		return string(o.Status), true
	case "payload":
		return o.Payload, true
	}
	return nil, false
}
