// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/abcd1927/AI-coding-demo/pkg/llm"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
)

// Assertions provides assertion helpers for testing.
type Assertions struct {
	t      testing.TB
	failed bool
}

// NewAssertions creates a new assertions helper.
func NewAssertions(t testing.TB) *Assertions {
	return &Assertions{t: t}
}

// Failed returns true if any assertion has failed.
func (a *Assertions) Failed() bool {
	return a.failed
}

func (a *Assertions) fail(format string, args ...any) {
	a.t.Helper()
	a.t.Errorf(format, args...)
	a.failed = true
}

// AssertEqual asserts that two values are equal.
func (a *Assertions) AssertEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected != actual {
		a.fail("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertContains asserts that s contains substr.
func (a *Assertions) AssertContains(s, substr, msg string) {
	a.t.Helper()
	if !strings.Contains(s, substr) {
		a.fail("%s: expected %q to contain %q", msg, s, substr)
	}
}

// AssertNoError asserts that err is nil.
func (a *Assertions) AssertNoError(err error, msg string) {
	a.t.Helper()
	if err != nil {
		a.fail("%s: unexpected error: %v", msg, err)
	}
}

// AssertErrorContains asserts that err is set and mentions substr.
func (a *Assertions) AssertErrorContains(err error, substr, msg string) {
	a.t.Helper()
	if err == nil {
		a.fail("%s: expected error containing %q", msg, substr)
		return
	}
	if !strings.Contains(err.Error(), substr) {
		a.fail("%s: expected error containing %q, got %v", msg, substr, err)
	}
}

// RequestAssertions checks a captured model request.
type RequestAssertions struct {
	a   *Assertions
	req *llm.ChatRequest
}

// AssertRequest starts a chain of request assertions.
func (a *Assertions) AssertRequest(req *llm.ChatRequest) *RequestAssertions {
	a.t.Helper()
	if req == nil {
		a.fail("expected a captured request")
		req = &llm.ChatRequest{}
	}
	return &RequestAssertions{a: a, req: req}
}

// HasMessageCount asserts the number of turns sent.
func (r *RequestAssertions) HasMessageCount(count int) *RequestAssertions {
	r.a.t.Helper()
	if len(r.req.Messages) != count {
		r.a.fail("expected %d messages, got %d", count, len(r.req.Messages))
	}
	return r
}

// HasToolCount asserts the size of the offered tool catalogue.
func (r *RequestAssertions) HasToolCount(count int) *RequestAssertions {
	r.a.t.Helper()
	if len(r.req.Tools) != count {
		r.a.fail("expected %d tools, got %d", count, len(r.req.Tools))
	}
	return r
}

// HasSystemMessage asserts some system turn contains the text.
func (r *RequestAssertions) HasSystemMessage(contains string) *RequestAssertions {
	r.a.t.Helper()
	if !r.hasTurn(llm.RoleSystem, contains) {
		r.a.fail("expected a system message containing %q", contains)
	}
	return r
}

// HasUserMessage asserts some user turn contains the text.
func (r *RequestAssertions) HasUserMessage(contains string) *RequestAssertions {
	r.a.t.Helper()
	if !r.hasTurn(llm.RoleUser, contains) {
		r.a.fail("expected a user message containing %q", contains)
	}
	return r
}

// HasToolResult asserts a tool turn answers the given call id.
func (r *RequestAssertions) HasToolResult(callID string) *RequestAssertions {
	r.a.t.Helper()
	for _, msg := range r.req.Messages {
		if msg.Role == llm.RoleTool && msg.ToolCallID == callID {
			return r
		}
	}
	r.a.fail("expected a tool result for call %q", callID)
	return r
}

func (r *RequestAssertions) hasTurn(role llm.Role, contains string) bool {
	for _, msg := range r.req.Messages {
		if msg.Role == role && strings.Contains(msg.Content, contains) {
			return true
		}
	}
	return false
}

// ActionLogAssertions checks a session's action log.
type ActionLogAssertions struct {
	a       *Assertions
	actions []session.Action
}

// AssertActions starts a chain of action-log assertions.
func (a *Assertions) AssertActions(actions []session.Action) *ActionLogAssertions {
	return &ActionLogAssertions{a: a, actions: actions}
}

// HasKinds asserts the exact sequence of action kinds.
func (l *ActionLogAssertions) HasKinds(kinds ...session.ActionKind) *ActionLogAssertions {
	l.a.t.Helper()
	got := make([]string, len(l.actions))
	for i, action := range l.actions {
		got[i] = string(action.Kind)
	}
	want := make([]string, len(kinds))
	for i, kind := range kinds {
		want[i] = string(kind)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		l.a.fail("expected action kinds [%s], got [%s]", strings.Join(want, ","), strings.Join(got, ","))
	}
	return l
}

// HasContiguousIndices asserts indices run 0..n-1 in order.
func (l *ActionLogAssertions) HasContiguousIndices() *ActionLogAssertions {
	l.a.t.Helper()
	for i, action := range l.actions {
		if action.Index != i {
			l.a.fail("action %d has index %d", i, action.Index)
			return l
		}
	}
	return l
}

// AllTerminal asserts no action was left running.
func (l *ActionLogAssertions) AllTerminal() *ActionLogAssertions {
	l.a.t.Helper()
	for _, action := range l.actions {
		if !action.Status.Terminal() {
			l.a.fail("action %d (%s) left in status %s", action.Index, action.Title, action.Status)
		}
	}
	return l
}

// StatusAt asserts the status of the action at index.
func (l *ActionLogAssertions) StatusAt(index int, status session.ActionStatus) *ActionLogAssertions {
	l.a.t.Helper()
	if index < 0 || index >= len(l.actions) {
		l.a.fail("no action at index %d (log has %d)", index, len(l.actions))
		return l
	}
	if got := l.actions[index].Status; got != status {
		l.a.fail("action %d: expected status %s, got %s", index, status, got)
	}
	return l
}

// Last returns the final action, failing the test when the log is empty.
func (l *ActionLogAssertions) Last() session.Action {
	l.a.t.Helper()
	if len(l.actions) == 0 {
		l.a.fail("expected a non-empty action log")
		return session.Action{}
	}
	return l.actions[len(l.actions)-1]
}

// RequireNoError stops the test on err.
func RequireNoError(t testing.TB, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// FormatActions renders an action log for failure messages.
func FormatActions(actions []session.Action) string {
	var b strings.Builder
	for _, action := range actions {
		fmt.Fprintf(&b, "[%d] %s %s (%s): %s\n", action.Index, action.Kind, action.Title, action.Status, action.Summary)
	}
	return b.String()
}
