// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("connection refused")
	ce := New(CodeLLMError, "model call failed", cause)

	if ce.Code != CodeLLMError {
		t.Errorf("expected CodeLLMError, got %v", ce.Code)
	}
	if ce.Message != "model call failed" {
		t.Errorf("unexpected message %q", ce.Message)
	}
	if !errors.Is(ce, cause) {
		t.Errorf("expected errors.Is to reach the cause")
	}
	if ce.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", ce.StatusCode)
	}
}

func TestWithContextAndAttribute(t *testing.T) {
	ce := New(CodeToolFailure, "tool failed", nil).
		WithContext("tool", "order_query").
		WithAttribute("order_id", "HT20260301001").
		WithRecoverable(true)

	if ce.Context["tool"] != "order_query" {
		t.Errorf("expected context tool")
	}
	if ce.Attributes["order_id"] != "HT20260301001" {
		t.Errorf("expected attribute order_id")
	}
	if ce.RecoverableString() != "true" {
		t.Errorf("expected recoverable")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		ce       *ConciergeError
		expected string
	}{
		{
			name:     "with cause",
			ce:       New(CodeTimeout, "operation timed out", errors.New("deadline exceeded")),
			expected: "[TIMEOUT] operation timed out: deadline exceeded",
		},
		{
			name:     "without cause",
			ce:       Newf(CodeSessionNotFound, "session %s not found", "abc"),
			expected: "[SESSION_NOT_FOUND] session abc not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ce.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAsAndCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(CodeInvalidChannel, "bad channel", nil))

	if As(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if got := As(wrapped).Code; got != CodeInvalidChannel {
		t.Fatalf("expected wrapped code, got %s", got)
	}
	if got := As(errors.New("plain")).Code; got != CodeInternal {
		t.Fatalf("expected internal code for plain error, got %s", got)
	}
	if CodeOf(nil) != "" {
		t.Fatalf("expected empty code for nil")
	}
	if !Is(wrapped, CodeInvalidChannel) {
		t.Fatalf("expected Is to match wrapped code")
	}
	if Is(errors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(New(CodeNotFound, "order not found", nil)); got != "order not found" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message(New(CodeStorage, "save failed", errors.New("disk full"))); got != "save failed: disk full" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message(errors.New("boom")); got != "boom" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestStatusCode(t *testing.T) {
	cases := map[error]int{
		New(CodeNotFound, "x", nil):        http.StatusNotFound,
		New(CodeSessionNotFound, "x", nil): http.StatusNotFound,
		New(CodeInvalidChannel, "x", nil):  http.StatusBadRequest,
		New(CodeInternal, "x", nil):        http.StatusInternalServerError,
		errors.New("plain"):                http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := StatusCode(err); got != want {
			t.Errorf("%v: expected %d, got %d", err, want, got)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	ce := New(CodeToolFailure, "refund failed", errors.New("order missing")).
		WithContext("order_id", "HT1")

	data, err := json.Marshal(ce)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["code"] != "TOOL_FAILURE" {
		t.Errorf("unexpected code %v", decoded["code"])
	}
	if decoded["error"] != "order missing" {
		t.Errorf("unexpected cause %v", decoded["error"])
	}
	ctx, ok := decoded["context"].(map[string]any)
	if !ok || ctx["order_id"] != "HT1" {
		t.Errorf("unexpected context %v", decoded["context"])
	}
}
