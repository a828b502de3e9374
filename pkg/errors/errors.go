// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed errors carrying a code, a human message and
// structured context for logs, metrics and HTTP responses.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies errors for monitoring and API responses.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeToolFailure indicates a tool execution failed.
	CodeToolFailure ErrorCode = "TOOL_FAILURE"

	// CodeLLMError indicates a model provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeSkillNotFound indicates no skill matched an intent.
	CodeSkillNotFound ErrorCode = "SKILL_NOT_FOUND"

	// CodeIterationLimit indicates the tool-calling loop hit its ceiling.
	CodeIterationLimit ErrorCode = "ITERATION_LIMIT"

	// CodeSessionNotFound indicates the session id is unknown or was cleared.
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// CodeInvalidChannel indicates an unknown message channel.
	CodeInvalidChannel ErrorCode = "INVALID_CHANNEL"

	// CodeStorage indicates a persistence failure.
	CodeStorage ErrorCode = "STORAGE_ERROR"
)

// ConciergeError is a typed error with context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type ConciergeError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int
}

// Error implements the error interface.
func (e *ConciergeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *ConciergeError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *ConciergeError) MarshalJSON() ([]byte, error) {
	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return json.Marshal(&struct {
		Code        string                 `json:"code"`
		Message     string                 `json:"message"`
		Err         string                 `json:"error,omitempty"`
		Context     map[string]interface{} `json:"context,omitempty"`
		Recoverable bool                   `json:"recoverable"`
	}{
		Code:        string(e.Code),
		Message:     e.Message,
		Err:         cause,
		Context:     e.Context,
		Recoverable: e.Recoverable,
	})
}

// New creates a new ConciergeError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *ConciergeError {
	return &ConciergeError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// Newf creates a ConciergeError without cause using a format string.
func Newf(code ErrorCode, format string, args ...any) *ConciergeError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *ConciergeError) WithContext(key string, value interface{}) *ConciergeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *ConciergeError) WithAttribute(key, value string) *ConciergeError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
func (e *ConciergeError) WithRecoverable(recoverable bool) *ConciergeError {
	e.Recoverable = recoverable
	return e
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *ConciergeError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// As returns err as a ConciergeError, searching the wrap chain.
// Errors that carry no code are wrapped as CodeInternal.
func As(err error) *ConciergeError {
	if err == nil {
		return nil
	}
	var ce *ConciergeError
	if stderrors.As(err, &ce) {
		return ce
	}
	return New(CodeInternal, err.Error(), err)
}

// CodeOf returns the code of the first ConciergeError in the chain, or
// CodeInternal when there is none. A nil error has no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ce *ConciergeError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	var ce *ConciergeError
	if !stderrors.As(err, &ce) {
		return false
	}
	return ce.Code == code
}

// Message returns the human readable part of err: the message of a
// ConciergeError (without the code prefix), or err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *ConciergeError
	if stderrors.As(err, &ce) {
		if ce.Err != nil {
			return ce.Message + ": " + ce.Err.Error()
		}
		return ce.Message
	}
	return err.Error()
}

// StatusCode returns the HTTP status associated with err.
func StatusCode(err error) int {
	var ce *ConciergeError
	if stderrors.As(err, &ce) && ce.StatusCode != 0 {
		return ce.StatusCode
	}
	return http.StatusInternalServerError
}

func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound, CodeSkillNotFound, CodeSessionNotFound:
		return http.StatusNotFound
	case CodeInvalidInput, CodeInvalidChannel:
		return http.StatusBadRequest
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeLLMError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
