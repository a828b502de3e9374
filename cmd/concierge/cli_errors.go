// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
)

// CLIError wraps ConciergeError with CLI-specific formatting and hints.
type CLIError struct {
	*cerrors.ConciergeError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(ce *cerrors.ConciergeError, hint string) *CLIError {
	return &CLIError{ConciergeError: ce, Hint: hint}
}

// AsCLIError returns err as a CLIError, wrapping plain errors.
func AsCLIError(err error) *CLIError {
	if cliErr, ok := err.(*CLIError); ok {
		return cliErr
	}
	return NewCLIError(cerrors.As(err), "")
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.ConciergeError == nil {
		return "unknown error"
	}
	msg := e.ConciergeError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

// PrintError prints the error to stderr.
func (e *CLIError) PrintError(asJSON bool) {
	if asJSON {
		payload, _ := json.Marshal(map[string]any{
			"error": map[string]string{
				"code":    string(e.Code),
				"message": cerrors.Message(e.ConciergeError),
				"hint":    e.Hint,
			},
		})
		fmt.Fprintln(os.Stderr, string(payload))
		return
	}
	fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", e.Code, cerrors.Message(e.ConciergeError))
	if e.Hint != "" {
		fmt.Fprintf(os.Stderr, "  Hint: %s\n", e.Hint)
	}
}

// WrapConfigError wraps a configuration loading failure.
func WrapConfigError(err error) *CLIError {
	ce := cerrors.New(cerrors.CodeInvalidInput, "invalid configuration", err)
	return NewCLIError(ce, "check --config, --set values and CONCIERGE_* environment variables")
}

// WrapStorageError wraps a history store failure.
func WrapStorageError(err error, dsn string) *CLIError {
	ce := cerrors.New(cerrors.CodeStorage, "history store unavailable", err).
		WithContext("dsn", dsn)
	return NewCLIError(ce, "check history.driver and history.dsn")
}
