// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package tools defines the business tools the model can call and the
// registry the agent and the MCP server look them up in.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the structured outcome of a tool call. A tool reports business
// failures (unknown order, bad channel) as a Result with Error set; a Go
// error from Call means the tool itself could not run.
type Result struct {
	Success   bool           `json:"success,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Error     bool           `json:"error,omitempty"`
	ErrorType string         `json:"error_type,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// OK builds a success result.
func OK(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a structured error result.
func Fail(errorType, message string) Result {
	return Result{Error: true, ErrorType: errorType, Message: message}
}

// Map returns the result in its wire form.
func (r Result) Map() map[string]any {
	if r.Error {
		return map[string]any{"error": true, "error_type": r.ErrorType, "message": r.Message}
	}
	return map[string]any{"success": true, "data": r.Data}
}

// JSON returns the wire form encoded as JSON.
func (r Result) JSON() string {
	raw, err := json.Marshal(r.Map())
	if err != nil {
		return fmt.Sprintf(`{"error":true,"message":%q}`, err.Error())
	}
	return string(raw)
}

// Definition describes a tool to the model and the admin API.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Tool is an invocable capability.
type Tool interface {
	Definition() Definition
	Call(ctx context.Context, args map[string]any) (Result, error)
}

// NormalizeArgs converts the argument shapes seen from models and MCP
// clients into an argument map.
func NormalizeArgs(input any) (map[string]any, error) {
	switch value := input.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return value, nil
	case json.RawMessage:
		return decodeArgs(value)
	case []byte:
		return decodeArgs(value)
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return map[string]any{}, nil
		}
		return decodeArgs([]byte(trimmed))
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("tool args: unsupported type %T", input)
		}
		return decodeArgs(encoded)
	}
}

func decodeArgs(raw []byte) (map[string]any, error) {
	decoded := map[string]any{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("tool args: invalid JSON: %w", err)
	}
	return decoded, nil
}

// stringArg reads an argument as a string; missing keys yield "".
func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

type property struct {
	name        string
	description string
}

func objectSchema(props []property, required ...string) map[string]any {
	properties := make(map[string]any, len(props))
	for _, p := range props {
		properties[p.name] = map[string]any{"type": "string", "description": p.description}
	}
	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
