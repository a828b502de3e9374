// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"encoding/json"
	"strings"

	"github.com/abcd1927/AI-coding-demo/pkg/tools"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolSpec converts a tool definition into an MCP tool carrying the same
// JSON schema.
func ToolSpec(def tools.Definition) mcp.Tool {
	schema := def.Parameters
	if schema == nil {
		schema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		raw = []byte(`{"type":"object"}`)
	}
	return mcp.NewToolWithRawSchema(def.Name, def.Description, raw)
}

// ToolSpecs converts every definition.
func ToolSpecs(defs []tools.Definition) []mcp.Tool {
	out := make([]mcp.Tool, 0, len(defs))
	for _, def := range defs {
		out = append(out, ToolSpec(def))
	}
	return out
}

// toCallResult renders a tool result as MCP content: the wire JSON as text
// plus the structured map. Business failures set IsError.
func toCallResult(result tools.Result) *mcp.CallToolResult {
	out := mcp.NewToolResultText(result.JSON())
	out.StructuredContent = result.Map()
	out.IsError = result.Error
	return out
}

func extractTextContent(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		switch content := item.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}
