// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the business tools as an MCP server so external
// agents can query orders, cancel, refund and post channel messages.
package mcp

import (
	"context"
	"log/slog"

	"github.com/abcd1927/AI-coding-demo/pkg/core"
	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/abcd1927/AI-coding-demo/pkg/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registry is the tool set the server publishes. *tools.Registry satisfies it.
type Registry interface {
	Get(name string) (tools.Tool, bool)
	List() []tools.Definition
}

// SessionCreator opens the session MCP calls run in. *session.Store
// satisfies it.
type SessionCreator interface {
	Create() session.Snapshot
}

// Server wraps the mcp-go server around the tool registry. Every call runs
// inside one dedicated session so message_send has somewhere to write.
type Server struct {
	mcpServer *server.MCPServer
	registry  Registry
	sessionID string
	logger    *slog.Logger
}

// NewServer creates an MCP server publishing every tool of registry.
func NewServer(name, version string, registry Registry, sessions SessionCreator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		registry:  registry,
		sessionID: sessions.Create().ID,
		logger:    logger,
	}
	for _, def := range registry.List() {
		s.mcpServer.AddTool(ToolSpec(def), s.handler(def.Name))
	}
	return s
}

// SessionID returns the session tool calls run in.
func (s *Server) SessionID() string { return s.sessionID }

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.call(ctx, name, request.Params.Arguments)
	}
}

// call runs one tool. Execution errors become MCP error results rather
// than protocol errors so the client sees the message.
func (s *Server) call(ctx context.Context, name string, rawArgs any) (*mcp.CallToolResult, error) {
	tool, ok := s.registry.Get(name)
	if !ok {
		return mcp.NewToolResultError("tool " + name + " not found"), nil
	}
	args, err := tools.NormalizeArgs(rawArgs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ctx = core.WithSessionID(ctx, s.sessionID)
	ctx, runID := core.EnsureRunID(ctx)
	result, err := tool.Call(ctx, args)
	if err != nil {
		s.logger.Error("mcp.tool.error",
			slog.String("tool", name),
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		return mcp.NewToolResultError(cerrors.Message(err)), nil
	}
	s.logger.Info("mcp.tool.call",
		slog.String("tool", name),
		slog.String("run_id", runID),
		slog.Bool("error", result.Error),
	)
	return toCallResult(result), nil
}
