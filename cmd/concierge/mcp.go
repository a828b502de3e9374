// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	"github.com/abcd1927/AI-coding-demo/pkg/config"
	"github.com/abcd1927/AI-coding-demo/pkg/mcp"
)

// runMCP serves the business tools over stdio. Logs go to stderr so stdout
// stays reserved for the protocol.
func runMCP(_ context.Context, cfg *config.Config) error {
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcp.NewServer(serviceName, version, a.tools, a.store, a.logger)
	a.logger.Info("mcp.serve", slog.String("session_id", srv.SessionID()), slog.Int("tools", len(a.tools.List())))
	return srv.ServeStdio()
}
