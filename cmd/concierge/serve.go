// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abcd1927/AI-coding-demo/pkg/config"
	"github.com/abcd1927/AI-coding-demo/pkg/runtime"
	"github.com/abcd1927/AI-coding-demo/pkg/server"
)

const shutdownTimeout = 15 * time.Second

func runServe(ctx context.Context, _ globalFlags, cfg *config.Config) error {
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	a.startWatcher(ctx)

	runner := runtime.NewRunner(a.engine, a.logger)
	if err := runner.Start(ctx); err != nil {
		return err
	}

	srv := server.New(cfg.Server, server.Deps{
		Store:  a.store,
		Runner: runner,
		Skills: a.catalog,
		Tools:  a.tools,
		Orders: a.orders,
		Health: a.health,
		Logger: a.logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(err, runner.Stop(stopCtx))
	case <-ctx.Done():
	}

	a.logger.Info("server.shutdown", slog.Int("in_flight", runner.InFlight()))
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(srv.Shutdown(stopCtx), runner.Stop(stopCtx))
}
