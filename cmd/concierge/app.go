// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/abcd1927/AI-coding-demo/pkg/agent"
	"github.com/abcd1927/AI-coding-demo/pkg/config"
	"github.com/abcd1927/AI-coding-demo/pkg/core"
	"github.com/abcd1927/AI-coding-demo/pkg/llm"
	"github.com/abcd1927/AI-coding-demo/pkg/orders"
	"github.com/abcd1927/AI-coding-demo/pkg/planner"
	"github.com/abcd1927/AI-coding-demo/pkg/resilience"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/abcd1927/AI-coding-demo/pkg/skills"
	"github.com/abcd1927/AI-coding-demo/pkg/telemetry"
	"github.com/abcd1927/AI-coding-demo/pkg/tools"
	"github.com/abcd1927/AI-coding-demo/pkg/upstream"
)

const serviceName = "concierge"

// app holds the wired services shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *session.Store
	catalog  *skills.Catalog
	watcher  *skills.Watcher
	watching bool
	orders   *orders.Repository
	tools    *tools.Registry
	engine   *agent.Engine
	health   *core.Health
	shutdown telemetry.ShutdownFunc
}

// buildApp wires the services described by cfg. Close releases them.
func buildApp(cfg *config.Config) (*app, error) {
	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	a := &app{cfg: cfg, logger: logger}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitWithConfig(serviceName, version, telemetry.Config{
			Exporter:     cfg.Telemetry.Exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
		a.shutdown = shutdown
	}
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		logger.Warn("telemetry.metrics.disabled", slog.String("error", err.Error()))
	}

	history, err := openHistory(cfg.History)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = session.NewStore(history)

	if err := a.loadSkills(); err != nil {
		a.Close()
		return nil, err
	}

	a.orders = orders.NewRepository()
	a.tools = tools.NewDefaultRegistry(a.orders, a.store)

	opts := []agent.Option{
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithLogger(logger),
		agent.WithMetrics(metrics),
	}
	if cfg.Agent.Pipeline != "" {
		graph, err := planner.LoadGraph(cfg.Agent.Pipeline)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load pipeline %s: %w", cfg.Agent.Pipeline, err)
		}
		opts = append(opts, agent.WithPipeline(graph))
	}

	provider := newProvider(cfg.LLM, logger)
	engine, err := agent.New(agent.Dependencies{
		Model:    llm.NewClient(provider, cfg.LLM.Model, cfg.LLM.Temperature),
		Skills:   a.catalog,
		Tools:    a.tools,
		Store:    a.store,
		External: upstream.NewSimulator(a.store, logger),
	}, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = engine

	a.health = core.NewHealth()
	a.health.Register("llm", agent.NewModelHealthChecker(cfg.LLM.Provider, modelProbe(cfg.LLM, provider)))
	a.health.Register("skills", agent.SkillsHealthChecker(a.catalog))
	return a, nil
}

func openHistory(cfg config.HistoryConfig) (session.HistoryStore, error) {
	if cfg.Driver == "sqlite" {
		store, err := session.OpenSQLiteHistoryStore(cfg.DSN)
		if err != nil {
			return nil, WrapStorageError(err, cfg.DSN)
		}
		return store, nil
	}
	return session.NewMemoryHistoryStore(), nil
}

// loadSkills fills the catalogue from skills.dir, or from the builtin set
// when no directory is configured.
func (a *app) loadSkills() error {
	a.catalog = skills.NewCatalog()
	dir := a.cfg.Skills.Dir
	if dir == "" {
		builtin, err := skills.Builtin()
		if err != nil {
			return err
		}
		a.catalog.Replace(builtin)
		return nil
	}
	if a.cfg.Skills.ReloadSeconds <= 0 {
		loaded, err := skills.LoadDir(dir)
		if err != nil {
			return err
		}
		a.catalog.Replace(loaded)
		return nil
	}
	watcher, err := skills.NewWatcher(dir, a.catalog,
		skills.WithWatchInterval(time.Duration(a.cfg.Skills.ReloadSeconds)*time.Second),
		skills.WithWatchLogger(a.logger),
	)
	if err != nil {
		return err
	}
	watcher.OnChange(func(loaded []skills.Skill) {
		a.logger.Info("skills.reloaded", slog.Int("count", len(loaded)))
	})
	a.watcher = watcher
	return nil
}

// startWatcher begins polling the skills directory when reload is enabled.
func (a *app) startWatcher(ctx context.Context) {
	if a.watcher != nil && !a.watching {
		a.watcher.Start(ctx)
		a.watching = true
	}
}

// Close stops background work and flushes telemetry.
func (a *app) Close() {
	if a.watching {
		a.watcher.Stop()
	}
	if a.store != nil {
		if err := a.store.History().Close(); err != nil {
			a.logger.Warn("history.close.failed", slog.String("error", err.Error()))
		}
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			a.logger.Warn("telemetry.shutdown.failed", slog.String("error", err.Error()))
		}
	}
}

func newProvider(cfg config.LLMConfig, logger *slog.Logger) llm.Provider {
	if cfg.Provider == "mock" {
		return offlineProvider()
	}
	ollama := llm.NewOllama(cfg.BaseURL, llm.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	return resilience.NewProvider(ollama,
		resilience.WithRetry(resilience.DefaultRetryConfig().WithMaxAttempts(cfg.RetryAttempts)),
		resilience.WithBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "ollama",
			FailureThreshold: cfg.BreakerThreshold,
			Cooldown:         time.Duration(cfg.BreakerCooldownSeconds) * time.Second,
		})),
		resilience.WithLogger(logger),
	)
}

// offlineProvider answers without a model server: classification matches
// keywords and the tool loop replies with plain text.
func offlineProvider() *llm.MockProvider {
	return &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		if len(req.Tools) > 0 {
			return &llm.ChatResponse{Content: "Your request has been recorded; a live model is required to process it."}, nil
		}
		return &llm.ChatResponse{Content: offlineIntent(lastUserMessage(req.Messages))}, nil
	}}
}

func offlineIntent(message string) string {
	text := strings.ToLower(message)
	switch {
	case strings.Contains(text, "early") || strings.Contains(text, "check out") || strings.Contains(text, "checkout"):
		return "early_checkout"
	case strings.Contains(text, "cancel"):
		return "order_cancel"
	default:
		return agent.UnknownIntent
	}
}

func lastUserMessage(msgs []llm.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

// modelProbe checks that the model backend answers and that its circuit is
// not open. The offline provider is always reachable.
func modelProbe(cfg config.LLMConfig, provider llm.Provider) func(ctx context.Context) error {
	if cfg.Provider == "mock" {
		return func(context.Context) error { return nil }
	}
	guarded, _ := provider.(*resilience.Provider)
	client := &http.Client{Timeout: 5 * time.Second}
	url := strings.TrimRight(cfg.BaseURL, "/") + "/api/tags"
	return func(ctx context.Context) error {
		if guarded != nil && guarded.Breaker().State() == resilience.StateOpen {
			return fmt.Errorf("model backend circuit open")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("model backend returned %s", resp.Status)
		}
		return nil
	}
}
