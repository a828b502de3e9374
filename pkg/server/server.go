// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the concierge over a JSON HTTP API: submitting
// messages, polling run status, reading channels and inspecting the
// catalogue, the orders and the execution history.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/abcd1927/AI-coding-demo/pkg/config"
	"github.com/abcd1927/AI-coding-demo/pkg/core"
	"github.com/abcd1927/AI-coding-demo/pkg/orders"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/abcd1927/AI-coding-demo/pkg/skills"
	"github.com/abcd1927/AI-coding-demo/pkg/tools"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Submitter starts a background run. *runtime.Runner satisfies it.
type Submitter interface {
	Submit(ctx context.Context, sessionID, message string) error
}

// SkillLookup is the read side of the skill catalogue.
type SkillLookup interface {
	Get(id string) (skills.Skill, bool)
	List() []skills.Skill
}

// ToolLister lists tool definitions. *tools.Registry satisfies it.
type ToolLister interface {
	List() []tools.Definition
}

// Deps are the services the handlers read and write.
type Deps struct {
	Store  *session.Store
	Runner Submitter
	Skills SkillLookup
	Tools  ToolLister
	Orders *orders.Repository
	Health *core.Health
	Logger *slog.Logger
}

// Server is the concierge HTTP server.
type Server struct {
	deps       Deps
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New builds the router for cfg and deps.
func New(cfg config.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Health == nil {
		deps.Health = core.NewHealth()
	}
	s := &Server{deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/health/components", s.handleHealthComponents)

		r.Post("/chat", s.handleChat)
		r.Get("/status/{sessionID}", s.handleStatus)
		r.Get("/messages/{channel}", s.handleMessages)
		r.Delete("/session", s.handleClearSessions)
		r.Delete("/session/{sessionID}", s.handleDeleteSession)

		r.Get("/orders", s.handleOrders)
		r.Post("/orders/reset", s.handleResetOrders)

		r.Get("/skills", s.handleSkills)
		r.Get("/skills/{skillID}", s.handleSkill)
		r.Get("/tools", s.handleTools)

		r.Get("/history", s.handleHistory)
		r.Get("/history/{executionID}", s.handleHistoryEntry)
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and blocks until the server is
// shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("server.listening", slog.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
