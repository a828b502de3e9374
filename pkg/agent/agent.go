// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent runs the concierge pipeline for one inbound message:
// intent classification, skill binding, the tool-calling loop and
// completion, recording every step in the session's action log.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abcd1927/AI-coding-demo/pkg/llm"
	"github.com/abcd1927/AI-coding-demo/pkg/planner"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/abcd1927/AI-coding-demo/pkg/skills"
	"github.com/abcd1927/AI-coding-demo/pkg/telemetry"
	"github.com/abcd1927/AI-coding-demo/pkg/tools"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxIterations bounds the tool-calling loop when no option is given.
const DefaultMaxIterations = 20

// Model is the language model as the pipeline uses it. *llm.Client
// satisfies it.
type Model interface {
	Classify(ctx context.Context, systemPrompt, userMessage string) (string, error)
	Converse(ctx context.Context, turns []llm.Message, tools []llm.Tool) (*llm.ChatResponse, error)
}

// SkillLookup resolves skills by id. *skills.Catalog satisfies it.
type SkillLookup interface {
	Get(id string) (skills.Skill, bool)
	List() []skills.Skill
}

// ToolLookup resolves tools by name. *tools.Registry satisfies it.
type ToolLookup interface {
	Get(name string) (tools.Tool, bool)
	LLMTools() []llm.Tool
}

// Store is the part of the session store a run writes to.
// *session.Store satisfies it.
type Store interface {
	AddAction(id string, kind session.ActionKind, title, summary string, status session.ActionStatus, detail map[string]any) (session.Action, error)
	UpdateAction(id string, index int, status session.ActionStatus, detail map[string]any, summary string) error
	SetFinalReply(id, reply string) error
	UpdateStatus(id string, status session.Status) error
	AddMessage(id string, channel session.Channel, sender, content string) (session.Message, error)
	SaveHistory(ctx context.Context, id, triggerMessage string, skillName *string) (session.HistoryEntry, error)
}

// ExternalParty produces the upstream reply to a message the agent sent
// upstream. *upstream.Simulator satisfies it.
type ExternalParty interface {
	Reply(ctx context.Context, correlationID string) (string, error)
}

// Dependencies are the collaborators every engine needs.
type Dependencies struct {
	Model    Model
	Skills   SkillLookup
	Tools    ToolLookup
	Store    Store
	External ExternalParty
}

// Engine executes the pipeline. It is safe for concurrent runs on
// different sessions.
type Engine struct {
	model         Model
	skills        SkillLookup
	tools         ToolLookup
	store         Store
	external      ExternalParty
	maxIterations int
	graph         *planner.Graph
	logger        *slog.Logger
	tracer        trace.Tracer
	metrics       *telemetry.Metrics
}

var (
	ErrMissingModel    = errors.New("agent model is required")
	ErrMissingSkills   = errors.New("agent skill lookup is required")
	ErrMissingTools    = errors.New("agent tool lookup is required")
	ErrMissingStore    = errors.New("agent session store is required")
	ErrMissingExternal = errors.New("agent external party is required")
)

// Option configures an Engine.
type Option func(*Engine) error

// New creates an engine over deps.
func New(deps Dependencies, opts ...Option) (*Engine, error) {
	switch {
	case deps.Model == nil:
		return nil, ErrMissingModel
	case deps.Skills == nil:
		return nil, ErrMissingSkills
	case deps.Tools == nil:
		return nil, ErrMissingTools
	case deps.Store == nil:
		return nil, ErrMissingStore
	case deps.External == nil:
		return nil, ErrMissingExternal
	}

	e := &Engine{
		model:         deps.Model,
		skills:        deps.Skills,
		tools:         deps.Tools,
		store:         deps.Store,
		external:      deps.External,
		maxIterations: DefaultMaxIterations,
		logger:        slog.Default(),
		tracer:        otel.Tracer("concierge/agent"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.graph == nil {
		graph, err := DefaultPipeline()
		if err != nil {
			return nil, err
		}
		e.graph = graph
	}
	return e, nil
}

// WithMaxIterations sets the tool-calling loop ceiling.
func WithMaxIterations(n int) Option {
	return func(e *Engine) error {
		if n <= 0 {
			return errors.New("max iterations must be positive")
		}
		e.maxIterations = n
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger != nil {
			e.logger = logger
		}
		return nil
	}
}

// WithMetrics records run, tool and error metrics.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(e *Engine) error {
		e.metrics = metrics
		return nil
	}
}

// WithPipeline replaces the embedded pipeline graph. The graph must use
// the node types the engine registers handlers for.
func WithPipeline(graph *planner.Graph) Option {
	return func(e *Engine) error {
		if err := graph.Validate(); err != nil {
			return err
		}
		for id, node := range graph.Nodes {
			switch node.Type {
			case NodeClassification, NodeSkillBinding, NodeToolLoop, NodeCompletion:
			default:
				return fmt.Errorf("pipeline node %q has unsupported type %q", id, node.Type)
			}
		}
		e.graph = graph
		return nil
	}
}

// MaxIterations returns the loop ceiling.
func (e *Engine) MaxIterations() int { return e.maxIterations }
