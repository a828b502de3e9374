// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/abcd1927/AI-coding-demo/pkg/errors"
)

// Metrics records pipeline counters through the global otel meter.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	runs       metric.Int64Counter
	toolCalls  metric.Int64Counter
	iterations metric.Int64Histogram
	errorsTot  metric.Int64Counter
}

// NewMetrics registers the pipeline instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("concierge/agent")

	runs, err := meter.Int64Counter(
		"concierge.runs.total",
		metric.WithDescription("Completed pipeline runs by final status"),
	)
	if err != nil {
		return nil, err
	}
	toolCalls, err := meter.Int64Counter(
		"concierge.tool_calls.total",
		metric.WithDescription("Tool invocations by tool and outcome"),
	)
	if err != nil {
		return nil, err
	}
	iterations, err := meter.Int64Histogram(
		"concierge.loop.iterations",
		metric.WithDescription("Model turns used by one tool-calling loop"),
	)
	if err != nil {
		return nil, err
	}
	errorsTot, err := meter.Int64Counter(
		"concierge.errors.total",
		metric.WithDescription("Errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		runs:       runs,
		toolCalls:  toolCalls,
		iterations: iterations,
		errorsTot:  errorsTot,
	}, nil
}

// RecordRun counts one finished run.
func (m *Metrics) RecordRun(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrRunStatus, status)))
}

// RecordToolCall counts one tool invocation.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	if m == nil {
		return
	}
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrToolName, tool),
		attribute.String(AttrToolStatus, status),
	))
}

// RecordIterations records how many model turns a loop consumed.
func (m *Metrics) RecordIterations(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.iterations.Record(ctx, int64(n))
}

// RecordError counts err under its error code.
func (m *Metrics) RecordError(ctx context.Context, err error, component string) {
	if m == nil || err == nil {
		return
	}
	code := string(errors.CodeOf(err))
	recoverable := "unknown"
	if ce := errors.As(err); ce != nil && errors.Is(err, ce.Code) {
		recoverable = ce.RecoverableString()
	}
	m.errorsTot.Add(ctx, 1, metric.WithAttributes(
		attribute.String("error.code", code),
		attribute.String("component", component),
		attribute.String("recoverable", recoverable),
	))
}
