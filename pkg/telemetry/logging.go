// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/abcd1927/AI-coding-demo/pkg/core"
	"go.opentelemetry.io/otel/trace"
)

// ConfigureSlog builds a logger with NewLogger and installs it as the slog
// default.
func ConfigureSlog(output io.Writer, level, format string) *slog.Logger {
	logger := NewLogger(output, level, format)
	slog.SetDefault(logger)
	return logger
}

// NewLogger returns a text or json logger that stamps each record with the
// correlation ids found in the logging context: trace_id and span_id of the
// active span, session_id and run_id from core.
func NewLogger(output io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: LogLevel(level)}
	var base slog.Handler = slog.NewTextHandler(output, opts)
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		base = slog.NewJSONHandler(output, opts)
	}
	return slog.New(correlationHandler{Handler: base})
}

// LogLevel maps a configured level name to a slog level; unknown names
// mean info.
func LogLevel(name string) slog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// correlationHandler embeds the wrapped handler so Enabled passes through.
type correlationHandler struct {
	slog.Handler
}

func (h correlationHandler) Handle(ctx context.Context, record slog.Record) error {
	ids := correlationIDs(ctx)
	if len(ids) > 0 {
		record.Attrs(func(attr slog.Attr) bool {
			delete(ids, attr.Key)
			return len(ids) > 0
		})
		for _, key := range []string{"trace_id", "span_id", "session_id", "run_id"} {
			if v, ok := ids[key]; ok {
				record.AddAttrs(slog.String(key, v))
			}
		}
	}
	return h.Handler.Handle(ctx, record)
}

func (h correlationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return correlationHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h correlationHandler) WithGroup(name string) slog.Handler {
	return correlationHandler{Handler: h.Handler.WithGroup(name)}
}

// correlationIDs collects the ids carried by ctx, keyed by attribute name.
func correlationIDs(ctx context.Context) map[string]string {
	if ctx == nil {
		return nil
	}
	ids := make(map[string]string, 4)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ids["trace_id"] = sc.TraceID().String()
		ids["span_id"] = sc.SpanID().String()
	}
	if id, ok := core.SessionID(ctx); ok {
		ids["session_id"] = id
	}
	if id, ok := core.RunID(ctx); ok {
		ids["run_id"] = id
	}
	return ids
}
