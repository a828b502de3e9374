// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/abcd1927/AI-coding-demo/pkg/orders"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/abcd1927/AI-coding-demo/pkg/tools"
)

func newTestServer(t *testing.T) (*Server, *session.Store, *orders.Repository) {
	t.Helper()
	store := session.NewStore(nil)
	repo := orders.NewRepository(orders.Seed()...)
	registry := tools.NewDefaultRegistry(repo, store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer("concierge", "test", registry, store, logger), store, repo
}

func TestToolSpecKeepsSchema(t *testing.T) {
	def := tools.Definition{
		Name:        "order_query",
		Description: "Query an order",
		Parameters: map[string]any{
			"type":     "object",
			"required": []string{"order_id"},
			"properties": map[string]any{
				"order_id": map[string]any{"type": "string"},
			},
		},
	}
	spec := ToolSpec(def)
	if spec.Name != "order_query" || spec.Description != "Query an order" {
		t.Fatalf("unexpected spec %+v", spec)
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"required":["order_id"]`) {
		t.Fatalf("schema lost in %s", raw)
	}
	if n := len(ToolSpecs([]tools.Definition{def, def})); n != 2 {
		t.Fatalf("expected 2 specs, got %d", n)
	}
}

func TestCallRunsToolInDedicatedSession(t *testing.T) {
	srv, store, _ := newTestServer(t)

	res, err := srv.call(context.Background(), "message_send", map[string]any{
		"channel": "downstream",
		"content": "order confirmed",
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", extractTextContent(res.Content))
	}
	msgs, err := store.Messages(srv.SessionID(), session.ChannelDownstream)
	if err != nil || len(msgs) != 1 || msgs[0].Content != "order confirmed" {
		t.Fatalf("expected message in the MCP session, got %+v (%v)", msgs, err)
	}
}

func TestCallStructuredAndBusinessErrors(t *testing.T) {
	srv, _, repo := newTestServer(t)

	res, _ := srv.call(context.Background(), "order_cancel", `{"order_id":"HT20260301003"}`)
	if res.IsError {
		t.Fatalf("cancel failed: %s", extractTextContent(res.Content))
	}
	if o, _ := repo.Get("HT20260301003"); o.Status != orders.StatusCancelled {
		t.Fatalf("expected order cancelled")
	}
	structured, ok := res.StructuredContent.(map[string]any)
	if !ok || structured["success"] != true {
		t.Fatalf("unexpected structured content %#v", res.StructuredContent)
	}

	res, _ = srv.call(context.Background(), "order_cancel", map[string]any{"order_id": "HT20260301003"})
	if !res.IsError || !strings.Contains(extractTextContent(res.Content), tools.ErrTypeAlreadyCancelled) {
		t.Fatalf("expected already-cancelled error, got %s", extractTextContent(res.Content))
	}

	res, _ = srv.call(context.Background(), "teleport", nil)
	if !res.IsError || !strings.Contains(extractTextContent(res.Content), "teleport") {
		t.Fatalf("expected unknown tool error")
	}
}
