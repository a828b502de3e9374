// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/abcd1927/AI-coding-demo/pkg/config"
	"github.com/abcd1927/AI-coding-demo/pkg/core"
	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/llm"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
)

func TestParseGlobalFlags(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{"--json", "--config", "c.yaml", "--set=llm.provider=mock", "run", "hello"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.JSON {
		t.Fatalf("expected --json")
	}
	wantConfig := []string{"--config", "c.yaml", "--set=llm.provider=mock"}
	if !reflect.DeepEqual(flags.ConfigArgs, wantConfig) {
		t.Fatalf("unexpected config args %v", flags.ConfigArgs)
	}
	if !reflect.DeepEqual(rest, []string{"run", "hello"}) {
		t.Fatalf("unexpected rest %v", rest)
	}
}

func TestParseGlobalFlagsErrors(t *testing.T) {
	if _, _, err := parseGlobalFlags([]string{"--config"}); err == nil {
		t.Fatalf("expected missing value error")
	}
	if _, _, err := parseGlobalFlags([]string{"--verbose"}); err == nil {
		t.Fatalf("expected unknown flag error")
	}
	flags, rest, err := parseGlobalFlags([]string{"-h", "serve"})
	if err != nil || !flags.Help || rest != nil {
		t.Fatalf("expected help, got %+v %v %v", flags, rest, err)
	}
	_, rest, _ = parseGlobalFlags([]string{"--", "--json"})
	if !reflect.DeepEqual(rest, []string{"--json"}) {
		t.Fatalf("expected args after -- untouched, got %v", rest)
	}
}

func TestOfflineIntent(t *testing.T) {
	cases := map[string]string{
		"I need to check out early tomorrow": "early_checkout",
		"please CANCEL my booking":           "order_cancel",
		"what is the weather":                "unknown",
	}
	for message, want := range cases {
		if got := offlineIntent(message); got != want {
			t.Errorf("%q: expected %s, got %s", message, want, got)
		}
	}
}

func TestOfflineProvider(t *testing.T) {
	provider := offlineProvider()
	resp, err := provider.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{
		llm.SystemMessage("classify"),
		llm.UserMessage("early checkout please"),
	}})
	if err != nil || resp.Content != "early_checkout" {
		t.Fatalf("unexpected classification %v %v", resp, err)
	}
	resp, err = provider.Chat(context.Background(), llm.ChatRequest{Tools: []llm.Tool{{Type: "function"}}})
	if err != nil || len(resp.ToolCalls) != 0 || resp.Content == "" {
		t.Fatalf("expected plain text reply, got %+v %v", resp, err)
	}
}

func TestCLIError(t *testing.T) {
	plain := AsCLIError(errors.New("boom"))
	if plain.Code != cerrors.CodeInternal || plain.Hint != "" {
		t.Fatalf("unexpected wrap %+v", plain)
	}
	wrapped := WrapConfigError(errors.New("bad yaml"))
	if AsCLIError(wrapped) != wrapped {
		t.Fatalf("expected CLIError to pass through")
	}
	if !strings.Contains(wrapped.Error(), "Hint:") {
		t.Fatalf("expected hint in %q", wrapped.Error())
	}
}

func TestFormatting(t *testing.T) {
	if got := truncateMessage("abcdefghij", 6); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateMessage("abc", 6); got != "abc" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := normalizeCell("a\tb\nc"); got != "a b c" {
		t.Fatalf("unexpected cell %q", got)
	}
	if got := normalizeCell(""); got != "-" {
		t.Fatalf("expected placeholder, got %q", got)
	}
	if got := formatDetail(map[string]any{"intent": "early_checkout"}); got != `{"intent":"early_checkout"}` {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestPrintRun(t *testing.T) {
	reply := "done"
	var buf bytes.Buffer
	printRun(&buf, session.Snapshot{
		ID:     "s1",
		Status: session.StatusCompleted,
		Actions: []session.Action{
			{Index: 0, Kind: session.KindIntentRecognition, Title: "intent recognition", Summary: "identified intent: early_checkout", Status: session.ActionSuccess},
		},
		FinalReply: &reply,
	})
	out := buf.String()
	for _, want := range []string{"Session: s1 (completed)", "intent recognition", "identified intent: early_checkout", "Reply: done"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestBuildAppOfflineRun(t *testing.T) {
	cfg, err := config.LoadWithCLI([]string{"--set", "llm.provider=mock", "--set", "log.level=error"})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := buildApp(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.Close()

	if a.catalog.Len() == 0 {
		t.Fatalf("expected builtin skills")
	}
	sess := a.store.Create()
	if err := a.engine.Run(context.Background(), sess.ID, "I want to check out early"); err != nil {
		t.Fatalf("run: %v", err)
	}
	snapshot, err := a.store.Get(sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snapshot.Status != session.StatusCompleted {
		t.Fatalf("expected completed, got %s", snapshot.Status)
	}
	if snapshot.FinalReply == nil || !strings.Contains(*snapshot.FinalReply, "recorded") {
		t.Fatalf("unexpected reply %v", snapshot.FinalReply)
	}

	results, status := a.health.CheckAll(context.Background())
	if len(results) != 2 || status != core.HealthHealthy {
		t.Fatalf("unexpected health %v %v", results, status)
	}
}

const jsonPipeline = `{
  "id": "concierge-no-tools",
  "start": "classify",
  "nodes": {
    "classify": {"type": "classification"},
    "bind": {"type": "skill_binding"},
    "complete": {"type": "completion"}
  },
  "edges": [
    {"from": "classify", "to": "bind"},
    {"from": "bind", "to": "complete"}
  ]
}`

func TestBuildAppLoadsPipelineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(jsonPipeline), 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	cfg, err := config.LoadWithCLI([]string{
		"--set", "llm.provider=mock",
		"--set", "log.level=error",
		"--set", "agent.pipeline=" + path,
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := buildApp(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.Close()

	sess := a.store.Create()
	if err := a.engine.Run(context.Background(), sess.ID, "I want to check out early"); err != nil {
		t.Fatalf("run: %v", err)
	}
	snapshot, _ := a.store.Get(sess.ID)
	if snapshot.Status != session.StatusCompleted {
		t.Fatalf("expected completed, got %s", snapshot.Status)
	}
	for _, action := range snapshot.Actions {
		if action.Kind == session.KindToolCall {
			t.Fatalf("graph without a tool loop must not call tools: %+v", action)
		}
	}
}

func TestBuildAppRejectsMissingPipeline(t *testing.T) {
	cfg, err := config.LoadWithCLI([]string{
		"--set", "llm.provider=mock",
		"--set", "log.level=error",
		"--set", "agent.pipeline=" + filepath.Join(t.TempDir(), "missing.yaml"),
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if a, err := buildApp(cfg); err == nil {
		a.Close()
		t.Fatalf("expected an error for a missing pipeline file")
	}
}
