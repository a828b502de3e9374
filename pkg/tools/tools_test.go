// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/abcd1927/AI-coding-demo/pkg/core"
	"github.com/abcd1927/AI-coding-demo/pkg/orders"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
)

func newTestRegistry(t *testing.T) (*Registry, *session.Store, string) {
	t.Helper()
	store := session.NewStore(nil)
	id := store.Create().ID
	return NewDefaultRegistry(orders.NewRepository(), store), store, id
}

func call(t *testing.T, r *Registry, ctx context.Context, name string, args map[string]any) Result {
	t.Helper()
	tool, ok := r.Get(name)
	if !ok {
		t.Fatalf("tool %s not registered", name)
	}
	res, err := tool.Call(ctx, args)
	if err != nil {
		t.Fatalf("%s: unexpected error %v", name, err)
	}
	return res
}

func TestRegistryCatalog(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	defs := r.List()
	want := []string{"message_send", "order_cancel", "order_query", "refund"}
	if len(defs) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(defs))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Fatalf("expected %s at %d, got %s", name, i, defs[i].Name)
		}
		if defs[i].Parameters["type"] != "object" {
			t.Fatalf("%s: expected object schema", name)
		}
	}
	llmTools := r.LLMTools()
	if len(llmTools) != 4 || llmTools[0].Function.Name != "message_send" {
		t.Fatalf("unexpected llm tools %+v", llmTools)
	}
	if err := r.Register(NewRefund(orders.NewRepository())); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestOrderQuery(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	res := call(t, r, context.Background(), "order_query", map[string]any{"order_id": "HT20260301001"})
	if !res.Success || res.Data["supplier_order_id"] != "SUP-88901" {
		t.Fatalf("unexpected result %+v", res)
	}
	res = call(t, r, context.Background(), "order_query", map[string]any{"order_id": "HT0"})
	if !res.Error || res.ErrorType != ErrTypeOrderNotFound {
		t.Fatalf("expected ORDER_NOT_FOUND, got %+v", res)
	}
}

func TestOrderCancel(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()
	tests := []struct {
		name    string
		args    map[string]any
		errType string
	}{
		{"missing id", map[string]any{}, ErrTypeMissingOrderID},
		{"unknown order", map[string]any{"order_id": "HT0"}, ErrTypeOrderNotFound},
		{"first cancel", map[string]any{"order_id": "HT20260301002"}, ""},
		{"second cancel", map[string]any{"order_id": "HT20260301002"}, ErrTypeAlreadyCancelled},
	}
	for _, tt := range tests {
		res := call(t, r, ctx, "order_cancel", tt.args)
		if tt.errType == "" {
			if !res.Success || res.Data["cancel_status"] != orders.StatusCancelled {
				t.Fatalf("%s: unexpected result %+v", tt.name, res)
			}
			continue
		}
		if res.ErrorType != tt.errType {
			t.Fatalf("%s: expected %s, got %+v", tt.name, tt.errType, res)
		}
	}
}

func TestRefund(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := context.Background()

	res := call(t, r, ctx, "refund", map[string]any{"order_id": "HT20260301001"})
	if !res.Success || res.Data["refund_status"] != "approved" || res.Data["supplier_order_id"] != "SUP-88901" {
		t.Fatalf("unexpected result %+v", res)
	}
	res = call(t, r, ctx, "refund", map[string]any{"order_id": "HT20260301001", "supplier_order_id": "SUP-X"})
	if res.Data["supplier_order_id"] != "SUP-X" {
		t.Fatalf("expected explicit supplier id to win, got %v", res.Data["supplier_order_id"])
	}
	if res := call(t, r, ctx, "refund", nil); res.ErrorType != ErrTypeMissingOrderID {
		t.Fatalf("expected MISSING_ORDER_ID, got %+v", res)
	}
	if res := call(t, r, ctx, "refund", map[string]any{"order_id": "nope"}); res.ErrorType != ErrTypeOrderNotFound {
		t.Fatalf("expected ORDER_NOT_FOUND, got %+v", res)
	}
}

func TestMessageSend(t *testing.T) {
	r, store, id := newTestRegistry(t)
	ctx := core.WithSessionID(context.Background(), id)

	res := call(t, r, ctx, "message_send", map[string]any{"channel": "downstream", "content": "refund approved"})
	if !res.Success {
		t.Fatalf("unexpected result %+v", res)
	}
	msgs, _ := store.Messages(id, session.ChannelDownstream)
	if len(msgs) != 1 || msgs[0].Sender != "agent" {
		t.Fatalf("unexpected downstream messages %+v", msgs)
	}
	snap, _ := store.Get(id)
	if len(snap.UnreadChannels) != 1 || snap.UnreadChannels[0] != session.ChannelDownstream {
		t.Fatalf("expected downstream unread, got %v", snap.UnreadChannels)
	}

	if res := call(t, r, ctx, "message_send", map[string]any{"channel": "downstream", "content": ""}); res.ErrorType != ErrTypeEmptyContent {
		t.Fatalf("expected EMPTY_CONTENT, got %+v", res)
	}
	if res := call(t, r, ctx, "message_send", map[string]any{"channel": "fax", "content": "x"}); res.ErrorType != ErrTypeInvalidChannel {
		t.Fatalf("expected INVALID_CHANNEL, got %+v", res)
	}

	tool, _ := r.Get("message_send")
	if _, err := tool.Call(context.Background(), map[string]any{"channel": "upstream", "content": "x"}); err == nil {
		t.Fatalf("expected error without session")
	}
}

func TestResultWireForm(t *testing.T) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(Fail(ErrTypeOrderNotFound, "order not found").JSON()), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["error"] != true || decoded["error_type"] != ErrTypeOrderNotFound || decoded["message"] != "order not found" {
		t.Fatalf("unexpected error form %v", decoded)
	}
	ok := OK(map[string]any{"a": "b"}).Map()
	if ok["success"] != true || ok["data"].(map[string]any)["a"] != "b" {
		t.Fatalf("unexpected success form %v", ok)
	}
}

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    int
		wantErr bool
	}{
		{"nil", nil, 0, false},
		{"map", map[string]any{"a": 1}, 1, false},
		{"json string", `{"order_id":"HT1"}`, 1, false},
		{"blank string", "  ", 0, false},
		{"raw", json.RawMessage(`{"a":1,"b":2}`), 2, false},
		{"struct", struct {
			OrderID string `json:"order_id"`
		}{"HT1"}, 1, false},
		{"invalid", "not json", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeArgs(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d keys, got %v", tt.want, got)
			}
		})
	}
}
