// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package upstream simulates the supplier answering messages the agent
// relays to it.
package upstream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abcd1927/AI-coding-demo/pkg/core"
	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
)

// SenderSupplier is the sender name of simulated replies.
const SenderSupplier = "supplier"

// Channels is the part of the session store the simulator writes to.
type Channels interface {
	AddMessage(id string, channel session.Channel, sender, content string) (session.Message, error)
	MarkUnread(id string, channel session.Channel) error
}

// Simulator produces the supplier reply for a relayed message.
type Simulator struct {
	channels Channels
	logger   *slog.Logger
}

// NewSimulator returns a simulator writing to channels.
func NewSimulator(channels Channels, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{channels: channels, logger: logger}
}

// Reply returns the supplier answer for supplierOrderID, appends it to the
// upstream channel of the session in ctx and flags the channel unread.
func (s *Simulator) Reply(ctx context.Context, supplierOrderID string) (string, error) {
	id, ok := core.SessionID(ctx)
	if !ok {
		return "", cerrors.New(cerrors.CodeSessionNotFound, "no active session for upstream reply", nil)
	}
	reply := fmt.Sprintf("supplier order %s has been processed, refund can proceed", supplierOrderID)
	if _, err := s.channels.AddMessage(id, session.ChannelUpstream, SenderSupplier, reply); err != nil {
		return "", err
	}
	if err := s.channels.MarkUnread(id, session.ChannelUpstream); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "upstream.reply", "session_id", id, "supplier_order_id", supplierOrderID)
	return reply, nil
}
