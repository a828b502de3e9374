// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"

	"github.com/abcd1927/AI-coding-demo/pkg/core"
	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
)

// Error types reported by message_send.
const (
	ErrTypeEmptyContent   = "EMPTY_CONTENT"
	ErrTypeInvalidChannel = "INVALID_CHANNEL"
)

// Channels is the part of the session store message_send writes to.
type Channels interface {
	AddMessage(id string, channel session.Channel, sender, content string) (session.Message, error)
	MarkUnread(id string, channel session.Channel) error
}

// MessageSend posts a message on a channel of the current session.
type MessageSend struct {
	channels Channels
}

// NewMessageSend returns the message_send tool.
func NewMessageSend(channels Channels) *MessageSend {
	return &MessageSend{channels: channels}
}

func (t *MessageSend) Definition() Definition {
	return Definition{
		Name:        "message_send",
		Description: "Send a message to a channel (downstream for the distributor, upstream for the supplier)",
		Parameters: objectSchema([]property{
			{"channel", "Target channel: downstream or upstream"},
			{"content", "Message content"},
			{"sender", "Sender name, defaults to agent"},
		}, "channel", "content"),
	}
}

// Call appends the message and flags the channel unread. The session is
// taken from ctx; calling without one is an execution error.
func (t *MessageSend) Call(ctx context.Context, args map[string]any) (Result, error) {
	content := stringArg(args, "content")
	if content == "" {
		return Fail(ErrTypeEmptyContent, "message content must not be empty"), nil
	}
	name := stringArg(args, "channel")
	channel, err := session.ParseChannel(name)
	if err != nil {
		return Fail(ErrTypeInvalidChannel, "invalid channel: "+name), nil
	}
	sender := stringArg(args, "sender")
	if sender == "" {
		sender = "agent"
	}

	id, ok := core.SessionID(ctx)
	if !ok {
		return Result{}, cerrors.New(cerrors.CodeSessionNotFound, "message_send requires an active session", nil)
	}
	if _, err := t.channels.AddMessage(id, channel, sender, content); err != nil {
		return Result{}, err
	}
	if err := t.channels.MarkUnread(id, channel); err != nil {
		return Result{}, err
	}
	return OK(map[string]any{"channel": string(channel), "content": content}), nil
}
