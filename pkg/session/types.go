// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package session keeps the live state of agent runs: the action log, the
// channel messages, the final reply and the history of finished runs.
package session

import (
	"encoding/json"
	"time"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
)

// ActionKind identifies the step that produced an action.
type ActionKind string

const (
	KindIntentRecognition ActionKind = "intent_recognition"
	KindSkillLoaded       ActionKind = "skill_loaded"
	KindToolCall          ActionKind = "tool_call"
	KindWaiting           ActionKind = "waiting"
	KindMessageSent       ActionKind = "message_sent" // reserved
	KindCompleted         ActionKind = "completed"
)

// ActionStatus is the lifecycle state of an action.
type ActionStatus string

const (
	ActionRunning ActionStatus = "running"
	ActionSuccess ActionStatus = "success"
	ActionError   ActionStatus = "error"
)

// Terminal reports whether the status can no longer change.
func (s ActionStatus) Terminal() bool {
	return s == ActionSuccess || s == ActionError
}

// Status is the state of a session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Channel is a logical message stream.
type Channel string

const (
	ChannelChat       Channel = "chat"
	ChannelDownstream Channel = "downstream"
	ChannelUpstream   Channel = "upstream"
)

// Channels lists every valid channel.
func Channels() []Channel {
	return []Channel{ChannelChat, ChannelDownstream, ChannelUpstream}
}

// ParseChannel validates a channel name.
func ParseChannel(name string) (Channel, error) {
	for _, c := range Channels() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", cerrors.Newf(cerrors.CodeInvalidChannel, "invalid channel: %s", name).
		WithContext("channel", name)
}

// Action is one audit record of a run.
type Action struct {
	Index     int            `json:"index"`
	Kind      ActionKind     `json:"action_type"`
	Title     string         `json:"title"`
	Summary   string         `json:"summary"`
	Status    ActionStatus   `json:"status"`
	Detail    map[string]any `json:"detail"`
	Timestamp time.Time      `json:"timestamp"`
}

// Message is one entry of a channel.
type Message struct {
	Channel   Channel   `json:"channel"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID             string    `json:"session_id"`
	Status         Status    `json:"status"`
	Actions        []Action  `json:"actions"`
	FinalReply     *string   `json:"final_reply"`
	UnreadChannels []Channel `json:"unread_channels"`
	CreatedAt      time.Time `json:"created_at"`
}

// HistoryEntry is the immutable record of a finished run.
type HistoryEntry struct {
	ExecutionID    string    `json:"execution_id"`
	SessionID      string    `json:"session_id"`
	TriggerMessage string    `json:"trigger_message"`
	SkillName      *string   `json:"skill_name"`
	Status         Status    `json:"status"`
	Actions        []Action  `json:"actions"`
	CreatedAt      time.Time `json:"created_at"`
}

func cloneActions(in []Action) []Action {
	out := make([]Action, len(in))
	for i, a := range in {
		a.Detail = cloneDetail(a.Detail)
		out[i] = a
	}
	return out
}

// cloneDetail deep copies a detail payload through its JSON form, which is
// also the form it is served and persisted in.
func cloneDetail(detail map[string]any) map[string]any {
	if detail == nil {
		return nil
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		out := make(map[string]any, len(detail))
		for k, v := range detail {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
