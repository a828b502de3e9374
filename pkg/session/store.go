// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"sync"
	"time"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/google/uuid"
)

// Store holds every live session. Each session has its own mutex so index
// assignment, status writes and message appends on one session are
// serialized without blocking other sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
	latest   string
	history  HistoryStore
	now      func() time.Time
}

type state struct {
	mu         sync.Mutex
	id         string
	status     Status
	actions    []Action
	nextIndex  int
	finalReply *string
	unread     []Channel
	messages   []Message
	createdAt  time.Time
}

// NewStore creates a store that saves snapshots to history. A nil history
// uses an in-memory store.
func NewStore(history HistoryStore) *Store {
	if history == nil {
		history = NewMemoryHistoryStore()
	}
	return &Store{
		sessions: make(map[string]*state),
		history:  history,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// History returns the history store.
func (s *Store) History() HistoryStore {
	return s.history
}

// Create starts a new idle session.
func (s *Store) Create() Snapshot {
	st := &state{
		id:        uuid.NewString(),
		status:    StatusIdle,
		createdAt: s.now(),
	}
	s.mu.Lock()
	s.sessions[st.id] = st
	s.latest = st.id
	s.mu.Unlock()
	return st.snapshot()
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (Snapshot, error) {
	st, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshot(), nil
}

// Latest returns the most recently created session that is still live.
func (s *Store) Latest() (Snapshot, error) {
	s.mu.RLock()
	id := s.latest
	s.mu.RUnlock()
	if id == "" {
		return Snapshot{}, cerrors.New(cerrors.CodeSessionNotFound, "no active session", nil)
	}
	return s.Get(id)
}

// Delete drops one session. History is kept.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return notFound(id)
	}
	delete(s.sessions, id)
	if s.latest == id {
		s.latest = ""
	}
	return nil
}

// Clear drops every live session. History is kept.
func (s *Store) Clear() {
	s.mu.Lock()
	s.sessions = make(map[string]*state)
	s.latest = ""
	s.mu.Unlock()
}

// AddAction appends an action and assigns it the next index of the session.
func (s *Store) AddAction(id string, kind ActionKind, title, summary string, status ActionStatus, detail map[string]any) (Action, error) {
	st, err := s.lookup(id)
	if err != nil {
		return Action{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	a := Action{
		Index:     st.nextIndex,
		Kind:      kind,
		Title:     title,
		Summary:   summary,
		Status:    status,
		Detail:    cloneDetail(detail),
		Timestamp: s.now(),
	}
	st.nextIndex++
	st.actions = append(st.actions, a)
	a.Detail = cloneDetail(a.Detail)
	return a, nil
}

// UpdateAction moves the running action at index to status. A nil detail
// and an empty summary leave the current values in place. Actions that
// already reached a terminal status are immutable.
func (s *Store) UpdateAction(id string, index int, status ActionStatus, detail map[string]any, summary string) error {
	st, err := s.lookup(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.actions {
		if st.actions[i].Index != index {
			continue
		}
		if st.actions[i].Status.Terminal() {
			return cerrors.Newf(cerrors.CodeInvalidInput, "action %d already finished with status %s", index, st.actions[i].Status).
				WithContext("session_id", id)
		}
		st.actions[i].Status = status
		if detail != nil {
			st.actions[i].Detail = cloneDetail(detail)
		}
		if summary != "" {
			st.actions[i].Summary = summary
		}
		return nil
	}
	return cerrors.Newf(cerrors.CodeNotFound, "action with index %d not found", index).
		WithContext("session_id", id)
}

// Actions returns the actions with an index greater than afterIndex.
// Pass -1 for the full log.
func (s *Store) Actions(id string, afterIndex int) ([]Action, error) {
	st, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Action, 0, len(st.actions))
	for _, a := range st.actions {
		if a.Index > afterIndex {
			out = append(out, a)
		}
	}
	return cloneActions(out), nil
}

// SetFinalReply records the reply shown to the caller.
func (s *Store) SetFinalReply(id, reply string) error {
	st, err := s.lookup(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	st.finalReply = &reply
	st.mu.Unlock()
	return nil
}

// UpdateStatus sets the session status.
func (s *Store) UpdateStatus(id string, status Status) error {
	st, err := s.lookup(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	st.status = status
	st.mu.Unlock()
	return nil
}

// AddMessage appends a message to a channel of the session.
func (s *Store) AddMessage(id string, channel Channel, sender, content string) (Message, error) {
	st, err := s.lookup(id)
	if err != nil {
		return Message{}, err
	}
	msg := Message{Channel: channel, Sender: sender, Content: content, Timestamp: s.now()}
	st.mu.Lock()
	st.messages = append(st.messages, msg)
	st.mu.Unlock()
	return msg, nil
}

// Messages returns the messages of one channel in arrival order.
func (s *Store) Messages(id string, channel Channel) ([]Message, error) {
	st, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Message, 0, len(st.messages))
	for _, m := range st.messages {
		if m.Channel == channel {
			out = append(out, m)
		}
	}
	return out, nil
}

// MarkUnread flags a channel as having unread messages.
func (s *Store) MarkUnread(id string, channel Channel) error {
	st, err := s.lookup(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, c := range st.unread {
		if c == channel {
			return nil
		}
	}
	st.unread = append(st.unread, channel)
	return nil
}

// ClearUnread removes the unread flag of a channel.
func (s *Store) ClearUnread(id string, channel Channel) error {
	st, err := s.lookup(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, c := range st.unread {
		if c == channel {
			st.unread = append(st.unread[:i], st.unread[i+1:]...)
			break
		}
	}
	return nil
}

// SaveHistory stores an immutable snapshot of the session with a deep copy
// of its action log.
func (s *Store) SaveHistory(ctx context.Context, id, triggerMessage string, skillName *string) (HistoryEntry, error) {
	st, err := s.lookup(id)
	if err != nil {
		return HistoryEntry{}, err
	}
	st.mu.Lock()
	entry := HistoryEntry{
		ExecutionID:    uuid.NewString(),
		SessionID:      id,
		TriggerMessage: triggerMessage,
		SkillName:      skillName,
		Status:         st.status,
		Actions:        cloneActions(st.actions),
		CreatedAt:      s.now(),
	}
	st.mu.Unlock()

	if err := s.history.Save(ctx, entry); err != nil {
		return HistoryEntry{}, cerrors.New(cerrors.CodeStorage, "save history", err).
			WithContext("session_id", id)
	}
	return entry, nil
}

func (s *Store) lookup(id string) (*state, error) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return st, nil
}

func notFound(id string) error {
	return cerrors.Newf(cerrors.CodeSessionNotFound, "session %s not found", id).
		WithContext("session_id", id)
}

// snapshot must be called with st.mu held, or before st is shared.
func (st *state) snapshot() Snapshot {
	var reply *string
	if st.finalReply != nil {
		r := *st.finalReply
		reply = &r
	}
	unread := make([]Channel, len(st.unread))
	copy(unread, st.unread)
	return Snapshot{
		ID:             st.id,
		Status:         st.status,
		Actions:        cloneActions(st.actions),
		FinalReply:     reply,
		UnreadChannels: unread,
		CreatedAt:      st.createdAt,
	}
}
