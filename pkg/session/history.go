// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"sync"

	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
)

// HistoryStore persists finished runs.
type HistoryStore interface {
	Save(ctx context.Context, entry HistoryEntry) error
	// List returns entries newest first; limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
	Get(ctx context.Context, executionID string) (HistoryEntry, error)
	Close() error
}

// MemoryHistoryStore keeps history in memory.
type MemoryHistoryStore struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

// NewMemoryHistoryStore returns an empty in-memory history.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

// Save appends an entry.
func (s *MemoryHistoryStore) Save(_ context.Context, entry HistoryEntry) error {
	entry.Actions = cloneActions(entry.Actions)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns entries newest first.
func (s *MemoryHistoryStore) List(_ context.Context, limit int) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		e.Actions = cloneActions(e.Actions)
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Get returns one entry by execution id.
func (s *MemoryHistoryStore) Get(_ context.Context, executionID string) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ExecutionID == executionID {
			e.Actions = cloneActions(e.Actions)
			return e, nil
		}
	}
	return HistoryEntry{}, historyNotFound(executionID)
}

// Close is a no-op.
func (s *MemoryHistoryStore) Close() error { return nil }

func historyNotFound(id string) error {
	return cerrors.Newf(cerrors.CodeNotFound, "execution %s not found", id).
		WithContext("execution_id", id)
}
