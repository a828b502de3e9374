// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Watcher polls a skills directory and reloads a Catalog when any markdown
// file is added, removed or modified.
type Watcher struct {
	mu          sync.Mutex
	dir         string
	catalog     *Catalog
	interval    time.Duration
	fingerprint string
	listeners   []func([]Skill)
	stopCh      chan struct{}
	doneCh      chan struct{}
	stopOnce    sync.Once
	logger      *slog.Logger
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets the polling interval.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWatchLogger sets the logger for the watcher.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher loads dir into catalog and returns a watcher ready to Start.
func NewWatcher(dir string, catalog *Catalog, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		dir:      dir,
		catalog:  catalog,
		interval: 2 * time.Second,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	fp, err := fingerprint(dir)
	if err != nil {
		return nil, err
	}
	loaded, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	w.fingerprint = fp
	catalog.Replace(loaded)
	return w, nil
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(fn func([]Skill)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop stops polling and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check reloads the catalog if the directory changed since the last load.
// It reports whether a reload happened.
func (w *Watcher) Check() bool {
	fp, err := fingerprint(w.dir)
	if err != nil {
		w.logger.Warn("skills.watch.scan_failed", "dir", w.dir, "error", err)
		return false
	}

	w.mu.Lock()
	if fp == w.fingerprint {
		w.mu.Unlock()
		return false
	}
	w.fingerprint = fp
	w.mu.Unlock()

	loaded, err := LoadDir(w.dir)
	if err != nil {
		// keep serving the previous set
		w.logger.Error("skills.reload.failed", "dir", w.dir, "error", err)
		return false
	}
	w.catalog.Replace(loaded)
	w.logger.Info("skills.reloaded", "dir", w.dir, "count", len(loaded))

	w.mu.Lock()
	listeners := make([]func([]Skill), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(loaded)
	}
	return true
}

// fingerprint summarises path, size and mod time of every markdown file
// under dir.
func fingerprint(dir string) (string, error) {
	var parts []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		parts = append(parts, fmt.Sprintf("%s|%d|%d", p, info.Size(), info.ModTime().UnixNano()))
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(parts)
	return strings.Join(parts, "\n"), nil
}
