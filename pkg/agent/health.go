// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abcd1927/AI-coding-demo/pkg/core"
)

// ModelHealthChecker probes the model backend, caching the result for
// minInterval so health polling does not hammer the provider.
type ModelHealthChecker struct {
	name        string
	checkFunc   func(ctx context.Context) error
	lastCheck   time.Time
	lastResult  core.HealthResult
	minInterval time.Duration
	mu          sync.RWMutex
}

// NewModelHealthChecker creates a health checker for a model provider.
func NewModelHealthChecker(name string, checkFunc func(ctx context.Context) error) *ModelHealthChecker {
	return &ModelHealthChecker{
		name:        name,
		checkFunc:   checkFunc,
		minInterval: 30 * time.Second,
	}
}

// Check returns the health status of the model provider.
func (h *ModelHealthChecker) Check(ctx context.Context) core.HealthResult {
	h.mu.RLock()
	if time.Since(h.lastCheck) < h.minInterval && !h.lastResult.LastCheck.IsZero() {
		result := h.lastResult
		h.mu.RUnlock()
		return result
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	// Double-check after acquiring write lock
	if time.Since(h.lastCheck) < h.minInterval && !h.lastResult.LastCheck.IsZero() {
		return h.lastResult
	}

	result := core.HealthResult{
		Component: "llm:" + h.name,
		LastCheck: time.Now(),
	}
	switch {
	case h.checkFunc == nil:
		result.Status = core.HealthHealthy
		result.Message = "model provider available (no health check configured)"
	default:
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := h.checkFunc(checkCtx); err != nil {
			result.Status = core.HealthUnhealthy
			result.Message = err.Error()
		} else {
			result.Status = core.HealthHealthy
			result.Message = "model provider reachable"
		}
	}

	h.lastResult = result
	h.lastCheck = time.Now()
	return result
}

// SkillsHealthChecker reports degraded when the catalogue is empty: every
// message would then end with the unsupported-scenario reply.
func SkillsHealthChecker(lookup SkillLookup) core.HealthChecker {
	return core.HealthCheckerFunc(func(ctx context.Context) core.HealthResult {
		n := len(lookup.List())
		result := core.HealthResult{
			Component: "skills",
			Status:    core.HealthHealthy,
			Message:   fmt.Sprintf("%d skills loaded", n),
			LastCheck: time.Now(),
		}
		if n == 0 {
			result.Status = core.HealthDegraded
		}
		return result
	})
}
