// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"sort"
	"sync"
)

// Catalog is a read-mostly, id keyed set of skills. Replace swaps the whole
// set atomically so readers never observe a partial reload.
type Catalog struct {
	mu     sync.RWMutex
	byID   map[string]Skill
	sorted []Skill
}

// NewCatalog creates a catalog holding skills.
func NewCatalog(skills ...Skill) *Catalog {
	c := &Catalog{}
	c.Replace(skills)
	return c
}

// Get returns the skill with the given id.
func (c *Catalog) Get(id string) (Skill, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.byID[id]
	return s, ok
}

// List returns every skill sorted by id.
func (c *Catalog) List() []Skill {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Skill, len(c.sorted))
	copy(out, c.sorted)
	return out
}

// Len returns the number of skills.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sorted)
}

// Replace swaps the catalog content. Later duplicates win.
func (c *Catalog) Replace(skills []Skill) {
	byID := make(map[string]Skill, len(skills))
	for _, s := range skills {
		byID[s.ID] = s
	}
	sorted := make([]Skill, 0, len(byID))
	for _, s := range byID {
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c.mu.Lock()
	c.byID = byID
	c.sorted = sorted
	c.mu.Unlock()
}
