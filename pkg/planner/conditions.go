// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"fmt"
	"strings"
)

type operator int

const (
	opEquals operator = iota
	opNotEquals
	opContains
)

// condition is a parsed edge condition:
//
//	last==v | last!=v | last.contains:v
//	output.<node>.<path>==v | output.<node>.<path>!=v | output.<node>.<path>.contains:v
type condition struct {
	node  string // empty for last
	path  []string
	op    operator
	value string
}

const containsSuffix = ".contains:"

func isDefault(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || raw == "default"
}

func parseCondition(raw string) (condition, error) {
	raw = strings.TrimSpace(raw)
	// the leftmost operator splits subject and value
	idx, op, width := -1, opEquals, 0
	for _, candidate := range []struct {
		token string
		op    operator
	}{{"==", opEquals}, {"!=", opNotEquals}, {containsSuffix, opContains}} {
		if i := strings.Index(raw, candidate.token); i >= 0 && (idx < 0 || i < idx) {
			idx, op, width = i, candidate.op, len(candidate.token)
		}
	}
	if idx < 0 {
		return condition{}, fmt.Errorf("unsupported condition %q", raw)
	}
	c := condition{op: op, value: raw[idx+width:]}
	subject := strings.TrimSpace(raw[:idx])
	c.value = strings.TrimSpace(c.value)

	if subject == "last" {
		return c, nil
	}
	rest, ok := strings.CutPrefix(subject, "output.")
	if !ok {
		return condition{}, fmt.Errorf("unsupported condition subject %q", subject)
	}
	parts := strings.Split(rest, ".")
	for _, p := range parts {
		if p == "" {
			return condition{}, fmt.Errorf("invalid output path in %q", raw)
		}
	}
	c.node = parts[0]
	c.path = parts[1:]
	return c, nil
}

// evaluateCondition reports whether raw holds for state. Default
// conditions always hold.
func evaluateCondition(raw string, state *State) (bool, error) {
	if isDefault(raw) {
		return true, nil
	}
	c, err := parseCondition(raw)
	if err != nil {
		return false, err
	}

	var subject any
	if c.node == "" {
		subject = state.Last
	} else {
		out, ok := state.Outputs[c.node]
		if !ok {
			return false, nil
		}
		subject, ok = lookupPath(out, c.path)
		if !ok {
			// a missing field only satisfies !=
			return c.op == opNotEquals, nil
		}
	}

	text := stringify(subject)
	switch c.op {
	case opEquals:
		return text == c.value, nil
	case opNotEquals:
		return text != c.value, nil
	default:
		return strings.Contains(text, c.value), nil
	}
}

// FieldGetter lets typed node outputs take part in output.<node>.<path>
// conditions.
type FieldGetter interface {
	Field(name string) (any, bool)
}

func lookupPath(value any, path []string) (any, bool) {
	current := value
	for _, key := range path {
		switch m := current.(type) {
		case FieldGetter:
			next, ok := m.Field(key)
			if !ok {
				return nil, false
			}
			current = next
		case map[string]any:
			next, ok := m[key]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := m[key]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
