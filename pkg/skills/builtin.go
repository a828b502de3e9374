// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import "embed"

//go:embed builtin/*.md
var builtinFS embed.FS

// Builtin returns the skills shipped with the binary.
func Builtin() ([]Skill, error) {
	return LoadFS(builtinFS, "builtin")
}
