// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package skills loads skill bundles: named prompt documents that tell the
// model how to handle one business intent.
package skills

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Skill is an immutable bundle looked up by intent id.
type Skill struct {
	ID          string `json:"skill_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Path        string `json:"-"`
}

const (
	maxIDLen          = 64
	maxDescriptionLen = 1024

	skillFileName = "SKILL.md"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

// Parse builds a skill from a flat markdown document: the first line
// (without leading #) is the name, the first non-empty non-heading line
// after it is the description and the whole document is the content.
func Parse(id, content string) Skill {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	name := id
	if len(lines) > 0 {
		if first := strings.TrimSpace(strings.TrimLeft(lines[0], "#")); first != "" {
			name = first
		}
	}
	description := ""
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			description = line
			break
		}
	}
	return Skill{ID: id, Name: name, Description: description, Content: content}
}

// LoadFile parses a flat markdown skill; the id is the file stem.
func LoadFile(p string) (Skill, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return Skill{}, err
	}
	skill := Parse(strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)), string(data))
	skill.Path = p
	return skill, nil
}

// LoadSkillFile parses a <dir>/SKILL.md file with YAML frontmatter.
func LoadSkillFile(p string) (Skill, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return Skill{}, err
	}
	skill, err := parseFrontmatterSkill(string(data))
	if err != nil {
		return Skill{}, fmt.Errorf("%s: %w", p, err)
	}
	if dirName := filepath.Base(filepath.Dir(p)); dirName != skill.ID {
		return Skill{}, fmt.Errorf("%s: name must match directory name (%s)", p, dirName)
	}
	skill.Path = p
	return skill, nil
}

// LoadDir scans root for flat *.md skills and for subdirectories holding a
// SKILL.md. Skills are returned sorted by id; duplicate ids are rejected.
func LoadDir(root string) ([]Skill, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []Skill
	for _, entry := range entries {
		full := filepath.Join(root, entry.Name())
		if entry.IsDir() {
			skillPath := filepath.Join(full, skillFileName)
			if _, err := os.Stat(skillPath); err != nil {
				continue
			}
			skill, err := LoadSkillFile(skillPath)
			if err != nil {
				return nil, err
			}
			out = append(out, skill)
			continue
		}
		if !isMarkdown(entry.Name()) {
			continue
		}
		skill, err := LoadFile(full)
		if err != nil {
			return nil, err
		}
		out = append(out, skill)
	}
	return finish(out)
}

// LoadFS loads flat *.md skills from dir inside fsys.
func LoadFS(fsys fs.FS, dir string) ([]Skill, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var out []Skill
	for _, entry := range entries {
		if entry.IsDir() || !isMarkdown(entry.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, Parse(strings.TrimSuffix(entry.Name(), ".md"), string(data)))
	}
	return finish(out)
}

func isMarkdown(name string) bool {
	return strings.HasSuffix(name, ".md") && name != skillFileName && !strings.HasPrefix(name, ".")
}

func finish(list []Skill) ([]Skill, error) {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		if err := validate(s); err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate skill id %q", s.ID)
		}
		seen[s.ID] = true
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

type frontmatter struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

func parseFrontmatterSkill(content string) (Skill, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return Skill{}, err
	}
	var parsed frontmatter
	if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
		return Skill{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	name := strings.TrimSpace(parsed.DisplayName)
	if name == "" {
		name = parsed.Name
	}
	return Skill{
		ID:          strings.TrimSpace(parsed.Name),
		Name:        name,
		Description: strings.TrimSpace(parsed.Description),
		Content:     body,
	}, nil
}

func splitFrontmatter(content string) (string, string, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", errors.New("missing frontmatter")
	}
	parts := strings.SplitN(trimmed, "---", 3)
	if len(parts) < 3 {
		return "", "", errors.New("invalid frontmatter")
	}
	return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

func validate(s Skill) error {
	if s.ID == "" {
		return errors.New("skill id is required")
	}
	if utf8.RuneCountInString(s.ID) > maxIDLen {
		return fmt.Errorf("skill id %q exceeds %d characters", s.ID, maxIDLen)
	}
	if !idPattern.MatchString(s.ID) {
		return fmt.Errorf("skill id %q must match %s", s.ID, idPattern.String())
	}
	if utf8.RuneCountInString(s.Description) > maxDescriptionLen {
		return fmt.Errorf("skill %s: description exceeds %d characters", s.ID, maxDescriptionLen)
	}
	if strings.TrimSpace(s.Content) == "" {
		return fmt.Errorf("skill %s: content is empty", s.ID)
	}
	return nil
}
