// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override (CONCIERGE_LLM_MODEL -> llm.model).
const EnvPrefix = "CONCIERGE_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Server    ServerConfig    `koanf:"server"`
	Agent     AgentConfig     `koanf:"agent"`
	Skills    SkillsConfig    `koanf:"skills"`
	History   HistoryConfig   `koanf:"history"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider       string  `koanf:"provider"` // ollama, mock
	Model          string  `koanf:"model"`
	BaseURL        string  `koanf:"base_url"`
	Temperature    float64 `koanf:"temperature"`
	TimeoutSeconds int     `koanf:"timeout_seconds"`
	// RetryAttempts counts the first call; 1 disables retries.
	RetryAttempts          int `koanf:"retry_attempts"`
	BreakerThreshold       int `koanf:"breaker_threshold"`
	BreakerCooldownSeconds int `koanf:"breaker_cooldown_seconds"`
}

type ServerConfig struct {
	Addr        string   `koanf:"addr"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type AgentConfig struct {
	MaxIterations int `koanf:"max_iterations"`
	// Pipeline is a YAML or JSON graph file; empty uses the embedded graph.
	Pipeline string `koanf:"pipeline"`
}

type SkillsConfig struct {
	// Dir is scanned for skills; empty uses the embedded builtin set.
	Dir           string `koanf:"dir"`
	ReloadSeconds int    `koanf:"reload_seconds"`
}

type HistoryConfig struct {
	Driver string `koanf:"driver"` // memory, sqlite
	DSN    string `koanf:"dsn"`
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

// Global k instance
var k = koanf.New(".")

func setDefaults() {
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("llm.provider", "ollama")
	k.Set("llm.model", "qwen2.5:7b-instruct")
	k.Set("llm.base_url", "http://localhost:11434")
	k.Set("llm.temperature", 0.0)
	k.Set("llm.timeout_seconds", 120)
	k.Set("llm.retry_attempts", 1)
	k.Set("llm.breaker_threshold", 5)
	k.Set("llm.breaker_cooldown_seconds", 30)

	k.Set("server.addr", ":8000")
	k.Set("server.cors_origins", []string{"http://localhost:5173"})

	k.Set("agent.max_iterations", 20)
	k.Set("agent.pipeline", "")

	k.Set("skills.dir", "")
	k.Set("skills.reload_seconds", 0)

	k.Set("history.driver", "memory")
	k.Set("history.dsn", "file:concierge.db")

	k.Set("telemetry.enabled", false)
	k.Set("telemetry.exporter", "stdout")
}

// Load reads defaults, then the YAML file at path (if any), then the environment.
func Load(path string) (*Config, error) {
	return load(path, "", nil)
}

// LoadWithProfile loads path and overlays config.<profile>.yaml from the
// same directory when it exists.
func LoadWithProfile(path, profile string) (*Config, error) {
	return load(path, profile, nil)
}

// LoadWithCLI behaves like Load but also accepts "--config <path>",
// "--profile <name>" (alias "--env") and "--set key=value" arguments.
// --set values are applied last.
func LoadWithCLI(args []string) (*Config, error) {
	opts, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	return load(opts.path, opts.profile, opts.sets)
}

func load(path, profile string, sets map[string]any) (*Config, error) {
	k = koanf.New(".")
	setDefaults()

	// 1. Load from file, then the profile overlay
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if overlay := profileConfigPath(path, profile); overlay != "" {
		if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load profile config %s: %w", overlay, err)
		}
	}

	// 2. Load from ENV (CONCIERGE_LLM_BASE_URL -> llm.base_url)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	// 3. CLI overrides
	for key, value := range sets {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("apply --set %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	if c.LLM.RetryAttempts < 1 {
		return fmt.Errorf("llm.retry_attempts must be at least 1, got %d", c.LLM.RetryAttempts)
	}
	switch c.History.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown history.driver %q", c.History.Driver)
	}
	switch c.LLM.Provider {
	case "ollama", "mock":
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	return nil
}

// profileConfigPath returns config.<profile>.yaml next to base, or "" when
// there is no such file.
func profileConfigPath(base, profile string) string {
	if base == "" || profile == "" {
		return ""
	}
	ext := filepath.Ext(base)
	candidate := strings.TrimSuffix(base, ext) + "." + profile + ext
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

type cliOptions struct {
	path    string
	profile string
	sets    map[string]any
}

func parseCLIOverrides(args []string) (cliOptions, error) {
	opts := cliOptions{sets: make(map[string]any)}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, inline, hasInline := strings.Cut(arg, "=")
		switch name {
		case "--config", "--profile", "--env", "--set":
		default:
			return opts, fmt.Errorf("unknown config argument %q", arg)
		}
		value := inline
		if !hasInline {
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing value for %s", name)
			}
			value = args[i+1]
			i++
		}
		switch name {
		case "--config":
			opts.path = value
		case "--profile", "--env":
			opts.profile = value
		case "--set":
			key, decoded, err := parseSet(value)
			if err != nil {
				return opts, err
			}
			opts.sets[key] = decoded
		}
	}
	return opts, nil
}

// parseSet splits key=value; values that parse as JSON keep their type.
func parseSet(raw string) (string, any, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid --set value %q, expected key=value", raw)
	}
	var decoded any
	if err := json.Unmarshal([]byte(value), &decoded); err == nil {
		return key, decoded, nil
	}
	return key, value, nil
}
