// Copyright 2025 Prompt Enhancer Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWithOptions(LoadOptions{ValidateRequired: true})
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Expected default TTL 30m, got %v", cfg.Session.TTL)
	}
	if cfg.Session.MaxSessions != 1000 {
		t.Errorf("Expected default max sessions 1000, got %d", cfg.Session.MaxSessions)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Storage.DBPath == "" {
		t.Error("Expected a default database path")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
providers:
  openai:
    apikey: sk-file-key
    model: gpt-4
logging:
  level: debug
  format: text
storage:
  db_path: ":memory:"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Providers.OpenAI.APIKey != "sk-file-key" {
		t.Errorf("Expected file API key, got %q", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Providers.OpenAI.Model != "gpt-4" {
		t.Errorf("Expected file model, got %q", cfg.Providers.OpenAI.Model)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadMissingFileIsError(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for explicitly named missing config file")
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
providers:
  groq:
    apikey: file-key
`)
	t.Setenv("GROQ_API_KEY", "env-key")
	t.Setenv("GROQ_MODEL", "mixtral-8x7b-32768")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Providers.Groq.APIKey != "env-key" {
		t.Errorf("Expected env var to win, got %q", cfg.Providers.Groq.APIKey)
	}
	if cfg.Providers.Groq.Model != "mixtral-8x7b-32768" {
		t.Errorf("Expected env model, got %q", cfg.Providers.Groq.Model)
	}
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"bad max sessions", func(c *Config) { c.Session.MaxSessions = -1 }, "session.max_sessions"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }, "storage.db_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithOptions(LoadOptions{ValidateRequired: false})
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			err = validateConfig(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Expected error to name %q, got %v", tt.field, err)
			}
		})
	}
}

func TestMemoryDBPathSkipsDirectoryCheck(t *testing.T) {
	cfg, err := LoadWithOptions(LoadOptions{ValidateRequired: false})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Storage.DBPath = ":memory:"
	if err := validateConfig(cfg); err != nil {
		t.Errorf("In-memory path should validate, got %v", err)
	}
}

func TestMissingProviderKeysAreNotFatal(t *testing.T) {
	cfg, err := LoadWithOptions(LoadOptions{ValidateRequired: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if os.Getenv("OPENAI_API_KEY") == "" && cfg.Providers.OpenAI.APIKey != "" {
		t.Errorf("Expected empty OpenAI key, got %q", cfg.Providers.OpenAI.APIKey)
	}
}

func TestMaskSensitiveValues(t *testing.T) {
	cfg := &Config{}
	cfg.Providers.OpenAI.APIKey = "sk-proj-abcdefghijklmnop"
	cfg.Providers.Groq.APIKey = "short"

	masked := cfg.MaskSensitiveValues()

	if !strings.HasPrefix(masked.Providers.OpenAI.APIKey, "sk-proj-") {
		t.Errorf("Expected first 8 chars preserved, got %q", masked.Providers.OpenAI.APIKey)
	}
	if strings.Contains(masked.Providers.OpenAI.APIKey, "abcdefghijklmnop") {
		t.Errorf("Key tail must be masked, got %q", masked.Providers.OpenAI.APIKey)
	}
	if masked.Providers.Groq.APIKey != "*****" {
		t.Errorf("Short keys should be fully masked, got %q", masked.Providers.Groq.APIKey)
	}
	if masked.Providers.Gemini.APIKey != "" {
		t.Errorf("Empty keys stay empty, got %q", masked.Providers.Gemini.APIKey)
	}

	// Original must be untouched
	if cfg.Providers.OpenAI.APIKey != "sk-proj-abcdefghijklmnop" {
		t.Error("MaskSensitiveValues must not mutate the original config")
	}
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"12345678", "********"},
		{"123456789", "12345678*"},
	}
	for _, tt := range tests {
		if got := maskValue(tt.input); got != tt.want {
			t.Errorf("maskValue(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
