// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "negative message gap",
			mutate: func(c *Config) { c.Widget.MinMessageGapMs = -1 },
			field:  "widget.min_message_gap_ms",
		},
		{
			name:   "zero max length",
			mutate: func(c *Config) { c.Widget.MaxMessageLength = 0 },
			field:  "widget.max_message_length",
		},
		{
			name:   "cooldown too long",
			mutate: func(c *Config) { c.Widget.RateLimitCooldownSecs = 7200 },
			field:  "widget.rate_limit_cooldown_secs",
		},
		{
			name:   "bad base URL",
			mutate: func(c *Config) { c.Backend.BaseURL = "not a url" },
			field:  "backend.base_url",
		},
		{
			name:   "excessive retries",
			mutate: func(c *Config) { c.Backend.MaxRetries = 50 },
			field:  "backend.max_retries",
		},
		{
			name:   "zero gate rate",
			mutate: func(c *Config) { c.Gate.RequestsPerMinute = 0 },
			field:  "gate.requests_per_minute",
		},
		{
			name:   "unknown theme",
			mutate: func(c *Config) { c.UI.Theme = "solarized" },
			field:  "ui.theme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Validate() = %q, want mention of %q", err, tt.field)
			}
		})
	}
}

func TestSetDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Widget.WelcomeMessage == "" {
		t.Error("Widget.WelcomeMessage not filled")
	}
	if cfg.Widget.MinMessageGapMs != 1000 {
		t.Errorf("Widget.MinMessageGapMs = %d, want 1000", cfg.Widget.MinMessageGapMs)
	}
	if cfg.Widget.MaxMessageLength != 1000 {
		t.Errorf("Widget.MaxMessageLength = %d, want 1000", cfg.Widget.MaxMessageLength)
	}
	if cfg.Widget.RateLimitCooldownSecs != 60 {
		t.Errorf("Widget.RateLimitCooldownSecs = %d, want 60", cfg.Widget.RateLimitCooldownSecs)
	}
	if cfg.Gate.RequestsPerMinute != 20 {
		t.Errorf("Gate.RequestsPerMinute = %d, want 20", cfg.Gate.RequestsPerMinute)
	}
	if cfg.Server.ListenAddr == "" {
		t.Error("Server.ListenAddr not filled")
	}
}

func TestSetDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Widget.MinMessageGapMs = 250
	cfg.UI.Theme = "light"
	cfg.SetDefaults()

	if cfg.Widget.MinMessageGapMs != 250 {
		t.Errorf("Widget.MinMessageGapMs = %d, want 250", cfg.Widget.MinMessageGapMs)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q, want light", cfg.UI.Theme)
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[widget]
min_message_gap_ms = 500
max_message_length = 280

[backend]
base_url = "https://chat.example.com/v1"

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Widget.MinMessageGapMs != 500 {
		t.Errorf("MinMessageGapMs = %d, want 500", cfg.Widget.MinMessageGapMs)
	}
	if cfg.Widget.MaxMessageLength != 280 {
		t.Errorf("MaxMessageLength = %d, want 280", cfg.Widget.MaxMessageLength)
	}
	if cfg.Backend.BaseURL != "https://chat.example.com/v1" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	// Unspecified fields keep defaults.
	if cfg.Widget.RateLimitCooldownSecs != 60 {
		t.Errorf("RateLimitCooldownSecs = %d, want default 60", cfg.Widget.RateLimitCooldownSecs)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"widget": {"max_message_length": 2000}, "ui": {"theme": "auto"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Widget.MaxMessageLength != 2000 {
		t.Errorf("MaxMessageLength = %d, want 2000", cfg.Widget.MaxMessageLength)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("Theme = %q, want auto", cfg.UI.Theme)
	}
}

func TestLoadFromPath_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[widget]
min_message_gap_ms = -5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("LoadFromPath() = nil, want validation error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("HELPLINE_API_KEY", "sk-test-123")
	t.Setenv("HELPLINE_MODEL", "gpt-4o")
	t.Setenv("HELPLINE_THEME", "light")
	t.Setenv("HELPLINE_NO_STORE", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Backend.APIKey != "sk-test-123" {
		t.Errorf("APIKey = %q", cfg.Backend.APIKey)
	}
	if cfg.Backend.Model != "gpt-4o" {
		t.Errorf("Model = %q", cfg.Backend.Model)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	if cfg.Storage.Enabled {
		t.Error("Storage.Enabled = true, want false")
	}
}

func TestSaveTOML_Roundtrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := Default()
	cfg.Widget.MaxMessageLength = 321
	cfg.Backend.Model = "test-model"

	path, err := ConfigPathTOML()
	if err != nil {
		t.Fatal(err)
	}
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Widget.MaxMessageLength != 321 {
		t.Errorf("MaxMessageLength = %d, want 321", loaded.Widget.MaxMessageLength)
	}
	if loaded.Backend.Model != "test-model" {
		t.Errorf("Model = %q, want test-model", loaded.Backend.Model)
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("widget.max_message_length", "512"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := cfg.Get("widget.max_message_length")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "512" {
		t.Errorf("Get() = %q, want 512", got)
	}

	if err := cfg.Set("ui.markdown", "false"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.UI.Markdown {
		t.Error("UI.Markdown = true, want false")
	}
}

func TestGetSet_Errors(t *testing.T) {
	cfg := Default()

	if _, err := cfg.Get("no.such.key"); err == nil {
		t.Error("Get(unknown) = nil, want error")
	}
	if err := cfg.Set("no.such.key", "x"); err == nil {
		t.Error("Set(unknown) = nil, want error")
	}
	if err := cfg.Set("widget.max_message_length", "not-a-number"); err == nil {
		t.Error("Set(bad int) = nil, want error")
	}
	// Set validates: an out-of-range value is rejected.
	if err := cfg.Set("ui.theme", "solarized"); err == nil {
		t.Error("Set(bad theme) = nil, want validation error")
	}
}

func TestAllKeys_RoundTripThroughGet(t *testing.T) {
	cfg := Default()
	for _, key := range AllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if got := cfg.Widget.MinMessageGap().Milliseconds(); got != 1000 {
		t.Errorf("MinMessageGap() = %dms, want 1000", got)
	}
	if got := cfg.Widget.RateLimitCooldown().Seconds(); got != 60 {
		t.Errorf("RateLimitCooldown() = %vs, want 60", got)
	}
}
