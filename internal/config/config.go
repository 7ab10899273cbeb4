// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/helpline-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete helpline configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Widget configuration (conversation behavior and message guards)
	Widget WidgetConfig `toml:"widget" json:"widget"`

	// Backend configuration (upstream chat completion API)
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Gate configuration (server-side request screening)
	Gate GateConfig `toml:"gate" json:"gate"`

	// Server configuration (companion API server)
	Server ServerConfig `toml:"server" json:"server"`

	// Storage configuration (transcript persistence)
	Storage StorageConfig `toml:"storage" json:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// WidgetConfig contains the chat widget's conversation settings.
type WidgetConfig struct {
	// WelcomeMessage is the assistant greeting shown when a conversation
	// starts or is cleared.
	WelcomeMessage string `toml:"welcome_message" json:"welcome_message"`
	// SystemPrompt is prepended to every request sent upstream.
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
	// MinMessageGapMs is the minimum interval between sends, in
	// milliseconds. Messages submitted faster than this are dropped.
	MinMessageGapMs int `toml:"min_message_gap_ms" json:"min_message_gap_ms"`
	// MaxMessageLength is the maximum message length in characters
	// (runes, not bytes).
	MaxMessageLength int `toml:"max_message_length" json:"max_message_length"`
	// RateLimitCooldownSecs is how long sending stays blocked after the
	// upstream reports a rate limit.
	RateLimitCooldownSecs int `toml:"rate_limit_cooldown_secs" json:"rate_limit_cooldown_secs"`
	// MaxMessages caps conversation history; older messages are pruned.
	MaxMessages int `toml:"max_messages" json:"max_messages"`
}

// MinMessageGap returns the minimum send interval as a duration.
func (w WidgetConfig) MinMessageGap() time.Duration {
	return time.Duration(w.MinMessageGapMs) * time.Millisecond
}

// RateLimitCooldown returns the rate-limit cooldown as a duration.
func (w WidgetConfig) RateLimitCooldown() time.Duration {
	return time.Duration(w.RateLimitCooldownSecs) * time.Second
}

// BackendConfig contains upstream chat API configuration.
type BackendConfig struct {
	// BaseURL is the upstream API base URL.
	BaseURL string `toml:"base_url" json:"base_url"`
	// APIKey authenticates against the upstream API. Prefer the
	// HELPLINE_API_KEY environment variable over storing it here.
	APIKey string `toml:"api_key" json:"api_key"`
	// Model is the model identifier sent with each request.
	Model string `toml:"model" json:"model"`
	// RequestTimeoutSecs bounds a single upstream request.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// MaxRetries caps retries for transient upstream failures.
	MaxRetries int `toml:"max_retries" json:"max_retries"`
}

// RequestTimeout returns the upstream request timeout as a duration.
func (b BackendConfig) RequestTimeout() time.Duration {
	return time.Duration(b.RequestTimeoutSecs) * time.Second
}

// GateConfig contains server-side request screening configuration.
type GateConfig struct {
	// RequestsPerMinute is the sustained per-client request rate.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
	// Burst is the per-client burst allowance.
	Burst int `toml:"burst" json:"burst"`
	// MaxPayloadBytes rejects oversized request payloads.
	MaxPayloadBytes int `toml:"max_payload_bytes" json:"max_payload_bytes"`
}

// ServerConfig contains companion API server configuration.
type ServerConfig struct {
	// ListenAddr is the address the server binds to.
	ListenAddr string `toml:"listen_addr" json:"listen_addr"`
	// MaxBodyBytes caps the accepted request body size.
	MaxBodyBytes int64 `toml:"max_body_bytes" json:"max_body_bytes"`
	// ShutdownTimeoutSecs bounds graceful shutdown.
	ShutdownTimeoutSecs int `toml:"shutdown_timeout_secs" json:"shutdown_timeout_secs"`
}

// ShutdownTimeout returns the graceful shutdown bound as a duration.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSecs) * time.Second
}

// StorageConfig contains transcript persistence configuration.
type StorageConfig struct {
	// Enabled toggles transcript persistence.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the SQLite database path (empty = ~/.helpline/transcripts.db).
	Path string `toml:"path" json:"path"`
}

// UIConfig contains user interface configuration.
type UIConfig struct {
	// Theme selects the color theme: "dark", "light", or "auto"
	Theme string `toml:"theme" json:"theme"`
	// Markdown enables markdown rendering of assistant replies
	Markdown bool `toml:"markdown" json:"markdown"`
	// ShowTimestamps shows per-message timestamps
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Widget: WidgetConfig{
			WelcomeMessage:        "Hi! How can we help you today?",
			SystemPrompt:          "You are a helpful customer support assistant.",
			MinMessageGapMs:       1000,
			MaxMessageLength:      1000,
			RateLimitCooldownSecs: 60,
			MaxMessages:           200,
		},
		Backend: BackendConfig{
			BaseURL:            "https://api.openai.com/v1",
			Model:              "gpt-4o-mini",
			RequestTimeoutSecs: 120,
			MaxRetries:         3,
		},
		Gate: GateConfig{
			RequestsPerMinute: 20,
			Burst:             5,
			MaxPayloadBytes:   16 * 1024,
		},
		Server: ServerConfig{
			ListenAddr:          "127.0.0.1:8780",
			MaxBodyBytes:        64 * 1024,
			ShutdownTimeoutSecs: 10,
		},
		Storage: StorageConfig{
			Enabled: true,
		},
		UI: UIConfig{
			Theme:          "dark",
			Markdown:       true,
			ShowTimestamps: false,
		},
	}
}

// =============================================================================
// CONFIG PATHS
// =============================================================================

// ConfigDir returns the helpline configuration directory (~/.helpline).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".helpline"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// StoragePath resolves the transcript database path, falling back to
// the default under the config directory.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "transcripts.db"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// ensureSecurePermissions tightens config file permissions to 0600.
// The file may hold an API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0600 {
		return os.Chmod(path, 0600)
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// finishLoad applies overrides, defaults, and validation after a
// successful file parse.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# helpline configuration file")
	fmt.Fprintln(file, "# Generated by helpline - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write prevents data loss on crash.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Widget settings
	if c.Widget.MinMessageGapMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "widget.min_message_gap_ms",
			Message: "must be non-negative",
		})
	}
	if c.Widget.MaxMessageLength < 1 || c.Widget.MaxMessageLength > 100000 {
		errs = append(errs, ValidationError{
			Field:   "widget.max_message_length",
			Message: fmt.Sprintf("must be 1-100000, got %d", c.Widget.MaxMessageLength),
		})
	}
	if c.Widget.RateLimitCooldownSecs < 1 || c.Widget.RateLimitCooldownSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "widget.rate_limit_cooldown_secs",
			Message: fmt.Sprintf("must be 1-3600, got %d", c.Widget.RateLimitCooldownSecs),
		})
	}
	if c.Widget.MaxMessages < 2 {
		errs = append(errs, ValidationError{
			Field:   "widget.max_messages",
			Message: fmt.Sprintf("must be at least 2, got %d", c.Widget.MaxMessages),
		})
	}

	// Backend settings
	if c.Backend.BaseURL != "" {
		if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "backend.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Backend.BaseURL),
			})
		}
	}
	if c.Backend.MaxRetries < 0 || c.Backend.MaxRetries > 10 {
		errs = append(errs, ValidationError{
			Field:   "backend.max_retries",
			Message: fmt.Sprintf("must be 0-10, got %d", c.Backend.MaxRetries),
		})
	}
	if c.Backend.RequestTimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "backend.request_timeout_secs",
			Message: "must be at least 1",
		})
	}

	// Gate settings
	if c.Gate.RequestsPerMinute < 1 || c.Gate.RequestsPerMinute > 6000 {
		errs = append(errs, ValidationError{
			Field:   "gate.requests_per_minute",
			Message: fmt.Sprintf("must be 1-6000, got %d", c.Gate.RequestsPerMinute),
		})
	}
	if c.Gate.Burst < 1 || c.Gate.Burst > 1000 {
		errs = append(errs, ValidationError{
			Field:   "gate.burst",
			Message: fmt.Sprintf("must be 1-1000, got %d", c.Gate.Burst),
		})
	}
	if c.Gate.MaxPayloadBytes < 1 {
		errs = append(errs, ValidationError{
			Field:   "gate.max_payload_bytes",
			Message: "must be at least 1",
		})
	}

	// Server settings
	if c.Server.ListenAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "server.listen_addr",
			Message: "must not be empty",
		})
	}
	if c.Server.MaxBodyBytes < 1 {
		errs = append(errs, ValidationError{
			Field:   "server.max_body_bytes",
			Message: "must be at least 1",
		})
	}

	// UI settings
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value
// configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Widget.WelcomeMessage == "" {
		c.Widget.WelcomeMessage = defaults.Widget.WelcomeMessage
	}
	if c.Widget.SystemPrompt == "" {
		c.Widget.SystemPrompt = defaults.Widget.SystemPrompt
	}
	if c.Widget.MinMessageGapMs == 0 {
		c.Widget.MinMessageGapMs = defaults.Widget.MinMessageGapMs
	}
	if c.Widget.MaxMessageLength == 0 {
		c.Widget.MaxMessageLength = defaults.Widget.MaxMessageLength
	}
	if c.Widget.RateLimitCooldownSecs == 0 {
		c.Widget.RateLimitCooldownSecs = defaults.Widget.RateLimitCooldownSecs
	}
	if c.Widget.MaxMessages == 0 {
		c.Widget.MaxMessages = defaults.Widget.MaxMessages
	}

	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if c.Backend.Model == "" {
		c.Backend.Model = defaults.Backend.Model
	}
	if c.Backend.RequestTimeoutSecs == 0 {
		c.Backend.RequestTimeoutSecs = defaults.Backend.RequestTimeoutSecs
	}
	if c.Backend.MaxRetries == 0 {
		c.Backend.MaxRetries = defaults.Backend.MaxRetries
	}

	if c.Gate.RequestsPerMinute == 0 {
		c.Gate.RequestsPerMinute = defaults.Gate.RequestsPerMinute
	}
	if c.Gate.Burst == 0 {
		c.Gate.Burst = defaults.Gate.Burst
	}
	if c.Gate.MaxPayloadBytes == 0 {
		c.Gate.MaxPayloadBytes = defaults.Gate.MaxPayloadBytes
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}
	if c.Server.ShutdownTimeoutSecs == 0 {
		c.Server.ShutdownTimeoutSecs = defaults.Server.ShutdownTimeoutSecs
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - HELPLINE_API_KEY: overrides backend.api_key
//   - HELPLINE_BASE_URL: overrides backend.base_url
//   - HELPLINE_MODEL: overrides backend.model
//   - HELPLINE_ADDR: overrides server.listen_addr
//   - HELPLINE_THEME: overrides ui.theme
//   - HELPLINE_NO_STORE: set to "1" or "true" to disable transcript storage
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("HELPLINE_API_KEY"); key != "" {
		c.Backend.APIKey = key
	}
	if base := os.Getenv("HELPLINE_BASE_URL"); base != "" {
		c.Backend.BaseURL = base
	}
	if model := os.Getenv("HELPLINE_MODEL"); model != "" {
		c.Backend.Model = model
	}
	if addr := os.Getenv("HELPLINE_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}
	if theme := os.Getenv("HELPLINE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if noStore := os.Getenv("HELPLINE_NO_STORE"); noStore != "" {
		if noStore == "1" || strings.ToLower(noStore) == "true" {
			c.Storage.Enabled = false
		}
	}
}

// =============================================================================
// KEY ACCESS (config get/set)
// =============================================================================

// Get retrieves a configuration value by dotted key.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "widget.welcome_message":
		return c.Widget.WelcomeMessage, nil
	case "widget.system_prompt":
		return c.Widget.SystemPrompt, nil
	case "widget.min_message_gap_ms":
		return strconv.Itoa(c.Widget.MinMessageGapMs), nil
	case "widget.max_message_length":
		return strconv.Itoa(c.Widget.MaxMessageLength), nil
	case "widget.rate_limit_cooldown_secs":
		return strconv.Itoa(c.Widget.RateLimitCooldownSecs), nil
	case "widget.max_messages":
		return strconv.Itoa(c.Widget.MaxMessages), nil
	case "backend.base_url":
		return c.Backend.BaseURL, nil
	case "backend.model":
		return c.Backend.Model, nil
	case "backend.request_timeout_secs":
		return strconv.Itoa(c.Backend.RequestTimeoutSecs), nil
	case "backend.max_retries":
		return strconv.Itoa(c.Backend.MaxRetries), nil
	case "gate.requests_per_minute":
		return strconv.Itoa(c.Gate.RequestsPerMinute), nil
	case "gate.burst":
		return strconv.Itoa(c.Gate.Burst), nil
	case "gate.max_payload_bytes":
		return strconv.Itoa(c.Gate.MaxPayloadBytes), nil
	case "server.listen_addr":
		return c.Server.ListenAddr, nil
	case "storage.enabled":
		return strconv.FormatBool(c.Storage.Enabled), nil
	case "storage.path":
		return c.Storage.Path, nil
	case "ui.theme":
		return c.UI.Theme, nil
	case "ui.markdown":
		return strconv.FormatBool(c.UI.Markdown), nil
	case "ui.show_timestamps":
		return strconv.FormatBool(c.UI.ShowTimestamps), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set updates a configuration value by dotted key. The value is parsed
// according to the field's type.
func (c *Config) Set(key, value string) error {
	parseInt := func(field string) (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s: expected integer, got %q", field, value)
		}
		return n, nil
	}
	parseBool := func(field string) (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s: expected boolean, got %q", field, value)
		}
		return b, nil
	}

	switch strings.ToLower(key) {
	case "widget.welcome_message":
		c.Widget.WelcomeMessage = value
	case "widget.system_prompt":
		c.Widget.SystemPrompt = value
	case "widget.min_message_gap_ms":
		n, err := parseInt(key)
		if err != nil {
			return err
		}
		c.Widget.MinMessageGapMs = n
	case "widget.max_message_length":
		n, err := parseInt(key)
		if err != nil {
			return err
		}
		c.Widget.MaxMessageLength = n
	case "widget.rate_limit_cooldown_secs":
		n, err := parseInt(key)
		if err != nil {
			return err
		}
		c.Widget.RateLimitCooldownSecs = n
	case "widget.max_messages":
		n, err := parseInt(key)
		if err != nil {
			return err
		}
		c.Widget.MaxMessages = n
	case "backend.base_url":
		c.Backend.BaseURL = value
	case "backend.model":
		c.Backend.Model = value
	case "backend.request_timeout_secs":
		n, err := parseInt(key)
		if err != nil {
			return err
		}
		c.Backend.RequestTimeoutSecs = n
	case "backend.max_retries":
		n, err := parseInt(key)
		if err != nil {
			return err
		}
		c.Backend.MaxRetries = n
	case "gate.requests_per_minute":
		n, err := parseInt(key)
		if err != nil {
			return err
		}
		c.Gate.RequestsPerMinute = n
	case "gate.burst":
		n, err := parseInt(key)
		if err != nil {
			return err
		}
		c.Gate.Burst = n
	case "gate.max_payload_bytes":
		n, err := parseInt(key)
		if err != nil {
			return err
		}
		c.Gate.MaxPayloadBytes = n
	case "server.listen_addr":
		c.Server.ListenAddr = value
	case "storage.enabled":
		b, err := parseBool(key)
		if err != nil {
			return err
		}
		c.Storage.Enabled = b
	case "storage.path":
		c.Storage.Path = value
	case "ui.theme":
		c.UI.Theme = value
	case "ui.markdown":
		b, err := parseBool(key)
		if err != nil {
			return err
		}
		c.UI.Markdown = b
	case "ui.show_timestamps":
		b, err := parseBool(key)
		if err != nil {
			return err
		}
		c.UI.ShowTimestamps = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return c.Validate()
}

// AllKeys returns every settable config key, sorted for display.
func AllKeys() []string {
	return []string{
		"backend.base_url",
		"backend.max_retries",
		"backend.model",
		"backend.request_timeout_secs",
		"gate.burst",
		"gate.max_payload_bytes",
		"gate.requests_per_minute",
		"server.listen_addr",
		"storage.enabled",
		"storage.path",
		"ui.markdown",
		"ui.show_timestamps",
		"ui.theme",
		"widget.max_message_length",
		"widget.max_messages",
		"widget.min_message_gap_ms",
		"widget.rate_limit_cooldown_secs",
		"widget.system_prompt",
		"widget.welcome_message",
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
