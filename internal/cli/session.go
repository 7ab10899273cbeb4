// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/helpline-tui/internal/backend"
	"github.com/jeranaias/helpline-tui/internal/config"
	"github.com/jeranaias/helpline-tui/internal/throttle"
	"github.com/jeranaias/helpline-tui/internal/widget"
)

// LoadConfig resolves the active configuration for a command,
// honoring the --config, --model, and --no-store flags.
func LoadConfig(args Args) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if args.Config != "" {
		cfg, err = config.LoadFromPath(args.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.Model != "" {
		cfg.Backend.Model = args.Model
	}
	if args.NoStore {
		cfg.Storage.Enabled = false
	}
	return cfg, nil
}

// NewBackendClient builds the upstream client from configuration.
func NewBackendClient(cfg *config.Config) (*backend.Client, error) {
	if cfg.Backend.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: set HELPLINE_API_KEY or backend.api_key")
	}
	return backend.NewClient(&backend.ClientConfig{
		BaseURL:    cfg.Backend.BaseURL,
		APIKey:     cfg.Backend.APIKey,
		Model:      cfg.Backend.Model,
		MaxRetries: cfg.Backend.MaxRetries,
	}), nil
}

// NewSession builds the headless widget session from configuration.
func NewSession(cfg *config.Config, sender widget.Sender) *widget.Session {
	return widget.NewSession(sender, widget.Options{
		WelcomeMessage: cfg.Widget.WelcomeMessage,
		SystemPrompt:   cfg.Widget.SystemPrompt,
		Throttle: throttle.Config{
			MinMessageGap:     cfg.Widget.MinMessageGap(),
			MaxMessageLength:  cfg.Widget.MaxMessageLength,
			RateLimitCooldown: cfg.Widget.RateLimitCooldown(),
		},
	})
}
