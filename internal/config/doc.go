// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for helpline.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.helpline/config.toml
//   - ~/.helpline/config.json
//   - Built-in defaults
//
// Environment variables prefixed with HELPLINE_ override values from
// the config file. A file watcher (see Watcher) can reload the
// configuration while the program is running.
package config
