// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the application:
// rune-aware string truncation for previews and counters, display-width
// truncation for terminal columns, and crash-safe atomic file writes.
package util
