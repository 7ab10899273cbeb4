// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements argument parsing and command handlers for the
// helpline binary.
//
// The default command starts the TUI. "chat" runs a plain-terminal
// REPL over the same session core, "ask" sends a single question,
// "serve" starts the companion API server, and "config" and
// "transcripts" manage local state.
package cli
