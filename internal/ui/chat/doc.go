// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view for the helpline TUI.
//
// The view renders a widget.Session: a scrollable transcript, a single
// input line, and a status bar. Assistant replies are post-processed
// for inline directives; extracted quick-reply choices are offered as
// numbered shortcuts and links are listed under the reply.
//
// Streaming replies arrive through a token buffer that batches updates
// to a capped frame rate, keeping rendering smooth without burning CPU
// on per-token redraws.
package chat
