// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved transcripts to portable formats.
//
// Two formats are supported: Markdown for reading and sharing, and JSON
// for re-importing or feeding other tools. Markdown export strips inline
// directive tags and renders the extracted choices and links as plain
// lists; JSON export keeps the raw message content untouched.
package export
