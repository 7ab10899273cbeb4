// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/helpline-tui/internal/model"
)

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter converts a transcript to a target format.
type Exporter interface {
	// Export renders the transcript and returns the file content.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the extension for the format (e.g. ".md").
	FileExtension() string
}

// Options configures export output.
type Options struct {
	// OutputDir is where files are written. Defaults to the current
	// working directory.
	OutputDir string

	// IncludeTimestamps includes per-message times in Markdown output.
	IncludeTimestamps bool
}

// DefaultOptions returns the default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
	}
}

// ForFormat returns the exporter for a format name.
// Recognized formats are "md" (or "markdown") and "json".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want md or json)", format)
	}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// ExportToFile renders the transcript and writes it next to the caller.
// Returns the path of the written file.
func ExportToFile(conv *model.Conversation, e Exporter, opts *Options) (string, error) {
	if conv == nil {
		return "", fmt.Errorf("transcript is nil")
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := e.Export(conv)
	if err != nil {
		return "", fmt.Errorf("render transcript: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, exportFilename(conv)+e.FileExtension())
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// exportFilename builds a filesystem-safe name from the transcript title
// and its ID suffix, so repeated exports of different chats never collide.
func exportFilename(conv *model.Conversation) string {
	title := conv.GetTitle()
	if title == "" {
		title = "transcript"
	}

	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune('-')
		}
	}
	name := strings.Trim(sb.String(), "-")
	if name == "" {
		name = "transcript"
	}
	if len(name) > 48 {
		name = name[:48]
	}

	id := conv.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if id != "" {
		return name + "-" + id
	}
	return name
}
