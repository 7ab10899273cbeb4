// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/termenv"
)

// =============================================================================
// CODE BLOCK HIGHLIGHTING
// =============================================================================

// highlightCodeBlocks syntax-highlights fenced code blocks in text.
// Used when markdown rendering is disabled; glamour handles this
// itself otherwise. Text outside fences passes through unchanged, and
// a block that fails to highlight is kept verbatim.
func highlightCodeBlocks(text string, profile termenv.Profile) string {
	formatter := chromaFormatter(profile)
	if formatter == "" {
		return text
	}

	var out strings.Builder
	lines := strings.Split(text, "\n")

	var block []string
	var lang string
	inBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if !inBlock {
				inBlock = true
				lang = strings.TrimPrefix(trimmed, "```")
				block = block[:0]
				continue
			}
			out.WriteString(renderBlock(strings.Join(block, "\n"), lang, formatter))
			out.WriteString("\n")
			inBlock = false
			continue
		}
		if inBlock {
			block = append(block, line)
			continue
		}
		out.WriteString(line)
		out.WriteString("\n")
	}

	// Unterminated fence: emit what we have, verbatim.
	if inBlock {
		out.WriteString("```" + lang + "\n")
		out.WriteString(strings.Join(block, "\n"))
		out.WriteString("\n")
	}

	return strings.TrimSuffix(out.String(), "\n")
}

func renderBlock(source, lang, formatter string) string {
	if lang == "" {
		lang = "text"
	}
	var hl strings.Builder
	if err := quick.Highlight(&hl, source, lang, formatter, "monokai"); err != nil {
		return source + "\n"
	}
	return hl.String()
}

// chromaFormatter picks a chroma formatter for the terminal's color
// capability. Empty means highlighting is not worth doing.
func chromaFormatter(profile termenv.Profile) string {
	switch profile {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return ""
	}
}
