// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/helpline-tui/internal/directive"
	"github.com/jeranaias/helpline-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders transcripts as Markdown documents.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders the transcript to Markdown.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("transcript has no messages")
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", conv.GetTitle()))
	sb.WriteString(fmt.Sprintf("- **Started**: %s\n", formatTimestamp(conv.CreatedAt)))
	sb.WriteString(fmt.Sprintf("- **Last Updated**: %s\n", formatTimestamp(conv.UpdatedAt)))
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n\n", len(conv.Messages)))
	sb.WriteString("---\n\n")

	for i, msg := range conv.Messages {
		if msg.Role == model.RoleSystem {
			continue
		}

		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				msg.Role.DisplayName(), msg.Timestamp.Format("15:04:05")))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", msg.Role.DisplayName()))
		}

		sb.WriteString(e.formatContent(msg))
		sb.WriteString("\n\n")

		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// formatContent renders one message body. Assistant replies have their
// directive tags stripped; the extracted choices and links become lists.
func (e *MarkdownExporter) formatContent(msg *model.Message) string {
	if msg.Role != model.RoleAssistant {
		return msg.Content
	}

	cleaned, choices, links := directive.Extract(msg.Content)

	var sb strings.Builder
	sb.WriteString(cleaned)

	if len(choices) > 0 {
		sb.WriteString("\n\n**Options offered:**\n")
		for i, c := range choices {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c.Label))
		}
	}
	if len(links) > 0 {
		sb.WriteString("\n**Links:**\n")
		for _, l := range links {
			sb.WriteString(fmt.Sprintf("- [%s](%s)\n", l.Label, l.URL))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
