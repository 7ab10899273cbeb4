// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/helpline-tui/internal/ui/styles"
)

// Shared output styles for non-TUI commands.
var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(styles.Indigo)
	agentStyle   = lipgloss.NewStyle().Foreground(styles.Teal)
	choiceStyle  = lipgloss.NewStyle().Bold(true).Foreground(styles.Indigo)
	linkStyle    = lipgloss.NewStyle().Foreground(styles.LinkColor).Underline(true)
	noticeStyle  = lipgloss.NewStyle().Bold(true).Foreground(styles.Amber)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.Rose)
	commandStyle = lipgloss.NewStyle().Foreground(styles.TextSecondary)
)
