// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/helpline-tui/internal/throttle"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that a reply stream has begun.
type StreamStartMsg struct {
	StartTime time.Time
}

// StreamTickMsg drives the batched flush of buffered tokens while a
// reply is streaming.
type StreamTickMsg struct{}

// StreamDoneMsg signals that the reply stream finished cleanly.
type StreamDoneMsg struct{}

// StreamErrorMsg signals that the reply stream failed. Class reports
// which cooldown the gate entered.
type StreamErrorMsg struct {
	Class throttle.ErrorClass
}

// =============================================================================
// COOLDOWN MESSAGES
// =============================================================================

// CooldownTickMsg drives the once-a-second countdown in the status bar
// while a cooldown is active.
type CooldownTickMsg struct{}

// =============================================================================
// STATUS MESSAGES
// =============================================================================

// StatusMsg shows a transient note in the status bar.
type StatusMsg struct {
	Text string
}

// statusClearMsg removes an expired status note.
type statusClearMsg struct{}

// =============================================================================
// COMMANDS
// =============================================================================

// streamTickCmd schedules the next token flush.
func streamTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return StreamTickMsg{}
	})
}

// cooldownTickCmd schedules the next countdown update.
func cooldownTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return CooldownTickMsg{}
	})
}

// statusClearCmd expires a transient status note.
func statusClearCmd(after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return statusClearMsg{}
	})
}
