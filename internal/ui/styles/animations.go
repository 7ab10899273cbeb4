// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"time"
)

// =============================================================================
// SPINNERS
// =============================================================================

// BrailleSpinner - smooth braille-dot spinner for streaming replies
var BrailleSpinner = SpinnerConfig{
	Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	FPS:    12,
}

// DotsSpinner - simple three-dot typing indicator
var DotsSpinner = SpinnerConfig{
	Frames: []string{"   ", ".  ", ".. ", "..."},
	FPS:    4,
}

// SpinnerConfig describes a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the per-frame duration.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.FPS)
}

// =============================================================================
// PROGRESS BAR
// =============================================================================

var (
	progressFilled = "█"
	progressEmpty  = "░"
)

// RenderProgressBar renders a progress bar of the given width.
// percent is clamped to [0, 1].
func RenderProgressBar(width int, percent float64) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	filled := int(float64(width) * percent)
	if filled > width {
		filled = width
	}
	return strings.Repeat(progressFilled, filled) + strings.Repeat(progressEmpty, width-filled)
}

// =============================================================================
// CURSOR
// =============================================================================

// TypingCursor frames for the streaming text cursor.
var TypingCursor = []string{"▌", " "}

// CursorBlinkRate matches common terminal cursor blink timing.
var CursorBlinkRate = 530 * time.Millisecond
