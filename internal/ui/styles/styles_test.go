// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	// A few representative styles must render without panicking.
	for name, render := range map[string]func() string{
		"header":     func() string { return theme.Header.Render("Support") },
		"user":       func() string { return theme.UserBubble.Render("hi") },
		"agent":      func() string { return theme.AgentBubble.Render("hello") },
		"cooldown":   func() string { return theme.CooldownNotice.Render("wait") },
		"choice":     func() string { return theme.ChoiceNumber.Render("1") },
		"link":       func() string { return theme.LinkStyle.Render("example.com") },
		"char count": func() string { return theme.CharCountDanger.Render("999/1000") },
	} {
		if render() == "" {
			t.Errorf("%s style rendered empty string", name)
		}
	}
}

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme()
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestSpinnerDuration(t *testing.T) {
	if got := BrailleSpinner.Duration(); got != time.Second/12 {
		t.Errorf("BrailleSpinner.Duration() = %v", got)
	}
	zero := SpinnerConfig{}
	if got := zero.Duration(); got != time.Second {
		t.Errorf("zero FPS Duration() = %v, want 1s", got)
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		percent float64
		filled  int
	}{
		{"empty", 10, 0, 0},
		{"half", 10, 0.5, 5},
		{"full", 10, 1, 10},
		{"clamped low", 10, -0.5, 0},
		{"clamped high", 10, 1.5, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := RenderProgressBar(tt.width, tt.percent)
			if got := strings.Count(bar, progressFilled); got != tt.filled {
				t.Errorf("filled cells = %d, want %d", got, tt.filled)
			}
			if got := len([]rune(bar)); got != tt.width {
				t.Errorf("bar width = %d, want %d", got, tt.width)
			}
		})
	}

	if RenderProgressBar(0, 0.5) != "" {
		t.Error("zero width should render empty")
	}
}
