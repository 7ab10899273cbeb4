// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/helpline-tui/internal/directive"
	"github.com/jeranaias/helpline-tui/internal/throttle"
	"github.com/jeranaias/helpline-tui/internal/ui/styles"
	"github.com/jeranaias/helpline-tui/internal/widget"
)

// =============================================================================
// STATE
// =============================================================================

// State describes what the chat view is currently doing.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streamed reply
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat view.
type Options struct {
	// Title is shown in the header.
	Title string
	// Markdown enables glamour rendering of replies.
	Markdown bool
	// ShowTimestamps shows per-message times.
	ShowTimestamps bool
	// MaxMessageLength drives the input character counter.
	MaxMessageLength int
	// RateLimitCooldown sizes the countdown bar for rate-limit cooldowns.
	RateLimitCooldown time.Duration
}

// streamResult carries the outcome of a dispatch goroutine.
type streamResult struct {
	class throttle.ErrorClass
	ok    bool
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme
	opts  Options

	// Dimensions
	width  int
	height int

	// Session core
	session *widget.Session

	// Streaming
	streamBuffer *StreamingBuffer
	streamDone   chan streamResult
	streamText   string

	// Directives from the last finalized reply
	choices []directive.Choice
	links   []directive.Link

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Markdown renderer (nil when markdown is disabled or init failed)
	mdRenderer *glamour.TermRenderer

	// Key bindings
	keyMap KeyMap

	// Status
	statusNote    string
	cooldownTotal time.Duration
	showHelp      bool
	quitting      bool
}

// New creates a new chat model around a session.
func New(theme *styles.Theme, session *widget.Session, opts Options) Model {
	if opts.Title == "" {
		opts.Title = "helpline"
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = 1000
	}
	if opts.RateLimitCooldown <= 0 {
		opts.RateLimitCooldown = time.Minute
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = opts.MaxMessageLength
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.BrailleSpinner.Frames,
		FPS:    styles.BrailleSpinner.Duration(),
	}

	m := Model{
		state:        StateReady,
		theme:        theme,
		opts:         opts,
		session:      session,
		streamBuffer: NewStreamingBuffer(),
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		keyMap:       DefaultKeyMap(),
	}

	if opts.Markdown {
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(72),
		); err == nil {
			m.mdRenderer = r
		}
	}

	m.refreshDirectives()
	m.refreshViewport()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Session exposes the underlying session, e.g. for transcript saving
// on exit.
func (m Model) Session() *widget.Session {
	return m.session
}

// refreshDirectives re-extracts choices and links from the last
// finalized reply.
func (m *Model) refreshDirectives() {
	m.choices = nil
	m.links = nil
	last := m.session.Conversation().GetLastAssistantMessage()
	if last == nil || last.IsStreaming {
		return
	}
	_, m.choices, m.links = directive.Extract(last.Content)
}
