// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strconv"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case StreamTickMsg:
		return m.handleStreamTick()
	case StreamDoneMsg:
		return m.handleStreamDone()
	case StreamErrorMsg:
		return m.handleStreamError(msg)
	case CooldownTickMsg:
		return m.handleCooldownTick()
	case StatusMsg:
		m.statusNote = msg.Text
		return m, statusClearCmd(3 * time.Second)
	case statusClearMsg:
		m.statusNote = ""
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	headerHeight := 3
	inputHeight := 3
	statusHeight := 1
	m.viewport.Width = msg.Width
	m.viewport.Height = msg.Height - headerHeight - inputHeight - statusHeight
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.Width = msg.Width - 6

	wrap := msg.Width - 12
	if wrap < 20 {
		wrap = 20
	}
	if m.opts.Markdown {
		if r, err := newMarkdownRenderer(wrap); err == nil {
			m.mdRenderer = r
		}
	}

	m.refreshViewport()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keyMap.Clear):
		return m.handleClear()

	case key.Matches(msg, m.keyMap.Yank):
		return m.handleYank()

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit(m.input.Value())

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keyMap.Home):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keyMap.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	// Quick-reply selection: a bare digit picks the numbered choice
	// offered by the last reply.
	if m.state == StateReady && len(m.choices) > 0 && m.input.Value() == "" {
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(m.choices) {
			return m.handleSubmit(m.choices[n-1].Label)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit runs the guards and, when they pass, starts the stream.
// Guard rejections are silent: the input keeps its content and nothing
// else changes.
func (m Model) handleSubmit(raw string) (tea.Model, tea.Cmd) {
	if m.state != StateReady {
		return m, nil
	}
	if _, ok := m.session.Submit(raw); !ok {
		return m, nil
	}

	m.input.Reset()
	m.state = StateStreaming
	m.streamText = ""
	m.choices = nil
	m.links = nil
	m.streamBuffer.Reset()
	m.refreshViewport()

	return m, tea.Batch(m.startStreamCmd(), streamTickCmd(m.streamBuffer.FlushInterval()))
}

func (m Model) handleClear() (tea.Model, tea.Cmd) {
	if m.state == StateStreaming {
		return m, nil
	}
	m.session.Clear()
	m.streamText = ""
	m.statusNote = ""
	m.refreshDirectives()
	m.refreshViewport()
	return m, nil
}

func (m Model) handleYank() (tea.Model, tea.Cmd) {
	last := m.session.Conversation().GetLastAssistantMessage()
	if last == nil || last.IsStreaming || last.Content == "" {
		return m, nil
	}
	cleaned, _, _ := extractForCopy(last.Content)
	if err := clipboard.WriteAll(cleaned); err != nil {
		return m.withStatus("Copy failed: clipboard unavailable")
	}
	return m.withStatus("Reply copied")
}

func (m Model) withStatus(text string) (tea.Model, tea.Cmd) {
	m.statusNote = text
	return m, statusClearCmd(3 * time.Second)
}

// =============================================================================
// STREAMING
// =============================================================================

// startStreamCmd launches the dispatch goroutine and waits for its
// outcome. Tokens land in the stream buffer; the tick loop drains it.
func (m *Model) startStreamCmd() tea.Cmd {
	buf := m.streamBuffer
	done := make(chan streamResult, 1)
	m.streamDone = done
	session := m.session

	go func() {
		class, ok := session.Dispatch(context.Background(), func(token string) {
			buf.Add(token)
		})
		done <- streamResult{class: class, ok: ok}
	}()

	return func() tea.Msg {
		r := <-done
		if r.ok {
			return StreamDoneMsg{}
		}
		return StreamErrorMsg{Class: r.class}
	}
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}
	if chunk := m.streamBuffer.Flush(); chunk != "" {
		m.streamText += chunk
		m.refreshViewport()
	}
	return m, streamTickCmd(m.streamBuffer.FlushInterval())
}

func (m Model) handleStreamDone() (tea.Model, tea.Cmd) {
	m.streamText = ""
	m.streamBuffer.Reset()
	m.state = StateReady
	m.refreshDirectives()
	m.refreshViewport()
	return m, nil
}

func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	m.streamText = ""
	m.streamBuffer.Reset()
	m.state = StateReady
	m.refreshDirectives()
	m.refreshViewport()

	snap := m.session.Gate().Snapshot()
	if snap.RateLimited {
		m.cooldownTotal = m.opts.RateLimitCooldown
		m.statusNote = ""
		return m, cooldownTickCmd()
	}
	m.cooldownTotal = cooldownTotalFor(msg.Class)
	if snap.CoolingDown {
		return m, cooldownTickCmd()
	}
	return m.withStatus("Something went wrong. Please try again.")
}

func (m Model) handleCooldownTick() (tea.Model, tea.Cmd) {
	snap := m.session.Gate().Snapshot()
	if !snap.CoolingDown {
		m.cooldownTotal = 0
		return m, nil
	}
	return m, cooldownTickCmd()
}
