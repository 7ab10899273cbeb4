// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/helpline-tui/internal/directive"
	"github.com/jeranaias/helpline-tui/internal/model"
	"github.com/jeranaias/helpline-tui/internal/throttle"
	"github.com/jeranaias/helpline-tui/internal/ui/styles"
	"github.com/jeranaias/helpline-tui/internal/util"
)

// View renders the chat interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderHelp())
	}
	return b.String()
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(m.opts.Title)
	subtitle := m.theme.HeaderSubtitle.Render("customer support")
	content := title + "  " + subtitle

	header := m.theme.Header
	if m.width > 0 {
		header = header.Width(m.width - 2)
	}
	return header.Render(content)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport rebuilds the transcript content and follows the tail.
func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom || m.state == StateStreaming {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderMessages() string {
	var sections []string

	for _, msg := range m.session.Conversation().GetHistory() {
		if msg.Role == model.RoleSystem {
			continue
		}
		if msg.IsStreaming {
			continue
		}
		sections = append(sections, m.renderMessage(msg))
	}

	if m.state == StateStreaming {
		sections = append(sections, m.renderStreamingReply())
	}

	if len(m.choices) > 0 || len(m.links) > 0 {
		sections = append(sections, m.renderDirectives())
	}

	return strings.Join(sections, "\n\n")
}

func (m Model) renderMessage(msg *model.Message) string {
	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
	if m.opts.ShowTimestamps {
		label += " " + m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	}

	if msg.Role == model.RoleUser {
		bubble := m.theme.UserBubble.Render(msg.Content)
		return lipgloss.JoinVertical(lipgloss.Right, label, bubble)
	}

	cleaned, _, _ := directive.Extract(msg.Content)
	return lipgloss.JoinVertical(lipgloss.Left, label, m.theme.AgentBubble.Render(m.renderReplyBody(cleaned)))
}

func (m Model) renderStreamingReply() string {
	label := m.theme.RoleLabel.Render(model.RoleAssistant.DisplayName())
	body := m.streamText
	if body == "" {
		body = m.spinner.View()
	} else {
		body += styles.TypingCursor[0]
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, m.theme.AgentBubble.Render(body))
}

// renderReplyBody renders a finalized reply body: glamour when
// markdown is enabled, plain text with highlighted code fences
// otherwise.
func (m Model) renderReplyBody(cleaned string) string {
	if m.mdRenderer != nil {
		if out, err := m.mdRenderer.Render(cleaned); err == nil {
			return strings.TrimSpace(out)
		}
	}
	return highlightCodeBlocks(cleaned, m.theme.ColorProfile)
}

func (m Model) renderDirectives() string {
	var b strings.Builder

	for i, choice := range m.choices {
		num := m.theme.ChoiceNumber.Render(fmt.Sprintf("[%d]", i+1))
		b.WriteString("  " + num + " " + m.theme.ChoiceLabel.Render(choice.Label) + "\n")
	}
	for _, link := range m.links {
		b.WriteString("  " + m.theme.LinkLabel.Render(link.Label+":") + " " + m.theme.LinkStyle.Render(link.URL) + "\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) renderInput() string {
	counter := m.renderCharCount()
	line := m.input.View()

	container := m.theme.InputContainer
	if m.width > 0 {
		container = container.Width(m.width - 2)
	}
	return container.Render(line + "  " + counter)
}

func (m Model) renderCharCount() string {
	used := util.RuneLen(m.input.Value())
	limit := m.opts.MaxMessageLength
	text := fmt.Sprintf("%d/%d", used, limit)

	switch {
	case used >= limit:
		return m.theme.CharCountDanger.Render(text)
	case used >= limit*9/10:
		return m.theme.CharCountWarning.Render(text)
	default:
		return m.theme.CharCount.Render(text)
	}
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	snap := m.session.Gate().Snapshot()

	var left string
	switch {
	case m.state == StateStreaming:
		left = m.spinner.View() + " Support is typing"
	case snap.CoolingDown:
		left = m.renderCooldown(snap)
	case m.statusNote != "":
		left = m.theme.ErrorNotice.Render(m.statusNote)
	default:
		left = m.theme.Connected.Render("●") + " Connected"
	}

	right := m.theme.ShortcutKey.Render("C-h") + m.theme.ShortcutDesc.Render(" help")

	bar := m.theme.StatusBar
	if m.width > 0 {
		gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
		if gap > 0 {
			left += strings.Repeat(" ", gap)
		}
		bar = bar.Width(m.width)
	}
	return bar.Render(left + right)
}

func (m Model) renderCooldown(snap throttle.State) string {
	total := m.cooldownTotal
	if total <= 0 {
		total = throttle.GenericCooldown
	}
	remaining := snap.CooldownRemaining
	secs := int(remaining.Round(time.Second).Seconds())

	bar := styles.RenderProgressBar(12, 1-float64(remaining)/float64(total))
	if snap.RateLimited {
		return m.theme.CooldownNotice.Render(fmt.Sprintf("Too many messages - wait %ds ", secs)) + bar
	}
	return m.theme.CooldownNotice.Render(fmt.Sprintf("One moment - retry in %ds ", secs)) + bar
}

// =============================================================================
// HELP
// =============================================================================

func (m Model) renderHelp() string {
	pairs := [][2]string{
		{"Enter", "send message"},
		{"1-9", "pick a suggested reply"},
		{"C-l", "new conversation"},
		{"C-y", "copy last reply"},
		{"Up/Down", "scroll"},
		{"C-c", "quit"},
	}

	var b strings.Builder
	for _, p := range pairs {
		b.WriteString("  " + m.theme.ShortcutKey.Render(p[0]) + " " + m.theme.ShortcutDesc.Render(p[1]) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// =============================================================================
// HELPERS
// =============================================================================

func newMarkdownRenderer(wrap int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
}

// extractForCopy strips directive tags so the clipboard gets readable
// text.
func extractForCopy(content string) (string, []directive.Choice, []directive.Link) {
	return directive.Extract(content)
}

func cooldownTotalFor(class throttle.ErrorClass) time.Duration {
	if class == throttle.ClassRateLimit {
		return time.Minute
	}
	return throttle.GenericCooldown
}
