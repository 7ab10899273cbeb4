// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/jeranaias/helpline-tui/internal/backend"
	"github.com/jeranaias/helpline-tui/internal/throttle"
	"github.com/jeranaias/helpline-tui/internal/ui/styles"
	"github.com/jeranaias/helpline-tui/internal/widget"
)

// stubSender returns canned tokens and signals completion for tests
// that need to wait out the dispatch goroutine.
type stubSender struct {
	tokens []string
	err    error
	done   chan struct{}
}

func (s *stubSender) ChatStream(_ context.Context, _ []backend.Message, onToken func(string)) error {
	defer close(s.done)
	for _, tok := range s.tokens {
		onToken(tok)
	}
	return s.err
}

func newTestModel(t *testing.T, sender widget.Sender) Model {
	t.Helper()
	session := widget.NewSession(sender, widget.Options{
		WelcomeMessage: "Hi! How can we help you today?",
		SystemPrompt:   "You are a support assistant.",
		Throttle:       throttle.Config{MinMessageGap: time.Millisecond},
	})
	return New(styles.NewTheme(), session, Options{
		Title:            "helpline",
		MaxMessageLength: 100,
	})
}

func TestStreamingBuffer(t *testing.T) {
	buf := NewStreamingBuffer()
	buf.Add("hel")
	buf.Add("lo")

	if got := buf.Flush(); got != "hello" {
		t.Errorf("Flush() = %q, want hello", got)
	}
	if got := buf.Flush(); got != "" {
		t.Errorf("second Flush() = %q, want empty", got)
	}

	buf.Add("discarded")
	buf.Reset()
	if got := buf.Flush(); got != "" {
		t.Errorf("Flush() after Reset = %q, want empty", got)
	}
}

func TestStreamingBufferInterval(t *testing.T) {
	if got := NewStreamingBufferWithInterval(0).FlushInterval(); got != 33*time.Millisecond {
		t.Errorf("zero interval fallback = %v", got)
	}
	if got := NewStreamingBufferWithInterval(50 * time.Millisecond).FlushInterval(); got != 50*time.Millisecond {
		t.Errorf("custom interval = %v", got)
	}
}

func TestHighlightCodeBlocks_PlainTerminal(t *testing.T) {
	text := "before\n```go\nfmt.Println(1)\n```\nafter"
	// Ascii profile skips highlighting entirely.
	if got := highlightCodeBlocks(text, termenv.Ascii); got != text {
		t.Errorf("Ascii passthrough changed text:\n%q", got)
	}
}

func TestHighlightCodeBlocks_UnterminatedFence(t *testing.T) {
	text := "hello\n```go\nunclosed"
	got := highlightCodeBlocks(text, termenv.TrueColor)
	if !strings.Contains(got, "unclosed") {
		t.Errorf("unterminated block dropped: %q", got)
	}
}

func TestChromaFormatter(t *testing.T) {
	tests := []struct {
		profile termenv.Profile
		want    string
	}{
		{termenv.TrueColor, "terminal16m"},
		{termenv.ANSI256, "terminal256"},
		{termenv.ANSI, "terminal16"},
		{termenv.Ascii, ""},
	}
	for _, tt := range tests {
		if got := chromaFormatter(tt.profile); got != tt.want {
			t.Errorf("chromaFormatter(%v) = %q, want %q", tt.profile, got, tt.want)
		}
	}
}

func TestSubmit_EmptyInputIsSilent(t *testing.T) {
	sender := &stubSender{done: make(chan struct{})}
	m := newTestModel(t, sender)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)

	if got.state != StateReady {
		t.Errorf("state = %v, want StateReady", got.state)
	}
	if n := got.session.Conversation().MessageCount(); n != 1 {
		t.Errorf("MessageCount() = %d, want 1 (welcome only)", n)
	}
}

func TestSubmit_StartsStreaming(t *testing.T) {
	sender := &stubSender{tokens: []string{"We", " can", " help."}, done: make(chan struct{})}
	m := newTestModel(t, sender)
	m.input.SetValue("where is my order?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)

	if got.state != StateStreaming {
		t.Fatalf("state = %v, want StateStreaming", got.state)
	}
	if cmd == nil {
		t.Fatal("expected a stream command")
	}
	if got.input.Value() != "" {
		t.Errorf("input not cleared: %q", got.input.Value())
	}

	select {
	case <-sender.done:
	case <-time.After(time.Second):
		t.Fatal("dispatch goroutine never ran")
	}
}

func TestChoiceSelection_SubmitsLabel(t *testing.T) {
	sender := &stubSender{done: make(chan struct{})}
	m := newTestModel(t, sender)

	conv := m.session.Conversation()
	reply := conv.AddAssistantMessage()
	reply.AppendToken("Pick one {{choice:Track my order}} {{choice:Talk to a human}}")
	reply.FinalizeStream()
	m.refreshDirectives()

	if len(m.choices) != 2 {
		t.Fatalf("choices = %d, want 2", len(m.choices))
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	got := updated.(Model)

	if got.state != StateStreaming {
		t.Fatalf("state = %v, want StateStreaming after choice pick", got.state)
	}

	select {
	case <-sender.done:
	case <-time.After(time.Second):
		t.Fatal("dispatch goroutine never ran")
	}

	var lastUser string
	for _, msg := range got.session.Conversation().GetHistory() {
		if msg.Role.String() == "user" {
			lastUser = msg.Content
		}
	}
	if lastUser != "Talk to a human" {
		t.Errorf("submitted choice = %q, want %q", lastUser, "Talk to a human")
	}
}

func TestRenderDirectives(t *testing.T) {
	sender := &stubSender{done: make(chan struct{})}
	m := newTestModel(t, sender)

	conv := m.session.Conversation()
	reply := conv.AddAssistantMessage()
	reply.AppendToken("Done. {{choice:Anything else?}} {{link:https://status.example.com|Status page}}")
	reply.FinalizeStream()
	m.refreshDirectives()

	out := m.renderDirectives()
	if !strings.Contains(out, "[1]") {
		t.Errorf("missing choice number: %q", out)
	}
	if !strings.Contains(out, "Anything else?") {
		t.Errorf("missing choice label: %q", out)
	}
	if !strings.Contains(out, "https://status.example.com") {
		t.Errorf("missing link URL: %q", out)
	}
}

func TestClear_ResetsConversationAndDirectives(t *testing.T) {
	sender := &stubSender{done: make(chan struct{})}
	m := newTestModel(t, sender)

	conv := m.session.Conversation()
	conv.AddUserMessage("hello")
	reply := conv.AddAssistantMessage()
	reply.AppendToken("Hi {{choice:More}}")
	reply.FinalizeStream()
	m.refreshDirectives()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	got := updated.(Model)

	if n := got.session.Conversation().MessageCount(); n != 1 {
		t.Errorf("MessageCount() after clear = %d, want 1", n)
	}
	if len(got.choices) != 0 {
		t.Errorf("choices after clear = %d, want 0", len(got.choices))
	}
}
