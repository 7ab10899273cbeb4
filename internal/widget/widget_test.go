// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package widget implements the headless support-chat session.
package widget

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/helpline-tui/internal/backend"
	"github.com/jeranaias/helpline-tui/internal/model"
	"github.com/jeranaias/helpline-tui/internal/throttle"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// stubSender replays canned tokens or a canned error.
type stubSender struct {
	tokens  []string
	err     error
	history []backend.Message // captured from the last call
}

func (s *stubSender) ChatStream(ctx context.Context, messages []backend.Message, onToken func(string)) error {
	s.history = messages
	if s.err != nil {
		return s.err
	}
	for _, tok := range s.tokens {
		onToken(tok)
	}
	return nil
}

// manualClock drives gate timers by hand.
type manualClock struct {
	now    time.Time
	queued []func()
}

func (c *manualClock) Now() time.Time { return c.now }
func (c *manualClock) Schedule(d time.Duration, fn func()) {
	c.queued = append(c.queued, fn)
}

func newTestSession(sender Sender) (*Session, *manualClock) {
	clock := &manualClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	gate := throttle.NewGateWithClock(throttle.Config{
		MinMessageGap:     time.Second,
		MaxMessageLength:  50,
		RateLimitCooldown: 30 * time.Second,
	}, clock.Now, clock.Schedule)

	return NewSessionWithGate(sender, Options{
		WelcomeMessage: "Welcome!",
		SystemPrompt:   "You are a support agent.",
	}, gate), clock
}

// =============================================================================
// SUBMIT GUARD TESTS
// =============================================================================

func TestSession_Submit_GuardRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"whitespace input", "  \n "},
		{"over length", strings.Repeat("x", 51)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			session, _ := newTestSession(&stubSender{})
			before := session.Conversation().MessageCount()

			msg, ok := session.Submit(tc.raw)
			if ok || msg != nil {
				t.Errorf("Submit(%q) = (%v, %v), want silent rejection", tc.raw, msg, ok)
			}
			if got := session.Conversation().MessageCount(); got != before {
				t.Errorf("MessageCount() = %d, want unchanged %d", got, before)
			}
		})
	}
}

func TestSession_Submit_WhileRateLimited(t *testing.T) {
	session, _ := newTestSession(&stubSender{})
	session.Gate().Classify(&backend.APIError{Status: 429, Message: "denied"})

	if _, ok := session.Submit("perfectly valid"); ok {
		t.Error("Submit() accepted input while rate limited")
	}
}

func TestSession_Submit_SpamGuard(t *testing.T) {
	session, clock := newTestSession(&stubSender{})

	if _, ok := session.Submit("first"); !ok {
		t.Fatal("first Submit() rejected")
	}
	if _, ok := session.Submit("second"); ok {
		t.Error("Submit() within the gap was accepted")
	}
	if got := session.Conversation().MessageCount(); got != 2 { // welcome + first
		t.Errorf("MessageCount() = %d, want 2", got)
	}

	clock.now = clock.now.Add(time.Second)
	if _, ok := session.Submit("third"); !ok {
		t.Error("Submit() after the gap was rejected")
	}
}

func TestSession_Submit_OptimisticAppend(t *testing.T) {
	session, _ := newTestSession(&stubSender{})

	msg, ok := session.Submit("where is my order?")
	if !ok {
		t.Fatal("Submit() rejected valid input")
	}
	if msg.Role != model.RoleUser || msg.Content != "where is my order?" {
		t.Errorf("appended message = %+v", msg)
	}
	if session.Conversation().GetLastMessage() != msg {
		t.Error("user message was not appended to the conversation")
	}
}

func TestSession_Submit_NormalizesInput(t *testing.T) {
	session, _ := newTestSession(&stubSender{})

	// "é" as combining sequence (U+0065 U+0301) normalizes to U+00E9.
	msg, ok := session.Submit("café")
	if !ok {
		t.Fatal("Submit() rejected valid input")
	}
	if msg.Content != "café" {
		t.Errorf("stored content = %q, want NFC form", msg.Content)
	}
}

func TestSession_Submit_LengthGuardUsesNormalizedForm(t *testing.T) {
	session, _ := newTestSession(&stubSender{})

	// 30 combining pairs: 60 runes before NFC, 30 after. The guard
	// must measure the canonical form that gets stored.
	text := strings.Repeat("é", 30)
	msg, ok := session.Submit(text)
	if !ok {
		t.Fatal("Submit() rejected input whose NFC form is within the limit")
	}
	if got := len([]rune(msg.Content)); got != 30 {
		t.Errorf("stored rune count = %d, want 30", got)
	}
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestSession_Dispatch_StreamsReply(t *testing.T) {
	sender := &stubSender{tokens: []string{"Your order ", "shipped."}}
	session, _ := newTestSession(sender)
	session.Submit("where is my order?")

	var streamed strings.Builder
	_, ok := session.Dispatch(context.Background(), func(tok string) {
		streamed.WriteString(tok)
	})
	if !ok {
		t.Fatal("Dispatch() reported failure")
	}

	last := session.Conversation().GetLastMessage()
	if last.Role != model.RoleAssistant || last.Content != "Your order shipped." {
		t.Errorf("assistant message = %+v", last)
	}
	if last.IsStreaming {
		t.Error("assistant message left in streaming state")
	}
	if streamed.String() != "Your order shipped." {
		t.Errorf("onToken saw %q", streamed.String())
	}

	// History sent to the backend: system prompt, welcome, user.
	if len(sender.history) != 3 || sender.history[0].Role != "system" {
		t.Errorf("wire history = %+v", sender.history)
	}
}

func TestSession_Dispatch_FailureKeepsUserMessage(t *testing.T) {
	sender := &stubSender{err: &backend.APIError{Status: 500, Message: "exploded"}}
	session, _ := newTestSession(sender)
	userMsg, _ := session.Submit("help")

	class, ok := session.Dispatch(context.Background(), nil)
	if ok {
		t.Fatal("Dispatch() reported success for a failing sender")
	}
	if class != throttle.ClassGeneric {
		t.Errorf("class = %v, want ClassGeneric", class)
	}

	// Optimistic append survives the failure; the empty placeholder
	// does not.
	if last := session.Conversation().GetLastMessage(); last != userMsg {
		t.Errorf("last message = %+v, want the user message", last)
	}
	if st := session.Gate().Snapshot(); !st.CoolingDown {
		t.Error("failure did not enter a cooldown")
	}
}

func TestSession_Dispatch_RateLimitRaisesFlag(t *testing.T) {
	sender := &stubSender{err: &backend.APIError{Status: 429, Message: "Too Many Requests"}}
	session, _ := newTestSession(sender)
	session.Submit("help")

	class, _ := session.Dispatch(context.Background(), nil)
	if class != throttle.ClassRateLimit {
		t.Errorf("class = %v, want ClassRateLimit", class)
	}
	if !session.Gate().RateLimited() {
		t.Error("rate-limited flag not raised")
	}
	if st := session.Gate().Snapshot(); st.CooldownRemaining != 30*time.Second {
		t.Errorf("CooldownRemaining = %v, want configured 30s", st.CooldownRemaining)
	}
}

func TestSession_Dispatch_PartialStreamIsKept(t *testing.T) {
	// A sender that yields some tokens before failing: the partial
	// reply is finalized rather than discarded.
	sender := &partialSender{}
	session, _ := newTestSession(sender)
	session.Submit("help")

	if _, ok := session.Dispatch(context.Background(), nil); ok {
		t.Fatal("Dispatch() reported success")
	}
	last := session.Conversation().GetLastMessage()
	if last.Role != model.RoleAssistant || last.Content != "partial" {
		t.Errorf("last message = %+v, want finalized partial reply", last)
	}
}

type partialSender struct{}

func (p *partialSender) ChatStream(ctx context.Context, messages []backend.Message, onToken func(string)) error {
	onToken("partial")
	return &backend.APIError{Message: "connection reset"}
}

// =============================================================================
// CLEAR TESTS
// =============================================================================

func TestSession_Clear(t *testing.T) {
	sender := &stubSender{err: &backend.APIError{Status: 429, Message: "denied"}}
	session, _ := newTestSession(sender)
	session.Submit("one")
	session.Dispatch(context.Background(), nil)

	session.Clear()

	conv := session.Conversation()
	if conv.MessageCount() != 1 {
		t.Fatalf("MessageCount() = %d, want 1", conv.MessageCount())
	}
	if got := conv.GetLastMessage().Content; got != "Welcome!" {
		t.Errorf("seeded message = %q, want welcome", got)
	}
	st := session.Gate().Snapshot()
	if st.RateLimited || st.CoolingDown {
		t.Errorf("gate state after Clear = %+v, want initial", st)
	}

	// A submit straight after Clear is accepted: throttle state is new.
	if _, ok := session.Submit("fresh start"); !ok {
		t.Error("Submit() rejected right after Clear")
	}
}
