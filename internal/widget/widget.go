// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package widget implements the headless support-chat session.
//
// A Session owns one Conversation and one throttle Gate and talks to
// the backend through the Sender interface. It contains no rendering:
// the TUI and the plain REPL both drive the same Session, and tests
// drive it with a stub Sender.
//
// Submitting a message is two explicit steps. Submit runs the guards
// and synchronously appends the user message (the optimistic append);
// Dispatch then performs the network call. A failed dispatch never
// removes the user's message - the failure is consumed by the gate's
// classifier and surfaces only as cooldown state.
package widget

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/helpline-tui/internal/backend"
	"github.com/jeranaias/helpline-tui/internal/model"
	"github.com/jeranaias/helpline-tui/internal/throttle"
)

// =============================================================================
// COLLABORATOR INTERFACE
// =============================================================================

// Sender streams a chat completion for the given message history.
// *backend.Client satisfies this.
type Sender interface {
	ChatStream(ctx context.Context, messages []backend.Message, onToken func(token string)) error
}

// =============================================================================
// SESSION
// =============================================================================

// Options configures a Session.
type Options struct {
	// WelcomeMessage seeds the conversation and re-seeds it on Clear.
	WelcomeMessage string

	// SystemPrompt is sent to the backend ahead of the history.
	SystemPrompt string

	// Throttle holds the gate limits.
	Throttle throttle.Config
}

// Session is the headless chat widget core.
type Session struct {
	conv    *model.Conversation
	gate    *throttle.Gate
	sender  Sender
	welcome string
}

// NewSession creates a session seeded with the welcome message.
func NewSession(sender Sender, opts Options) *Session {
	return newSession(sender, opts, throttle.NewGate(opts.Throttle))
}

// NewSessionWithGate creates a session around an existing gate.
// Used by tests that drive the gate with a simulated clock.
func NewSessionWithGate(sender Sender, opts Options, gate *throttle.Gate) *Session {
	return newSession(sender, opts, gate)
}

func newSession(sender Sender, opts Options, gate *throttle.Gate) *Session {
	conv := model.NewConversation(opts.WelcomeMessage)
	conv.SystemPrompt = opts.SystemPrompt
	return &Session{
		conv:    conv,
		gate:    gate,
		sender:  sender,
		welcome: opts.WelcomeMessage,
	}
}

// Conversation returns the session's conversation.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// Gate returns the session's throttle gate.
func (s *Session) Gate() *throttle.Gate {
	return s.gate
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Submit runs the send guards against raw input and, when they pass,
// appends the user message to the conversation. Guard rejections are
// silent: no message, no state change, ok == false.
//
// Input is NFC-normalized before the guards run so that the length
// check, the stored history, and the wire payload all see the same
// rune count in one canonical form.
func (s *Session) Submit(raw string) (msg *model.Message, ok bool) {
	text := norm.NFC.String(raw)
	if !s.gate.Check(text).Allowed() {
		return nil, false
	}
	s.gate.MarkSent()

	msg = s.conv.AddUserMessage(text)
	return msg, true
}

// Dispatch sends the conversation to the backend, streaming tokens
// into a fresh assistant message and to onToken. On failure the empty
// placeholder is rolled back and the error is consumed by the gate's
// classifier; the returned class tells the caller which cooldown is
// now active. The boolean reports success.
func (s *Session) Dispatch(ctx context.Context, onToken func(token string)) (throttle.ErrorClass, bool) {
	history := s.conv.ToWireMessages()
	reply := s.conv.AddAssistantMessage()

	err := s.sender.ChatStream(ctx, history, func(token string) {
		reply.AppendToken(token)
		if onToken != nil {
			onToken(token)
		}
	})
	if err != nil {
		if reply.IsEmpty() {
			s.conv.RemoveMessage(reply.ID)
		} else {
			reply.FinalizeStream()
		}
		return s.gate.Classify(err), false
	}

	reply.FinalizeStream()
	return throttle.ClassGeneric, true
}

// Clear resets the throttle state and replaces the conversation with a
// single seeded welcome message. Always succeeds; idempotent.
func (s *Session) Clear() {
	s.gate.Reset()
	s.conv.Reset(s.welcome)
}
