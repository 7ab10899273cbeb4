// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jeranaias/helpline-tui/internal/backend"
)

// MaxMessages is the maximum number of messages to keep in conversation history.
// When exceeded, old messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
// It is owned by exactly one widget instance and is append-only: messages
// are never edited or reordered, only added, pruned from the front, or
// replaced wholesale by Reset.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages
	Messages []*Message `json:"messages"`

	// System prompt (optional, sent to the backend but never displayed)
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// NewConversation creates a conversation seeded with a single assistant
// welcome message. An empty welcome string seeds an empty conversation.
func NewConversation(welcome string) *Conversation {
	conv := &Conversation{
		ID:        generateConversationID(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
	if welcome != "" {
		conv.Messages = append(conv.Messages, NewWelcomeMessage(welcome))
	}
	return conv
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage adds a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.pruneOldMessages()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds a streaming assistant message.
func (c *Conversation) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	c.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastAssistantMessage returns the most recent assistant message.
func (c *Conversation) GetLastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// AppendToLast appends a token to the last (streaming) message.
func (c *Conversation) AppendToLast(token string) {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.AppendToken(token)
	}
}

// FinalizeLast finalizes the last streaming message.
func (c *Conversation) FinalizeLast() {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.FinalizeStream()
	}
}

// RemoveMessage removes a message by ID. Used to roll back an empty
// streaming placeholder after a failed dispatch; finalized history is
// never removed.
func (c *Conversation) RemoveMessage(id string) bool {
	for i, msg := range c.Messages {
		if msg.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Reset replaces the entire history with a single seeded assistant
// welcome message. Always succeeds; calling it repeatedly yields the
// same observable state.
func (c *Conversation) Reset(welcome string) {
	c.Messages = make([]*Message, 0, 1)
	if welcome != "" {
		c.Messages = append(c.Messages, NewWelcomeMessage(welcome))
	}
	c.Title = ""
	c.UpdatedAt = time.Now()
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// GetHistory returns the message history for display.
func (c *Conversation) GetHistory() []*Message {
	return c.Messages
}

// =============================================================================
// WIRE CONVERSION
// =============================================================================

// ToWireMessages converts the conversation to backend wire format.
// The system prompt, when set, is always the first wire message.
// Streaming placeholders and empty messages are skipped.
func (c *Conversation) ToWireMessages() []backend.Message {
	messages := make([]backend.Message, 0, len(c.Messages)+1)

	if c.SystemPrompt != "" {
		messages = append(messages, backend.NewSystemMessage(c.SystemPrompt))
	}

	for _, msg := range c.Messages {
		if msg.IsStreaming || msg.IsEmpty() {
			continue
		}
		switch msg.Role {
		case RoleUser, RoleAssistant, RoleSystem:
			messages = append(messages, backend.Message{
				Role:    msg.Role.String(),
				Content: msg.Content,
			})
		}
	}

	return messages
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user message if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			c.Title = msg.Preview(50)
			return
		}
	}
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// Preview returns a short preview of the conversation.
func (c *Conversation) Preview() string {
	if len(c.Messages) == 0 {
		return "Empty conversation"
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg.Preview(100)
		}
	}
	return c.Messages[0].Preview(100)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}

// pruneOldMessages removes old messages when conversation history
// exceeds MaxMessages. The first message (the seeded welcome) is
// preserved so a long-running widget keeps its greeting.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}

	keep := c.Messages[0]
	overflow := len(c.Messages) - MaxMessages
	rest := c.Messages[1+overflow:]

	c.Messages = make([]*Message, 0, 1+len(rest))
	c.Messages = append(c.Messages, keep)
	c.Messages = append(c.Messages, rest...)
}
