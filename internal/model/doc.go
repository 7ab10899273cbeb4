// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the
// application for representing a support-chat session.
//
// # Key Types
//
//   - Conversation: append-only message history for one widget instance
//   - Message: single message with role, content, and timestamp
//   - Role: message role enumeration (user, assistant, system)
//
// # Usage
//
// Create a conversation seeded with a welcome message:
//
//	conv := model.NewConversation("Hi! How can I help?")
//	conv.AddUserMessage("Where is my order?")
//
// Messages are immutable once finalized; the only in-place mutation is
// token accumulation on a streaming assistant message. Resetting a
// conversation replaces the history wholesale with a single seeded
// welcome message.
package model
