// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches tokens for efficient rendering. Tokens are
// accumulated by the streaming goroutine and drained by the Bubble Tea
// loop on a fixed tick, so the view redraws at a capped frame rate
// instead of once per token.
//
// Thread-safety: all operations are protected by a mutex since tokens
// arrive on a goroutine while draining happens in the update loop.
type StreamingBuffer struct {
	mu     sync.Mutex
	buffer strings.Builder

	flushInterval time.Duration
}

// NewStreamingBuffer creates a streaming buffer flushing at ~30fps.
func NewStreamingBuffer() *StreamingBuffer {
	return NewStreamingBufferWithInterval(33 * time.Millisecond)
}

// NewStreamingBufferWithInterval creates a buffer with a custom flush
// interval. Intervals outside (0, 1s] fall back to the default.
func NewStreamingBufferWithInterval(interval time.Duration) *StreamingBuffer {
	if interval <= 0 || interval > time.Second {
		interval = 33 * time.Millisecond
	}
	return &StreamingBuffer{flushInterval: interval}
}

// Add appends a token to the buffer. Safe to call from any goroutine.
func (b *StreamingBuffer) Add(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer.WriteString(token)
}

// Flush returns and clears the buffered text.
func (b *StreamingBuffer) Flush() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.buffer.String()
	b.buffer.Reset()
	return out
}

// Reset discards any buffered text.
func (b *StreamingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer.Reset()
}

// FlushInterval returns the configured tick interval.
func (b *StreamingBuffer) FlushInterval() time.Duration {
	return b.flushInterval
}
