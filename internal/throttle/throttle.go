// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package throttle gates outbound chat messages and classifies backend
// errors into timed cooldowns.
//
// A Gate enforces three independent guards before a message may be
// sent: a minimum interval between sends, an explicit rate-limited
// flag, and a message length bound. It also owns the cooldown state
// machine: backend failures are classified as rate-limit errors
// (cooldown for the configured interval) or generic errors (fixed
// short cooldown), and a one-shot timer returns the gate to idle.
//
// All guard rejections are silent: callers observe them only as the
// absence of a send. Nothing in this package re-throws an error.
package throttle

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/helpline-tui/internal/backend"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the gate's tunable limits.
type Config struct {
	// MinMessageGap is the minimum interval between accepted sends.
	// Sends arriving sooner are silently dropped.
	MinMessageGap time.Duration

	// MaxMessageLength is the maximum message length in runes.
	MaxMessageLength int

	// RateLimitCooldown is how long the gate stays rate-limited after
	// a rate-limit error from the backend.
	RateLimitCooldown time.Duration
}

// Default limits, applied when a Config field is unset.
const (
	DefaultMinMessageGap     = 1 * time.Second
	DefaultMaxMessageLength  = 1000
	DefaultRateLimitCooldown = 60 * time.Second

	// GenericCooldown is the fixed cooldown after a non-rate-limit
	// error. It is cosmetic: the rate-limited flag is not raised and
	// the user may retry immediately.
	GenericCooldown = 5 * time.Second
)

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.MinMessageGap <= 0 {
		c.MinMessageGap = DefaultMinMessageGap
	}
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = DefaultMaxMessageLength
	}
	if c.RateLimitCooldown <= 0 {
		c.RateLimitCooldown = DefaultRateLimitCooldown
	}
	return c
}

// =============================================================================
// VERDICTS
// =============================================================================

// Verdict is the result of checking a message against the guards.
type Verdict int

const (
	// VerdictSend means all guards passed.
	VerdictSend Verdict = iota
	// VerdictEmptyMessage means the trimmed message was empty.
	VerdictEmptyMessage
	// VerdictRateLimited means the gate is in a rate-limit cooldown.
	VerdictRateLimited
	// VerdictTooLong means the message exceeds MaxMessageLength runes.
	VerdictTooLong
	// VerdictTooSoon means the message arrived within MinMessageGap of
	// the previous send.
	VerdictTooSoon
)

// Allowed reports whether the verdict permits a send.
func (v Verdict) Allowed() bool {
	return v == VerdictSend
}

// ErrorClass is the classification of a backend error.
type ErrorClass int

const (
	// ClassGeneric covers every failure that is not a rate limit.
	ClassGeneric ErrorClass = iota
	// ClassRateLimit covers 429 responses and rate-limit wording.
	ClassRateLimit
)

// =============================================================================
// GATE
// =============================================================================

// Gate owns the throttle state for one widget instance.
//
// The clock and timer scheduler are injectable so the cooldown state
// machine can be driven by a simulated clock in tests. The zero
// scheduling path uses time.AfterFunc.
type Gate struct {
	mu  sync.Mutex
	cfg Config

	lastSend      time.Time
	rateLimited   bool
	cooldownUntil time.Time // zero while idle

	// epoch invalidates timer callbacks scheduled before a Reset.
	epoch uint64

	now      func() time.Time
	schedule func(d time.Duration, fn func())
}

// NewGate creates a gate with the real clock.
func NewGate(cfg Config) *Gate {
	return NewGateWithClock(cfg, time.Now, func(d time.Duration, fn func()) {
		time.AfterFunc(d, fn)
	})
}

// NewGateWithClock creates a gate with an injected clock and one-shot
// timer scheduler.
func NewGateWithClock(cfg Config, now func() time.Time, schedule func(time.Duration, func())) *Gate {
	return &Gate{
		cfg:      cfg.withDefaults(),
		now:      now,
		schedule: schedule,
	}
}

// SetLimits replaces the gate's limits. Cooldowns already in progress
// keep the duration fixed at entry.
func (g *Gate) SetLimits(cfg Config) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg = cfg.withDefaults()
}

// Limits returns the gate's current limits.
func (g *Gate) Limits() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// =============================================================================
// GUARDS
// =============================================================================

// Check runs the send guards against raw input, in order: empty
// message, rate-limited flag, length bound, minimum gap. It has no
// side effects; a passing caller records the send with MarkSent.
func (g *Gate) Check(raw string) Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.TrimSpace(raw) == "" {
		return VerdictEmptyMessage
	}
	if g.rateLimited {
		return VerdictRateLimited
	}
	if len([]rune(raw)) > g.cfg.MaxMessageLength {
		return VerdictTooLong
	}
	if !g.lastSend.IsZero() && g.now().Sub(g.lastSend) < g.cfg.MinMessageGap {
		return VerdictTooSoon
	}
	return VerdictSend
}

// MarkSent records an accepted send. The timestamp never moves
// backwards, even with a coarse or adjusted clock.
func (g *Gate) MarkSent() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if now := g.now(); now.After(g.lastSend) {
		g.lastSend = now
	}
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// Classify consumes a backend error and enters the matching cooldown.
//
// Rate-limit errors (HTTP 429, or wording that mentions "429", "rate
// limit", or "too many requests") raise the rate-limited flag for the
// configured cooldown. Everything else starts the fixed generic
// cooldown without raising the flag, so the user may retry at once.
//
// An error arriving while a cooldown is already active does not
// restart the timer: the duration is fixed at entry. Errors are fully
// consumed here; nothing is propagated.
func (g *Gate) Classify(err error) ErrorClass {
	class := classify(err)
	if err == nil {
		return class
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.coolingDownLocked(now) {
		return class
	}

	d := GenericCooldown
	if class == ClassRateLimit {
		d = g.cfg.RateLimitCooldown
		g.rateLimited = true
	}
	g.cooldownUntil = now.Add(d)

	epoch := g.epoch
	g.schedule(d, func() { g.finishCooldown(epoch) })

	return class
}

// finishCooldown is the one-shot timer callback ending a cooldown.
// A callback from before a Reset carries a stale epoch and is a no-op,
// so it can never clobber a cooldown that started later.
func (g *Gate) finishCooldown(epoch uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if epoch != g.epoch {
		return
	}
	g.rateLimited = false
	g.cooldownUntil = time.Time{}
}

// classify decides the error class without touching gate state.
func classify(err error) ErrorClass {
	if err == nil {
		return ClassGeneric
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status == 429 {
		return ClassRateLimit
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "too many requests"} {
		if strings.Contains(msg, marker) {
			return ClassRateLimit
		}
	}
	return ClassGeneric
}

// =============================================================================
// STATE INSPECTION
// =============================================================================

// State is a snapshot of the gate for display purposes.
type State struct {
	RateLimited       bool
	CoolingDown       bool
	CooldownRemaining time.Duration
}

// Snapshot returns the current throttle state.
func (g *Gate) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := State{RateLimited: g.rateLimited}
	if !g.cooldownUntil.IsZero() {
		st.CoolingDown = true
		if remaining := g.cooldownUntil.Sub(g.now()); remaining > 0 {
			st.CooldownRemaining = remaining
		}
	}
	return st
}

// RateLimited reports whether the rate-limited flag is raised.
func (g *Gate) RateLimited() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rateLimited
}

// Reset returns the gate to its initial state and invalidates any
// pending cooldown timer.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.epoch++
	g.rateLimited = false
	g.cooldownUntil = time.Time{}
	g.lastSend = time.Time{}
}

// coolingDownLocked reports whether a cooldown is active. Caller must
// hold the mutex.
func (g *Gate) coolingDownLocked(now time.Time) bool {
	return !g.cooldownUntil.IsZero() && now.Before(g.cooldownUntil)
}
