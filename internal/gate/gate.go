// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate decides whether an inbound chat request is allowed.
//
// The gate runs three checks in order: bot detection on the user
// agent, shield screening of the payload, and a per-client token
// bucket rate limit. The first failing check wins and its reason tag
// is returned so the HTTP layer can map it to a status code.
package gate

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// DECISIONS
// =============================================================================

// Reason tags why a request was denied.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonRateLimit Reason = "rate-limit"
	ReasonBot       Reason = "bot"
	ReasonShield    Reason = "shield"
	ReasonOther     Reason = "other"
)

// Decision is the outcome of a gate check.
type Decision struct {
	// Allowed indicates if the request may proceed.
	Allowed bool

	// Reason tags the failing check when denied.
	Reason Reason

	// RetryAfter is how long to wait before retrying (rate limit only).
	RetryAfter time.Duration

	// Remaining is the approximate number of requests left in the
	// client's bucket.
	Remaining int
}

// Descriptor describes one inbound request.
type Descriptor struct {
	// ClientKey identifies the client for rate limiting (normally the
	// remote IP).
	ClientKey string

	// UserAgent is the request's User-Agent header.
	UserAgent string

	// Payload is the chat message text.
	Payload string
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds gate tuning.
type Config struct {
	// RequestsPerMinute is the sustained per-client rate.
	RequestsPerMinute int

	// Burst is the per-client bucket size.
	Burst int

	// MaxPayloadBytes rejects oversized payloads with ReasonOther.
	MaxPayloadBytes int
}

// DefaultConfig returns sensible defaults: 20 requests per minute,
// burst of 5, 16KB payload ceiling.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 20,
		Burst:             5,
		MaxPayloadBytes:   16 * 1024,
	}
}

// botMarkers flag automated user agents. An empty user agent is also
// treated as a bot: every real browser and the widget itself send one.
var botMarkers = []string{
	"bot", "crawler", "spider", "scraper",
	"curl", "wget", "python-requests", "go-http-client",
}

// shieldPatterns screen payloads for injection probes. The widget only
// ever sends plain chat text, so markup and SQL fragments are hostile.
var shieldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script\b`),
	regexp.MustCompile(`(?i)\bunion\s+select\b`),
	regexp.MustCompile(`(?i)\bdrop\s+table\b`),
	regexp.MustCompile(`\.\./\.\./`),
	regexp.MustCompile(`(?i)javascript\s*:`),
}

// =============================================================================
// GATE
// =============================================================================

// Gate is a concurrency-safe request gate with per-client token
// buckets.
type Gate struct {
	cfg Config

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	done      chan struct{}
	closeOnce sync.Once
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// staleAfter is how long an idle client's bucket is kept.
const staleAfter = 10 * time.Minute

// New creates a gate and starts its background cleanup.
func New(cfg Config) *Gate {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = DefaultConfig().MaxPayloadBytes
	}

	g := &Gate{
		cfg:      cfg,
		limiters: make(map[string]*clientLimiter),
		done:     make(chan struct{}),
	}
	go g.cleanup()
	return g
}

// Close stops the background cleanup goroutine. Safe to call more
// than once; the gate itself keeps working after Close.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		close(g.done)
	})
}

// Check evaluates a request descriptor. First failing check wins.
func (g *Gate) Check(d Descriptor) Decision {
	if d.ClientKey == "" {
		return Decision{Reason: ReasonOther}
	}
	if len(d.Payload) > g.cfg.MaxPayloadBytes || strings.TrimSpace(d.Payload) == "" {
		return Decision{Reason: ReasonOther}
	}
	if isBot(d.UserAgent) {
		return Decision{Reason: ReasonBot}
	}
	if hitsShield(d.Payload) {
		return Decision{Reason: ReasonShield}
	}
	return g.checkRate(d.ClientKey)
}

// checkRate spends one token from the client's bucket.
func (g *Gate) checkRate(key string) Decision {
	g.mu.Lock()
	cl, ok := g.limiters[key]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(g.cfg.RequestsPerMinute)/60.0), g.cfg.Burst),
		}
		g.limiters[key] = cl
	}
	cl.lastSeen = time.Now()
	g.mu.Unlock()

	res := cl.limiter.Reserve()
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return Decision{
			Reason:     ReasonRateLimit,
			RetryAfter: delay,
		}
	}
	return Decision{
		Allowed:   true,
		Remaining: int(cl.limiter.Tokens()),
	}
}

// cleanup periodically drops buckets for clients that went quiet,
// until Close is called.
func (g *Gate) cleanup() {
	ticker := time.NewTicker(staleAfter)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-staleAfter)
			g.mu.Lock()
			for key, cl := range g.limiters {
				if cl.lastSeen.Before(cutoff) {
					delete(g.limiters, key)
				}
			}
			g.mu.Unlock()
		}
	}
}

// =============================================================================
// CHECK HELPERS
// =============================================================================

// isBot reports whether the user agent looks automated.
func isBot(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return true
	}
	ua := strings.ToLower(userAgent)
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// hitsShield reports whether the payload matches an attack pattern.
func hitsShield(payload string) bool {
	for _, re := range shieldPatterns {
		if re.MatchString(payload) {
			return true
		}
	}
	return false
}
