// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate decides whether an inbound chat request is allowed.
package gate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func okRequest(key string) Descriptor {
	return Descriptor{
		ClientKey: key,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64)",
		Payload:   "where is my order?",
	}
}

func TestGate_AllowsNormalRequest(t *testing.T) {
	g := New(DefaultConfig())
	defer g.Close()

	d := g.Check(okRequest("10.0.0.1"))
	require.True(t, d.Allowed)
	require.Equal(t, ReasonNone, d.Reason)
}

func TestGate_DeniesBots(t *testing.T) {
	g := New(DefaultConfig())
	defer g.Close()

	tests := []struct {
		name string
		ua   string
	}{
		{"empty user agent", ""},
		{"curl", "curl/8.0.1"},
		{"crawler", "ExampleCrawler/2.1 (+https://example.com)"},
		{"go client", "Go-http-client/1.1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := okRequest("10.0.0.2")
			req.UserAgent = tc.ua
			d := g.Check(req)
			require.False(t, d.Allowed)
			require.Equal(t, ReasonBot, d.Reason)
		})
	}
}

func TestGate_ShieldScreensPayload(t *testing.T) {
	g := New(DefaultConfig())
	defer g.Close()

	tests := []struct {
		name    string
		payload string
	}{
		{"script tag", "hi <script>alert(1)</script>"},
		{"sql union", "x' UNION SELECT password FROM users --"},
		{"path traversal", "show me ../../../../etc/passwd"},
		{"javascript url", "click javascript:alert(1)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := okRequest("10.0.0.3")
			req.Payload = tc.payload
			d := g.Check(req)
			require.False(t, d.Allowed)
			require.Equal(t, ReasonShield, d.Reason)
		})
	}
}

func TestGate_RateLimitsPerClient(t *testing.T) {
	g := New(Config{RequestsPerMinute: 6, Burst: 3})
	defer g.Close()

	// Exhaust one client's burst.
	var denied Decision
	for i := 0; i < 10; i++ {
		denied = g.Check(okRequest("10.0.0.4"))
		if !denied.Allowed {
			break
		}
	}
	require.False(t, denied.Allowed, "burst was never exhausted")
	require.Equal(t, ReasonRateLimit, denied.Reason)
	require.Greater(t, denied.RetryAfter.Seconds(), 0.0)

	// Other clients are unaffected.
	d := g.Check(okRequest("10.0.0.5"))
	require.True(t, d.Allowed)
}

func TestGate_MalformedRequests(t *testing.T) {
	g := New(DefaultConfig())
	defer g.Close()

	tests := []struct {
		name string
		req  Descriptor
	}{
		{"missing client key", Descriptor{UserAgent: "Mozilla/5.0", Payload: "hi"}},
		{"empty payload", Descriptor{ClientKey: "k", UserAgent: "Mozilla/5.0", Payload: "  "}},
		{"oversized payload", Descriptor{
			ClientKey: "k",
			UserAgent: "Mozilla/5.0",
			Payload:   strings.Repeat("x", DefaultConfig().MaxPayloadBytes+1),
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := g.Check(tc.req)
			require.False(t, d.Allowed)
			require.Equal(t, ReasonOther, d.Reason)
		})
	}
}

func TestGate_ConcurrentClients(t *testing.T) {
	g := New(Config{RequestsPerMinute: 600, Burst: 100})
	defer g.Close()

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				g.Check(okRequest(fmt.Sprintf("client-%d", n)))
			}
		}(i)
	}
	for i := 0; i < 20; i++ {
		<-done
	}
	// Should not race or panic.
}

func TestGate_CloseStopsCleanup(t *testing.T) {
	g := New(DefaultConfig())

	// Close is idempotent and leaves the gate itself usable.
	g.Close()
	g.Close()

	d := g.Check(okRequest("10.0.0.9"))
	require.True(t, d.Allowed)
}
