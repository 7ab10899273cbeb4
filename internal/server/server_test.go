// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP API route that fronts the hosted
// LLM backend with the security gate.
package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/helpline-tui/internal/backend"
	"github.com/jeranaias/helpline-tui/internal/gate"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type stubChecker struct {
	decision gate.Decision
	seen     gate.Descriptor
}

func (c *stubChecker) Check(d gate.Descriptor) gate.Decision {
	c.seen = d
	return c.decision
}

type stubStreamer struct {
	tokens []string
	err    error
}

func (s *stubStreamer) ChatStream(ctx context.Context, messages []backend.Message, onToken func(string)) error {
	if s.err != nil {
		return s.err
	}
	for _, tok := range s.tokens {
		onToken(tok)
	}
	return nil
}

func newTestServer(c Checker, b Streamer) *Server {
	return New(DefaultConfig(), c, b)
}

func postChat(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.RemoteAddr = "203.0.113.9:51234"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// DENIAL MAPPING TESTS
// =============================================================================

func TestServer_DenialStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		decision   gate.Decision
		wantStatus int
	}{
		{"rate limit", gate.Decision{Reason: gate.ReasonRateLimit, RetryAfter: 12 * time.Second}, http.StatusTooManyRequests},
		{"bot", gate.Decision{Reason: gate.ReasonBot}, http.StatusForbidden},
		{"shield", gate.Decision{Reason: gate.ReasonShield}, http.StatusForbidden},
		{"other", gate.Decision{Reason: gate.ReasonOther}, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&stubChecker{decision: tc.decision}, &stubStreamer{})
			rec := postChat(t, srv, `{"message":"hello"}`)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q, want plain text", ct)
			}
		})
	}
}

func TestServer_RateLimitSetsRetryAfter(t *testing.T) {
	srv := newTestServer(&stubChecker{decision: gate.Decision{
		Reason:     gate.ReasonRateLimit,
		RetryAfter: 12 * time.Second,
	}}, &stubStreamer{})

	rec := postChat(t, srv, `{"message":"hello"}`)
	if got := rec.Header().Get("Retry-After"); got != "13" {
		t.Errorf("Retry-After = %q, want rounded-up seconds", got)
	}
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func TestServer_ChatStreamsTokens(t *testing.T) {
	checker := &stubChecker{decision: gate.Decision{Allowed: true}}
	srv := newTestServer(checker, &stubStreamer{tokens: []string{"Hi", " there"}})

	rec := postChat(t, srv, `{"message":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `{"token":"Hi"}`) || !strings.Contains(body, "data: [DONE]") {
		t.Errorf("body = %q, want token events and DONE", body)
	}

	// The gate saw the request descriptor.
	if checker.seen.ClientKey != "203.0.113.9" {
		t.Errorf("gate ClientKey = %q, want the peer IP", checker.seen.ClientKey)
	}
	if checker.seen.Payload != "hello" {
		t.Errorf("gate Payload = %q", checker.seen.Payload)
	}
}

func TestServer_BackendErrorRelaysStatus(t *testing.T) {
	srv := newTestServer(
		&stubChecker{decision: gate.Decision{Allowed: true}},
		&stubStreamer{err: &backend.APIError{Status: 429, Message: "Too Many Requests"}},
	)

	rec := postChat(t, srv, `{"message":"hello"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want upstream 429 relayed", rec.Code)
	}
}

func TestServer_MalformedBody(t *testing.T) {
	srv := newTestServer(&stubChecker{decision: gate.Decision{Allowed: true}}, &stubStreamer{})

	rec := postChat(t, srv, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(&stubChecker{}, &stubStreamer{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestServer_RequestIDEchoed(t *testing.T) {
	srv := newTestServer(&stubChecker{decision: gate.Decision{Allowed: true}}, &stubStreamer{})

	rec := postChat(t, srv, `{"message":"hello"}`)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}
