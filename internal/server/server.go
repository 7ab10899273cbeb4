// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP API route that fronts the hosted
// LLM backend with the security gate.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jeranaias/helpline-tui/internal/backend"
	"github.com/jeranaias/helpline-tui/internal/gate"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds server settings.
type Config struct {
	// Addr is the listen address (e.g. "127.0.0.1:8780").
	Addr string

	// Gate holds the security gate tuning.
	Gate gate.Config

	// MaxBodyBytes bounds request body reads.
	MaxBodyBytes int64

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8780",
		Gate:            gate.DefaultConfig(),
		MaxBodyBytes:    64 * 1024,
		ShutdownTimeout: 5 * time.Second,
	}
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// ChatRequest is the JSON body accepted by POST /api/chat.
type ChatRequest struct {
	Message string            `json:"message"`
	History []backend.Message `json:"history,omitempty"`
}

// =============================================================================
// SERVER
// =============================================================================

// Checker is the gate dependency. *gate.Gate satisfies this.
type Checker interface {
	Check(d gate.Descriptor) gate.Decision
}

// Streamer is the backend dependency. *backend.Client satisfies this.
type Streamer interface {
	ChatStream(ctx context.Context, messages []backend.Message, onToken func(token string)) error
}

// Server is the chat API server.
type Server struct {
	cfg     Config
	gate    Checker
	backend Streamer
	httpSrv *http.Server
}

// New creates a server around a gate and a backend client.
func New(cfg Config, checker Checker, streamer Streamer) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	s := &Server{cfg: cfg, gate: checker, backend: streamer}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr: cfg.Addr,
		Handler: Chain(mux,
			RecoveryMiddleware(),
			RequestIDMiddleware(),
			SecurityHeadersMiddleware(),
			LoggingMiddleware(),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("helpline API listening on %s", s.cfg.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleChat gates the request and relays the backend stream.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	decision := s.gate.Check(gate.Descriptor{
		ClientKey: clientIP(r),
		UserAgent: r.UserAgent(),
		Payload:   req.Message,
	})
	if !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	messages := append(req.History, backend.Message{Role: "user", Content: req.Message})
	s.streamResponse(w, r, messages)
}

// writeDenial maps a gate denial to its HTTP status and plain-text
// body. This mapping is what the widget's error classifier ultimately
// observes.
func writeDenial(w http.ResponseWriter, d gate.Decision) {
	switch d.Reason {
	case gate.ReasonRateLimit:
		if d.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds()+1)))
		}
		http.Error(w, "Too many requests. Please slow down.", http.StatusTooManyRequests)
	case gate.ReasonBot, gate.ReasonShield:
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Bad Request", http.StatusBadRequest)
	}
}

// streamResponse relays backend tokens to the client as SSE.
func (s *Server) streamResponse(w http.ResponseWriter, r *http.Request, messages []backend.Message) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Connection", "keep-alive")

	wroteAny := false
	err := s.backend.ChatStream(r.Context(), messages, func(token string) {
		payload, _ := json.Marshal(map[string]string{"token": token})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		wroteAny = true
	})
	if err != nil {
		// Headers are gone once the first token was flushed; in that
		// case surface the failure as an SSE error event instead.
		if !wroteAny {
			status, msg := errorStatus(err)
			http.Error(w, msg, status)
			return
		}
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// errorStatus maps a backend error to a relayed status and message.
func errorStatus(err error) (int, string) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status > 0 {
		return apiErr.Status, apiErr.Message
	}
	return http.StatusBadGateway, "upstream error"
}
