// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the hosted LLM chat API.
package backend

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// APIError represents an error response from the backend.
// Status carries the HTTP status code (0 when the request never
// reached the server), Message the response body or cause text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
	}
	return "backend error: " + e.Message
}

// Sentinel errors for easy checking.
var (
	ErrMissingAPIKey = errors.New("backend API key not configured")
	ErrNoMessages    = errors.New("no messages to send")
	ErrStreamClosed  = errors.New("stream closed before completion")
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Configuration constants for the backend API.
const (
	// DefaultTimeout is the timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of retry attempts for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// maxErrorBodySize limits how much of an error response body is read.
	maxErrorBodySize = 64 * 1024
)

var (
	// Shared HTTP client with connection pooling for all backend requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests.
	// No overall timeout: lifetime is controlled via context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the API base URL (e.g. "https://api.example.com/v1")
	BaseURL string

	// APIKey is the bearer token sent with every request.
	APIKey string

	// Model is the model identifier for chat requests.
	Model string

	// MaxRetries for transient failures (default: 3)
	MaxRetries int

	// RetryDelay is the base delay between retries (default: 500ms)
	RetryDelay time.Duration
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		MaxRetries: DefaultMaxRetries,
		RetryDelay: retryBaseDelay,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the hosted chat API.
// It is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a new backend client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = retryBaseDelay
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:       config,
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.config.Model
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// ChatStream sends the message history and streams text increments to
// onToken until the server signals completion.
//
// Transient failures (network errors, 5xx responses) are retried with
// exponential backoff, but only before the first token arrives: once a
// token has been delivered to onToken, re-issuing the request would
// replay already-delivered text, so the failure surfaces to the caller
// instead. Client errors (4xx) are never retried and surface
// immediately as *APIError so the caller's classifier can inspect the
// status.
func (c *Client) ChatStream(ctx context.Context, messages []Message, onToken func(token string)) error {
	if c.config.APIKey == "" {
		return ErrMissingAPIKey
	}
	if len(messages) == 0 {
		return ErrNoMessages
	}

	body, err := json.Marshal(ChatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return &APIError{Message: "failed to encode request: " + err.Error()}
	}

	// Retrying after tokens were emitted would replay them, so the
	// wrapped callback records the point of no return.
	tokenSeen := false
	emit := func(token string) {
		tokenSeen = true
		if onToken != nil {
			onToken(token)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(c.config.RetryDelay, attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.streamOnce(ctx, body, emit)
		if err == nil {
			return nil
		}
		if tokenSeen || !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// Chat sends the message history and returns the complete response text.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	var sb strings.Builder
	if err := c.ChatStream(ctx, messages, func(token string) {
		sb.WriteString(token)
	}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// streamOnce performs a single streaming request attempt.
func (c *Client) streamOnce(ctx context.Context, body []byte, onToken func(string)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return &APIError{Message: "failed to build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readErrorResponse(resp)
	}

	return readSSE(resp.Body, onToken)
}

// readSSE consumes a server-sent event stream, invoking onToken for
// every text increment until the [DONE] terminator.
func readSSE(r io.Reader, onToken func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue // SSE comments and blank keep-alive lines
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed chunks rather than aborting the stream.
			continue
		}
		if token := chunk.Content(); token != "" && onToken != nil {
			onToken(token)
		}
		if chunk.Done() {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return &APIError{Message: "stream read failed: " + err.Error()}
	}
	return ErrStreamClosed
}

// readErrorResponse converts a non-200 response into an *APIError.
func readErrorResponse(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	msg := strings.TrimSpace(string(data))

	// Prefer the structured message when the body is a JSON error envelope.
	var envelope errorResponse
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &APIError{Status: resp.StatusCode, Message: msg}
}

// =============================================================================
// RETRY HELPERS
// =============================================================================

// isRetryable reports whether the error is transient.
// 4xx responses are terminal: retrying a rate-limited or invalid
// request only makes things worse.
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 0 {
			return true // network-level failure
		}
		return apiErr.Status >= 500
	}
	return false
}

// backoffDelay computes the exponential backoff delay for an attempt.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base << (attempt - 1)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
