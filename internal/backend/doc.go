// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the hosted LLM chat API.
//
// The backend speaks an OpenAI-compatible chat completions protocol:
// requests carry the full message history, responses stream text
// increments as server-sent events. Failures surface as *APIError
// carrying the HTTP status and response body, which is what the
// widget's error classifier inspects.
//
// Key types:
//   - Client: thread-safe API client with retry logic
//   - APIError: error with status code and free-text message
//   - Message: a single {role, content} wire message
package backend
