// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP API route that fronts the hosted
// LLM backend with the security gate.
//
// Requests hit the gate first. A denial maps to a plain-text error
// response: 429 for rate limiting (with Retry-After), 403 for bot or
// shield denials, 400 for everything else. Allowed requests are
// forwarded to the backend and the response stream is relayed to the
// client as server-sent events.
//
// Middleware (request IDs, logging, security headers, panic recovery)
// wraps every route.
package server
