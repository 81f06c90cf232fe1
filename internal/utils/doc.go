// Package utils provides the shared HTTP plumbing used by the provider
// runtimes: JSON POST helpers for synchronous and streaming (SSE) calls to
// vendor chat-completion APIs, a typed error carrying the status and body of
// non-2xx responses, and small generic conveniences.
//
// Key entry points: [DoPostSync] for blocking JSON round-trips, [DoPostStream]
// plus [SSEScanner] for server-sent-event consumption, and [HTTPError] for
// inspecting vendor failures with errors.As.
package utils
