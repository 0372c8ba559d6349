// Package limiters provides the login failure limiter built on internal/kv.
//
// # Policy
//
// [LoginLimiter] counts failures per key inside a rolling window (10 min).
// Reaching the threshold (5) blocks the key for 15 minutes. Each failure
// returns a throttling delay of min(2s, 250ms + attempts*250ms) that the
// caller waits out with [Wait] before answering. A window that elapses with
// no block in force resets the count; an elapsed block resets the entry.
//
// Persisted entries carry a TTL of max(block remaining, window remaining, 1s)
// rounded up to whole seconds.
//
// The limiter is nil-safe: calling any method on a nil receiver reports
// "not blocked" and records nothing.
//
// # Architecture boundaries
//
// The limiter owns its own key namespace and record encoding. Key derivation
// from requests lives with the HTTP-facing callers.
//
// # What this package must NOT do
//
//   - Decide consequences of a block. Callers map it to responses.
//   - Cancel throttling delays with a request context.
package limiters
