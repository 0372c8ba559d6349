// Package internal holds random identifier and code generation shared by
// the clubAuth packages.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - httpapi: JSON auth endpoints and social sign-in redirects
//   - kv: expiring key/value adapters (Redis, memory, fallback)
//   - limiters: login and two-factor failure limiter
//   - metrics: lock-free counters and latency histograms
//   - stores: two-factor challenge records
//
// # What this package must NOT do
//
//   - Export types that appear in the public clubAuth API.
//   - Be imported by any package outside the clubAuth module.
package internal
