// Package kv provides the minimal key/value-with-TTL abstraction shared by the
// challenge store and the login limiter.
//
// # Backends
//
//   - [Redis]: distributed adapter on go-redis. Atomic read-modify-write uses
//     WATCH/MULTI optimistic transactions with bounded retry.
//   - [Memory]: process-local map bounded by an LRU. Expired entries are swept
//     lazily on access. Not shared across processes and not durable.
//   - [Fallback]: wraps a distributed adapter and serves from a local adapter
//     whenever the distributed one reports [ErrUnavailable]. The two are never
//     synchronized; the failover is logged once per store.
//
// [Select] picks the regime at startup: a configured client yields a Redis
// adapter (with local failover), no client yields memory only.
//
// # What this package must NOT do
//
//   - Interpret stored values. Records are opaque bytes owned by callers.
//   - Replicate entries between backends.
//   - Be imported outside the clubAuth module.
package kv
