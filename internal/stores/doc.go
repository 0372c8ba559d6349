// Package stores provides short-lived record stores for the two-factor login
// flow.
//
// # Design
//
// A [ChallengeStore] persists a versioned, binary-encoded challenge in a
// [kv.Store] with a TTL equal to its remaining lifetime, so unconfirmed
// challenges self-expire in Redis. Only a SHA-256 digest of the code is
// stored. Consumption runs inside [kv.Store.Mutate] (WATCH/MULTI on Redis, a
// mutex locally), so two racing verifications can produce at most one
// success. Digest comparison is constant-time.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for challenge
// records. It does NOT generate codes, send them, enforce rate limits, or
// issue sessions. Those belong to the Engine.
//
// # What this package must NOT do
//
//   - Store or log plaintext codes.
//   - Use non-constant-time comparisons for secret matching.
package stores
