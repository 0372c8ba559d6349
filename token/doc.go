// Package token implements the signed token codec: a JSON payload and its
// HMAC-SHA256 signature, each base64url encoded without padding and joined
// by a dot.
//
// # Guarantees
//
//   - [Verify] compares signatures in constant time.
//   - Every failure (structure, encoding, signature, JSON) yields the same
//     false result so callers cannot build an oracle from error shapes.
//   - Functions are pure and safe for concurrent use.
//
// # What this package must NOT do
//
//   - Interpret payload fields such as expiry. Callers own their claims.
//   - Import clubAuth or any sibling package.
package token
