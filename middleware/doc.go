// Package middleware adapts clubAuth.Engine to net/http.
//
// # Session guards
//
//   - [SessionMode] resolves the session cookie and stores the mode in the
//     request context.
//   - [RequireMode] rejects requests whose mode is not listed.
//   - [RequireAdmin] and [RequireSession] are the two common cases.
//
// # Request hardening
//
//   - [TrustedOrigin] blocks cross-site state-changing requests by comparing
//     Origin, then Referer, with the expected origin.
//   - [SecurityHeaders] sets the browser hardening headers.
//   - [RedirectHTTPS] sends plain-HTTP production traffic to HTTPS.
//
// This package translates HTTP semantics into Engine calls. Token
// verification and key material stay inside the Engine.
package middleware
