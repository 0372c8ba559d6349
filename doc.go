// Package clubAuth is the authentication and abuse-control core of the club
// storefront: signed session cookies, emailed six-digit two-factor codes,
// per-IP login throttling, and Google/Facebook OAuth sign-in.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// clubAuth is the public surface. It exposes [Engine], [Builder], [Config],
// cookie helpers and value types. Challenge storage, rate limiting, the
// Redis/in-memory store adapter and audit dispatch live under internal/ and
// are never exported.
//
// # Flows
//
//	credentials → challenge (code emailed) → VerifyTwoFactor → session cookie
//	OAuth start → provider → CompleteOAuth → member session cookie
//	ContinueAnonymously → anonymous session cookie
//
// Every credential-bearing step consults the login limiter first. A blocked
// key yields [ErrRateLimited] wrapped in a [*RateLimitError] carrying the
// Retry-After seconds.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Log codes, passwords, tokens, or unmasked emails.
//   - Render HTML or own HTTP routing; see internal/httpapi and middleware.
package clubAuth
