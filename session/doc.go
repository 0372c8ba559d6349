// Package session issues and resolves stateless session tokens that carry an
// authentication mode (guest, anonymous, member, admin).
//
// # Token format
//
// A session token is a [token.Sign] envelope around [Payload]. There is no
// server-side session table and no revocation list: logout clears the cookie
// and a leaked token stays valid until its expiry.
//
// # Secret policy
//
// A configured secret is always used. Without one, non-production managers
// fall back to [DevelopmentSecret]; production managers refuse to issue
// (returning [ErrSecretNotConfigured]) while still resolving every token to
// [ModeGuest].
//
// # What this package must NOT do
//
//   - Import clubAuth (no upward imports).
//   - Return errors from [Manager.Resolve]; every failure degrades to guest.
//   - Persist anything.
package session
