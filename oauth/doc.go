// Package oauth implements the social login redirect flow: the anti-CSRF
// state nonce carried in a short-lived cookie, and the provider client that
// builds authorize URLs and turns an authorization code into a profile.
//
// # State
//
// [GenerateState] returns a random nonce. The nonce, the provider, a
// sanitized return path and the creation time are encoded into the state
// cookie with [Encode]. At callback time [Decode] and [Validate] require a
// matching provider, an exactly matching nonce and an age of at most
// [StateMaxAge]. Callers delete the cookie after one comparison, matched
// or not.
//
// # Providers
//
// [Client] wraps golang.org/x/oauth2 for Google and Facebook. Google
// profiles come from the OpenID userinfo endpoint through go-oidc; Facebook
// profiles from the Graph API. Any transport failure, missing access token,
// missing subject or missing email fails the exchange with
// [ErrExchangeFailed].
//
// # What this package must NOT do
//
//   - Issue sessions. The Engine decides what a verified profile grants.
//   - Accept absolute or protocol-relative return URLs.
package oauth
