package clubAuth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned for any unknown account or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidCode is returned when a two-factor code does not match or the
	// challenge is missing.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrChallengeExpired is returned when a challenge outlived its TTL.
	ErrChallengeExpired = errors.New("verification code expired")
	// ErrChallengeMissing is returned when no challenge cookie was presented.
	ErrChallengeMissing = errors.New("no pending verification")
	// ErrRateLimited is wrapped by every *RateLimitError.
	ErrRateLimited = errors.New("too many attempts")
	// ErrSecretNotConfigured is returned when a session must be issued in
	// production without a signing secret.
	ErrSecretNotConfigured = errors.New("session secret not configured")
	// ErrStoreUnavailable wraps backend failures of the challenge or limiter store.
	ErrStoreUnavailable = errors.New("auth store unavailable")
	// ErrCodeDeliveryFailed is returned when a code could not be emailed and
	// debug codes are not allowed.
	ErrCodeDeliveryFailed = errors.New("verification code delivery failed")
	// ErrVerifierNotConfigured is returned when a flow has no credential verifier.
	ErrVerifierNotConfigured = errors.New("credential verifier not configured")
	// ErrRegistrationFailed is returned when the account registrar rejects a
	// verified registration.
	ErrRegistrationFailed = errors.New("account registration failed")
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	ErrOAuthUnsupportedProvider = errors.New("oauth provider not supported")
	ErrOAuthNotConfigured       = errors.New("oauth provider not configured")
	ErrOAuthDenied              = errors.New("oauth authorization denied")
	ErrOAuthMissingCode         = errors.New("oauth callback missing code or state")
	ErrOAuthMissingState        = errors.New("oauth state cookie missing")
	ErrOAuthStateExpired        = errors.New("oauth state expired")
	ErrOAuthStateInvalid        = errors.New("oauth state invalid")
	ErrOAuthExchangeFailed      = errors.New("oauth exchange failed")
)

// RateLimitError reports a blocked key and how long the caller must wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %ds", ErrRateLimited, e.RetryAfterSeconds())
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RetryAfterSeconds is the Retry-After header value, at least 1.
func (e *RateLimitError) RetryAfterSeconds() int {
	s := int((e.RetryAfter + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func storeError(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
