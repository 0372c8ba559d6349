package clubAuth

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/clubAuth/internal/audit"
	"github.com/MrEthical07/clubAuth/oauth"
	"github.com/MrEthical07/clubAuth/session"
)

// Mode is the authentication mode carried by the session cookie.
type Mode = session.Mode

const (
	ModeGuest     = session.ModeGuest
	ModeAnonymous = session.ModeAnonymous
	ModeMember    = session.ModeMember
	ModeAdmin     = session.ModeAdmin
)

// Provider names an OAuth identity provider.
type Provider = oauth.Provider

const (
	ProviderGoogle   = oauth.Google
	ProviderFacebook = oauth.Facebook
)

// CredentialVerifier checks an email/password pair. Unknown accounts and wrong
// passwords both return false with a nil error; the error is reserved for
// backend failures.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (bool, error)
}

// CredentialVerifierFunc adapts a function to CredentialVerifier.
type CredentialVerifierFunc func(ctx context.Context, email, password string) (bool, error)

func (f CredentialVerifierFunc) VerifyCredentials(ctx context.Context, email, password string) (bool, error) {
	return f(ctx, email, password)
}

// AccountRegistrar persists a member account once its email is verified.
// passwordHash is an argon2id PHC string.
type AccountRegistrar interface {
	RegisterAccount(ctx context.Context, email, passwordHash string) error
}

// CodePurpose tells the sender which message to compose.
type CodePurpose string

const (
	PurposeLogin      CodePurpose = "login"
	PurposeAdminLogin CodePurpose = "admin-login"
	PurposeRegister   CodePurpose = "register"
)

// CodeDelivery is one outbound two-factor code.
type CodeDelivery struct {
	Email   string
	Code    string
	Purpose CodePurpose
}

// DeliveryResult reports whether the code left the process. Reason is a
// machine-readable cause when Sent is false.
type DeliveryResult struct {
	Sent   bool
	Reason string
}

// CodeSender emails two-factor codes. Implementations must not block past
// ctx and must not log the code.
type CodeSender interface {
	SendCode(ctx context.Context, delivery CodeDelivery) DeliveryResult
}

// OAuthClient is the provider-facing half of social sign-in. *oauth.Client
// satisfies it.
type OAuthClient interface {
	Configured(provider oauth.Provider) bool
	AuthorizeURL(provider oauth.Provider, redirectURL, state string) (string, error)
	Exchange(ctx context.Context, provider oauth.Provider, redirectURL, code string) (*oauth.Profile, error)
}

// LoginInput is a credential submission for member or admin login.
type LoginInput struct {
	Email    string
	Password string
}

// RegistrationInput is a member sign-up submission.
type RegistrationInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// ChallengeResult is returned once a two-factor challenge is pending.
// DebugCode is set only when delivery failed and debug codes are allowed.
type ChallengeResult struct {
	ChallengeID string
	TargetMode  Mode
	MaskedEmail string
	ExpiresAt   time.Time
	Delivered   bool
	DebugCode   string
}

// VerifyResult is returned by a successful VerifyTwoFactor.
type VerifyResult struct {
	Mode      Mode
	Token     string
	ExpiresAt time.Time
	Email     string
	// Registered is true when the challenge completed a sign-up.
	Registered bool
}

// SessionToken is a freshly issued session cookie value.
type SessionToken struct {
	Mode      Mode
	Token     string
	ExpiresAt time.Time
}

// OAuthStart carries the provider redirect and the state cookie value.
type OAuthStart struct {
	AuthorizeURL string
	StateCookie  string
	ExpiresAt    time.Time
}

// OAuthCallback is the provider redirect as received by the server.
type OAuthCallback struct {
	Provider      string
	State         string
	Code          string
	ProviderError string
	StateCookie   string
	RedirectURL   string
}

// OAuthResult is the outcome of a completed social sign-in.
type OAuthResult struct {
	Session  SessionToken
	ReturnTo string
	Profile  oauth.Profile
}

// OAuthErrorCode is the machine-readable reason appended to the login page
// redirect after a failed social sign-in.
type OAuthErrorCode string

const (
	OAuthErrUnsupportedProvider OAuthErrorCode = "unsupported_provider"
	OAuthErrNotConfigured       OAuthErrorCode = "provider_not_configured"
	OAuthErrDenied              OAuthErrorCode = "oauth_denied"
	OAuthErrMissingCode         OAuthErrorCode = "missing_oauth_code"
	OAuthErrMissingState        OAuthErrorCode = "missing_oauth_state"
	OAuthErrStateExpired        OAuthErrorCode = "expired_oauth_state"
	OAuthErrStateInvalid        OAuthErrorCode = "invalid_oauth_state"
	OAuthErrExchangeFailed      OAuthErrorCode = "oauth_exchange_failed"
)

// AuditEvent is one audit record.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events on a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// LogSink writes audit events to a slog.Logger.
type LogSink = internalaudit.LogSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
