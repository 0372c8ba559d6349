package clubAuth

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/clubAuth/internal/limiters"
	"github.com/MrEthical07/clubAuth/oauth"
	"github.com/MrEthical07/clubAuth/password"
	"github.com/MrEthical07/clubAuth/session"
)

// MinSecretBytes is the shortest session secret accepted in production.
const MinSecretBytes = 32

// Config is the complete engine configuration. Build copies it; later
// changes to the caller's value have no effect.
type Config struct {
	Session   SessionConfig
	TwoFactor TwoFactorConfig
	RateLimit RateLimitConfig
	OAuth     OAuthConfig
	Store     StoreConfig
	Password  password.Config
	Cookie    CookieConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Security  SecurityConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	// Secret signs session tokens. Empty outside production selects the
	// public development secret; empty in production disables issuance.
	Secret string
	MaxAge time.Duration
}

/*
====================================
TWO-FACTOR CONFIG
====================================
*/

// TwoFactorConfig controls emailed verification codes.
type TwoFactorConfig struct {
	ChallengeTTL time.Duration
	// AllowDebugCode returns the code in the API response when delivery
	// failed. Rejected in production.
	AllowDebugCode bool
	KeyPrefix      string
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig is the login limiter policy.
type RateLimitConfig struct {
	Window        time.Duration
	BlockDuration time.Duration
	MaxAttempts   int
	BaseDelay     time.Duration
	StepDelay     time.Duration
	MaxDelay      time.Duration
	KeyPrefix     string
}

/*
====================================
OAUTH CONFIG
====================================
*/

// OAuthConfig holds provider credentials and redirect paths.
type OAuthConfig struct {
	Google   oauth.Credentials
	Facebook oauth.Credentials
	// BaseURL is the public origin used to build callback URLs. Empty means
	// the request origin is used.
	BaseURL string
	// CallbackPath is suffixed with "/<provider>".
	CallbackPath      string
	DefaultReturnPath string
	LoginPath         string
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig sizes the in-process store used without Redis or while Redis
// is unreachable.
type StoreConfig struct {
	MemoryCapacity int
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig names the auth cookies and their attributes.
type CookieConfig struct {
	SessionName    string
	ChallengeName  string
	OAuthStateName string
	Path           string
	Domain         string
	Secure         bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds deployment-wide switches.
type SecurityConfig struct {
	ProductionMode bool
	// TrustedOrigin is the scheme://host[:port] browsers must send in Origin
	// or Referer on state-changing requests.
	TrustedOrigin string
	// TrustForwardedHeaders lets X-Forwarded-For, X-Real-IP and
	// X-Forwarded-Proto/Host decide the client IP and request origin. Disable
	// when clients connect directly.
	TrustForwardedHeaders bool
}

// DefaultConfig returns a development configuration.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	policy := limiters.DefaultLoginPolicy()
	return Config{
		Session: SessionConfig{
			MaxAge: session.DefaultMaxAge,
		},
		TwoFactor: TwoFactorConfig{
			ChallengeTTL: 10 * time.Minute,
			KeyPrefix:    "club:2fa",
		},
		RateLimit: RateLimitConfig{
			Window:        policy.Window,
			BlockDuration: policy.BlockDuration,
			MaxAttempts:   policy.MaxAttempts,
			BaseDelay:     policy.BaseDelay,
			StepDelay:     policy.StepDelay,
			MaxDelay:      policy.MaxDelay,
			KeyPrefix:     "club:rl",
		},
		OAuth: OAuthConfig{
			CallbackPath:      "/api/auth/social-callback",
			DefaultReturnPath: "/club",
			LoginPath:         "/login",
		},
		Store: StoreConfig{
			MemoryCapacity: 10000,
		},
		Password: password.DefaultConfig(),
		Cookie: CookieConfig{
			SessionName:    "club-auth-mode",
			ChallengeName:  "club-two-factor",
			OAuthStateName: "club-social-oauth-state",
			Path:           "/",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Security: SecurityConfig{
			TrustForwardedHeaders: true,
		},
	}
}

// ProductionConfig returns defaults hardened for deployment. The caller
// still supplies Session.Secret and Security.TrustedOrigin.
func ProductionConfig() Config {
	cfg := defaultConfig()
	cfg.Security.ProductionMode = true
	cfg.Cookie.Secure = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	return cfg
}

func (c *Config) loginPolicy() limiters.LoginPolicy {
	return limiters.LoginPolicy{
		Window:        c.RateLimit.Window,
		BlockDuration: c.RateLimit.BlockDuration,
		MaxAttempts:   c.RateLimit.MaxAttempts,
		BaseDelay:     c.RateLimit.BaseDelay,
		StepDelay:     c.RateLimit.StepDelay,
		MaxDelay:      c.RateLimit.MaxDelay,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the engine cannot run safely.
func (c *Config) Validate() error {
	// Session
	if c.Session.MaxAge <= 0 {
		return errors.New("Session MaxAge must be > 0")
	}

	// Two-factor
	if c.TwoFactor.ChallengeTTL <= 0 {
		return errors.New("TwoFactor ChallengeTTL must be > 0")
	}
	if c.TwoFactor.ChallengeTTL > time.Hour {
		return errors.New("TwoFactor ChallengeTTL must be <= 1h")
	}

	// Rate limit
	if c.RateLimit.Window <= 0 {
		return errors.New("RateLimit Window must be > 0")
	}
	if c.RateLimit.BlockDuration <= 0 {
		return errors.New("RateLimit BlockDuration must be > 0")
	}
	if c.RateLimit.MaxAttempts <= 0 {
		return errors.New("RateLimit MaxAttempts must be > 0")
	}
	if c.RateLimit.BaseDelay < 0 || c.RateLimit.StepDelay < 0 {
		return errors.New("RateLimit delays must be >= 0")
	}
	if c.RateLimit.MaxDelay < c.RateLimit.BaseDelay {
		return errors.New("RateLimit MaxDelay must be >= BaseDelay")
	}

	// OAuth
	if c.OAuth.BaseURL != "" {
		u, err := url.Parse(c.OAuth.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("OAuth BaseURL must be an absolute URL")
		}
	}
	if !strings.HasPrefix(c.OAuth.CallbackPath, "/") {
		return errors.New("OAuth CallbackPath must start with /")
	}
	if oauth.SanitizeReturnPath(c.OAuth.DefaultReturnPath) != c.OAuth.DefaultReturnPath {
		return errors.New("OAuth DefaultReturnPath must be a local path")
	}
	if oauth.SanitizeReturnPath(c.OAuth.LoginPath) != c.OAuth.LoginPath {
		return errors.New("OAuth LoginPath must be a local path")
	}

	// Store
	if c.Store.MemoryCapacity <= 0 {
		return errors.New("Store MemoryCapacity must be > 0")
	}

	// Password
	if _, err := password.NewArgon2(c.Password); err != nil {
		return err
	}

	// Cookies
	names := []string{c.Cookie.SessionName, c.Cookie.ChallengeName, c.Cookie.OAuthStateName}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return errors.New("Cookie names must be non-empty")
		}
		for _, other := range names[:i] {
			if name == other {
				return errors.New("Cookie names must be distinct")
			}
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Security
	if c.Security.TrustedOrigin != "" {
		if NormalizeOrigin(c.Security.TrustedOrigin) == "" {
			return errors.New("Security TrustedOrigin must be scheme://host")
		}
	}

	if c.Security.ProductionMode {
		if c.Session.Secret != "" && len(c.Session.Secret) < MinSecretBytes {
			return errors.New("ProductionMode requires Session Secret of at least 32 bytes")
		}
		if c.Session.Secret == session.DevelopmentSecret {
			return errors.New("ProductionMode forbids the development session secret")
		}
		if c.TwoFactor.AllowDebugCode {
			return errors.New("ProductionMode forbids TwoFactor AllowDebugCode")
		}
		if !c.Cookie.Secure {
			return errors.New("ProductionMode requires Cookie Secure")
		}
	}

	return nil
}

// NormalizeOrigin reduces an origin or URL to lower-case scheme://host[:port],
// or "" when it has no scheme or host.
func NormalizeOrigin(value string) string {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
