package clubAuth

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks configuration warnings.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a configuration that is valid but risky.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list returned by Config.Lint.
type LintResult []LintWarning

func (r LintResult) Codes() []string {
	codes := make([]string, 0, len(r))
	for _, w := range r {
		codes = append(codes, w.Code)
	}
	return codes
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds warnings at or above min into one error, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports settings that Validate accepts but an operator should review.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	prod := c.Security.ProductionMode

	if c.Session.Secret == "" {
		if prod {
			add("session_secret_missing", LintHigh, "no session secret: sessions cannot be issued and every request resolves to guest")
		} else {
			add("session_secret_development", LintWarn, "sessions are signed with the public development secret")
		}
	}
	if !prod && c.TwoFactor.AllowDebugCode {
		add("debug_code_enabled", LintWarn, "verification codes are returned in responses when email delivery fails")
	}
	if !c.Cookie.Secure {
		add("cookie_insecure", LintWarn, "auth cookies are sent over plain HTTP")
	}
	if prod && c.Security.TrustedOrigin == "" {
		add("trusted_origin_missing", LintWarn, "request origin is derived from Host headers")
	}
	if c.Security.TrustForwardedHeaders {
		add("forwarded_headers_trusted", LintInfo, "client IP and origin come from X-Forwarded-* headers")
	}
	if c.RateLimit.MaxAttempts > 10 {
		add("rate_limit_lenient", LintWarn, "more than 10 failures are allowed before blocking")
	}
	if c.RateLimit.BlockDuration < c.RateLimit.Window {
		add("block_shorter_than_window", LintWarn, "block ends before the failure window does")
	}
	if c.TwoFactor.ChallengeTTL > 15*time.Minute {
		add("challenge_ttl_long", LintWarn, "verification codes stay valid for more than 15 minutes")
	}
	if c.Password.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, "argon2 memory below 64 MiB")
	}
	if !c.OAuth.Google.Configured() && !c.OAuth.Facebook.Configured() {
		add("oauth_unconfigured", LintInfo, "social sign-in is disabled")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "security events are not audited")
	}

	return ws
}
