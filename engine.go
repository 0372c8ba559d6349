package clubAuth

import (
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/clubAuth/internal/audit"
	"github.com/MrEthical07/clubAuth/internal/limiters"
	internalmetrics "github.com/MrEthical07/clubAuth/internal/metrics"
	"github.com/MrEthical07/clubAuth/internal/stores"
	"github.com/MrEthical07/clubAuth/password"
	"github.com/MrEthical07/clubAuth/session"
)

// Engine runs the authentication flows. It is immutable after Build and
// safe for concurrent use.
type Engine struct {
	config     Config
	logger     *slog.Logger
	sessions   *session.Manager
	challenges *stores.ChallengeStore
	limiter    *limiters.LoginLimiter
	hasher     *password.Argon2

	verifier      CredentialVerifier
	adminVerifier CredentialVerifier
	registrar     AccountRegistrar
	sender        CodeSender
	oauth         OAuthClient

	audit   *internalaudit.Dispatcher
	metrics *internalmetrics.Metrics

	now   func() time.Time
	sleep func(time.Duration)
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// ProductionMode reports whether production hardening is active.
func (e *Engine) ProductionMode() bool {
	return e.config.Security.ProductionMode
}

// SessionMaxAge is the lifetime of issued session tokens.
func (e *Engine) SessionMaxAge() time.Duration {
	return e.sessions.MaxAge()
}
