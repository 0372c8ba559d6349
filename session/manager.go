package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/clubAuth/token"
)

const (
	// DefaultMaxAge matches the session cookie lifetime.
	DefaultMaxAge = 7 * 24 * time.Hour

	// DevelopmentSecret signs tokens when no secret is configured outside
	// production. It is public and must never protect real traffic.
	DevelopmentSecret = "club-development-session-secret-do-not-use"
)

var (
	// ErrSecretNotConfigured is returned by Issue in production without a secret.
	ErrSecretNotConfigured = errors.New("session: signing secret not configured")
	// ErrModeNotIssuable is returned by Issue for guest or unknown modes.
	ErrModeNotIssuable = errors.New("session: mode cannot be issued")
)

// Config configures a Manager.
type Config struct {
	Secret         string
	ProductionMode bool
	MaxAge         time.Duration
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Manager issues and resolves session tokens. It is immutable after
// construction and safe for concurrent use.
type Manager struct {
	secret         []byte
	maxAge         time.Duration
	now            func() time.Time
	developmentKey bool
}

// NewManager applies the secret policy. It never fails: a production manager
// without a secret is returned and reports the problem on Issue.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		maxAge: cfg.MaxAge,
		now:    cfg.Now,
	}
	if m.maxAge <= 0 {
		m.maxAge = DefaultMaxAge
	}
	if m.now == nil {
		m.now = time.Now
	}

	switch {
	case cfg.Secret != "":
		m.secret = []byte(cfg.Secret)
	case !cfg.ProductionMode:
		m.secret = []byte(DevelopmentSecret)
		m.developmentKey = true
	}
	return m
}

// MaxAge is the lifetime of issued tokens.
func (m *Manager) MaxAge() time.Duration { return m.maxAge }

// UsesDevelopmentSecret reports whether the fixed development key is active.
func (m *Manager) UsesDevelopmentSecret() bool { return m.developmentKey }

// CanIssue reports whether a signing secret is available.
func (m *Manager) CanIssue() bool { return len(m.secret) > 0 }

// Issue returns a token for mode.
func (m *Manager) Issue(mode Mode) (string, error) {
	tok, _, err := m.IssueWithExpiry(mode)
	return tok, err
}

// IssueWithExpiry returns a token for mode together with its expiry.
func (m *Manager) IssueWithExpiry(mode Mode) (string, time.Time, error) {
	if !mode.Issuable() {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrModeNotIssuable, mode)
	}
	if len(m.secret) == 0 {
		return "", time.Time{}, ErrSecretNotConfigured
	}

	now := m.now()
	expires := now.Add(m.maxAge)
	tok, err := token.Sign(Payload{
		Version:   PayloadVersion,
		Mode:      mode,
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: expires.UnixMilli(),
	}, m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, expires, nil
}

// Resolve returns the mode carried by tok, or ModeGuest when tok is empty,
// tampered, expired, of another version, or names a mode that cannot be issued.
func (m *Manager) Resolve(tok string) Mode {
	if tok == "" || len(m.secret) == 0 {
		return ModeGuest
	}

	var p Payload
	if !token.Verify(tok, m.secret, &p) {
		return ModeGuest
	}
	if p.Version != PayloadVersion || !p.Mode.Issuable() {
		return ModeGuest
	}
	if p.ExpiresAt <= m.now().UnixMilli() {
		return ModeGuest
	}
	return p.Mode
}
