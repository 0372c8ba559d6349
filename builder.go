package clubAuth

import (
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/clubAuth/internal/audit"
	"github.com/MrEthical07/clubAuth/internal/kv"
	"github.com/MrEthical07/clubAuth/internal/limiters"
	internalmetrics "github.com/MrEthical07/clubAuth/internal/metrics"
	"github.com/MrEthical07/clubAuth/internal/stores"
	"github.com/MrEthical07/clubAuth/oauth"
	"github.com/MrEthical07/clubAuth/password"
	"github.com/MrEthical07/clubAuth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	logger *slog.Logger

	verifier      CredentialVerifier
	adminVerifier CredentialVerifier
	registrar     AccountRegistrar
	sender        CodeSender
	oauthClient   OAuthClient
	auditSink     AuditSink
	now           func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis shares challenges and limiter state through client. Without it
// the engine keeps them in process memory.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithCredentialVerifier sets the member login verifier.
func (b *Builder) WithCredentialVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAdminVerifier sets the admin login verifier.
func (b *Builder) WithAdminVerifier(v CredentialVerifier) *Builder {
	b.adminVerifier = v
	return b
}

// WithAccountRegistrar persists verified registrations. Without it a
// verified registration only yields a member session.
func (b *Builder) WithAccountRegistrar(r AccountRegistrar) *Builder {
	b.registrar = r
	return b
}

func (b *Builder) WithCodeSender(s CodeSender) *Builder {
	b.sender = s
	return b
}

// WithOAuthClient replaces the provider client built from Config.OAuth.
func (b *Builder) WithOAuthClient(c OAuthClient) *Builder {
	b.oauthClient = c
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces the time source of every component. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	challengeBackend := kv.Select(b.redis, kv.Options{
		MemoryCapacity: cfg.Store.MemoryCapacity,
		Logger:         logger,
		Component:      "two-factor",
		Production:     cfg.Security.ProductionMode,
	})
	limiterBackend := kv.Select(b.redis, kv.Options{
		MemoryCapacity: cfg.Store.MemoryCapacity,
		Logger:         logger,
		Component:      "login-limiter",
		Production:     cfg.Security.ProductionMode,
	})

	challenges := stores.NewChallengeStore(challengeBackend, cfg.TwoFactor.KeyPrefix)
	challenges.SetClock(now)
	limiter := limiters.NewLoginLimiter(limiterBackend, cfg.RateLimit.KeyPrefix, cfg.loginPolicy())
	limiter.SetClock(now)

	sessions := session.NewManager(session.Config{
		Secret:         cfg.Session.Secret,
		ProductionMode: cfg.Security.ProductionMode,
		MaxAge:         cfg.Session.MaxAge,
		Now:            now,
	})

	oauthClient := b.oauthClient
	if oauthClient == nil {
		oauthClient = oauth.NewClient(oauth.ClientConfig{
			Google:   cfg.OAuth.Google,
			Facebook: cfg.OAuth.Facebook,
		})
	}

	sink := b.auditSink
	if sink == nil {
		sink = internalaudit.NewLogSink(logger)
	}

	engine := &Engine{
		config:        cfg,
		logger:        logger,
		sessions:      sessions,
		challenges:    challenges,
		limiter:       limiter,
		hasher:        hasher,
		verifier:      b.verifier,
		adminVerifier: b.adminVerifier,
		registrar:     b.registrar,
		sender:        b.sender,
		oauth:         oauthClient,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink),
		metrics: internalmetrics.New(internalmetrics.Config{
			Enabled:                 cfg.Metrics.Enabled,
			EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
		}),
		now:   now,
		sleep: limiters.Wait,
	}

	for _, w := range cfg.Lint().BySeverity(LintWarn) {
		logger.Warn("auth config", "code", w.Code, "severity", w.Severity.String(), "detail", w.Message)
	}
	logger.Info("auth engine ready",
		"store", challengeBackend.Name(),
		"production", cfg.Security.ProductionMode,
		"sessions", sessions.CanIssue(),
	)

	b.built = true
	return engine, nil
}
