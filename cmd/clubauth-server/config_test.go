package main

import (
	"context"
	"errors"
	"testing"
	"time"

	clubAuth "github.com/MrEthical07/clubAuth"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Env != "development" || cfg.DBDriver != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected 10s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if !cfg.TrustForwarded {
		t.Fatal("forwarded headers should be trusted by default")
	}
	if cfg.production() {
		t.Fatal("default env must not be production")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLUB_ENV", "Production")
	t.Setenv("CLUB_SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CLUB_TRUSTED_ORIGIN", "https://club.example")
	t.Setenv("CLUB_ALLOW_DEBUG_2FA", "true")
	t.Setenv("CLUB_GOOGLE_CLIENT_ID", "gid")
	t.Setenv("CLUB_GOOGLE_CLIENT_SECRET", "gsecret")
	t.Setenv("CLUB_REDIS_ADDR", "redis:6379")
	t.Setenv("CLUB_ADDR", ":9000")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.RedisAddr != "redis:6379" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if !cfg.production() {
		t.Fatal("expected production env")
	}

	engineCfg := cfg.engineConfig()
	if !engineCfg.Security.ProductionMode || !engineCfg.Cookie.Secure {
		t.Fatal("production env should select the production preset")
	}
	if engineCfg.TwoFactor.AllowDebugCode {
		t.Fatal("debug codes must stay off in production")
	}
	if !engineCfg.OAuth.Google.Configured() || engineCfg.OAuth.Facebook.Configured() {
		t.Fatal("unexpected provider configuration")
	}
	if err := engineCfg.Validate(); err != nil {
		t.Fatalf("production engine config invalid: %v", err)
	}
}

func TestFirstMatch(t *testing.T) {
	backendDown := errors.New("db down")
	deny := clubAuth.CredentialVerifierFunc(func(context.Context, string, string) (bool, error) { return false, nil })
	fail := clubAuth.CredentialVerifierFunc(func(context.Context, string, string) (bool, error) { return false, backendDown })
	allow := clubAuth.CredentialVerifierFunc(func(context.Context, string, string) (bool, error) { return true, nil })

	cases := []struct {
		name      string
		verifiers []clubAuth.CredentialVerifier
		ok        bool
		err       error
	}{
		{"deny only", []clubAuth.CredentialVerifier{deny}, false, nil},
		{"later allow wins", []clubAuth.CredentialVerifier{deny, allow}, true, nil},
		{"allow hides backend error", []clubAuth.CredentialVerifier{fail, allow}, true, nil},
		{"error surfaces without match", []clubAuth.CredentialVerifier{deny, fail}, false, backendDown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := firstMatch(tc.verifiers...).VerifyCredentials(context.Background(), "a@example.com", "pw")
			if ok != tc.ok || !errors.Is(err, tc.err) {
				t.Fatalf("got (%v, %v), want (%v, %v)", ok, err, tc.ok, tc.err)
			}
		})
	}
}
