package clubAuth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/clubAuth/oauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testMemberEmail    = "member@example.com"
	testMemberPassword = "member-pass"
	testAdminEmail     = "admin@example.com"
	testAdminPassword  = "admin-pass"
	testSecret         = "0123456789abcdef0123456789abcdef"
	testIP             = "203.0.113.7"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type staticVerifier struct {
	email    string
	password string
	mu       sync.Mutex
	calls    int
}

func (v *staticVerifier) VerifyCredentials(_ context.Context, email, password string) (bool, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	return email == v.email && password == v.password, nil
}

func (v *staticVerifier) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

type captureSender struct {
	mu   sync.Mutex
	fail bool
	sent []CodeDelivery
}

func (s *captureSender) SendCode(_ context.Context, d CodeDelivery) DeliveryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return DeliveryResult{Reason: "provider_error"}
	}
	s.sent = append(s.sent, d)
	return DeliveryResult{Sent: true}
}

func (s *captureSender) Last(t *testing.T) CodeDelivery {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("no code was sent")
	}
	return s.sent[len(s.sent)-1]
}

type recordingRegistrar struct {
	mu       sync.Mutex
	accounts map[string]string
	err      error
}

func (r *recordingRegistrar) RegisterAccount(_ context.Context, email, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.accounts == nil {
		r.accounts = map[string]string{}
	}
	r.accounts[email] = hash
	return nil
}

type fakeOAuth struct {
	configured map[oauth.Provider]bool
	profile    *oauth.Profile
	err        error
	lastCode   string
	lastURL    string
}

func (f *fakeOAuth) Configured(p oauth.Provider) bool { return f.configured[p] }

func (f *fakeOAuth) AuthorizeURL(p oauth.Provider, redirectURL, state string) (string, error) {
	f.lastURL = redirectURL
	return "https://provider.example/" + string(p) + "?state=" + state, nil
}

func (f *fakeOAuth) Exchange(_ context.Context, p oauth.Provider, redirectURL, code string) (*oauth.Profile, error) {
	f.lastCode = code
	f.lastURL = redirectURL
	if f.err != nil {
		return nil, f.err
	}
	profile := *f.profile
	profile.Provider = p
	return &profile, nil
}

type testEngine struct {
	*Engine
	clock     *testClock
	members   *staticVerifier
	admins    *staticVerifier
	sender    *captureSender
	registrar *recordingRegistrar
	oauth     *fakeOAuth
}

type engineOption func(*Builder, *Config)

func withRedisClient(client redis.UniversalClient) engineOption {
	return func(b *Builder, _ *Config) { b.WithRedis(client) }
}

func withConfig(mutate func(*Config)) engineOption {
	return func(_ *Builder, cfg *Config) { mutate(cfg) }
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func newTestEngine(t *testing.T, opts ...engineOption) *testEngine {
	t.Helper()
	return newTestEngineWithClock(t, newTestClock(), opts...)
}

func newTestEngineWithClock(t *testing.T, clock *testClock, opts ...engineOption) *testEngine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Session.Secret = testSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Audit.Enabled = false

	te := &testEngine{
		clock:     clock,
		members:   &staticVerifier{email: testMemberEmail, password: testMemberPassword},
		admins:    &staticVerifier{email: testAdminEmail, password: testAdminPassword},
		sender:    &captureSender{},
		registrar: &recordingRegistrar{},
		oauth: &fakeOAuth{
			configured: map[oauth.Provider]bool{oauth.Google: true},
			profile:    &oauth.Profile{ProviderUserID: "g-1", Email: "social@example.com", DisplayName: "Social"},
		},
	}

	b := New()
	for _, opt := range opts {
		opt(b, &cfg)
	}
	b.WithConfig(cfg).
		WithClock(clock.Now).
		WithCredentialVerifier(te.members).
		WithAdminVerifier(te.admins).
		WithCodeSender(te.sender).
		WithAccountRegistrar(te.registrar).
		WithOAuthClient(te.oauth)

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	engine.sleep = func(time.Duration) {}
	t.Cleanup(engine.Close)

	te.Engine = engine
	return te
}

func ipContext(ip string) context.Context {
	return WithClientIP(context.Background(), ip)
}
