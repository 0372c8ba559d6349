package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	clubAuth "github.com/MrEthical07/clubAuth"
)

func newEngine(t *testing.T) *clubAuth.Engine {
	t.Helper()
	cfg := clubAuth.DefaultConfig()
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Audit.Enabled = false
	engine, err := clubAuth.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func anonymousCookie(t *testing.T, engine *clubAuth.Engine) *http.Cookie {
	t.Helper()
	tok, err := engine.ContinueAnonymously(context.Background())
	if err != nil {
		t.Fatalf("ContinueAnonymously: %v", err)
	}
	rr := httptest.NewRecorder()
	engine.SetSessionCookie(rr, tok)
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func modeEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ModeFromContext(r.Context())))
	})
}

func TestSessionModeStoresMode(t *testing.T) {
	engine := newEngine(t)
	h := SessionMode(engine)(modeEcho())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Body.String() != string(clubAuth.ModeGuest) {
		t.Fatalf("expected guest, got %q", rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(anonymousCookie(t, engine))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Body.String() != string(clubAuth.ModeAnonymous) {
		t.Fatalf("expected anonymous, got %q", rr.Body.String())
	}
}

func TestRequireMode(t *testing.T) {
	engine := newEngine(t)
	cookie := anonymousCookie(t, engine)

	cases := []struct {
		name   string
		guard  func(http.Handler) http.Handler
		cookie bool
		status int
	}{
		{"session with cookie", RequireSession(engine), true, http.StatusOK},
		{"session without cookie", RequireSession(engine), false, http.StatusUnauthorized},
		{"admin with anonymous", RequireAdmin(engine), true, http.StatusUnauthorized},
		{"guest allowed explicitly", RequireMode(engine, clubAuth.ModeGuest), false, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/club", nil)
			if tc.cookie {
				req.AddCookie(cookie)
			}
			rr := httptest.NewRecorder()
			tc.guard(modeEcho()).ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
		})
	}
}

func TestRequireModeUsesContextMode(t *testing.T) {
	engine := newEngine(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithMode(req.Context(), clubAuth.ModeAdmin))

	rr := httptest.NewRecorder()
	RequireAdmin(engine)(modeEcho()).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected context mode to be honored, got %d", rr.Code)
	}
}

func TestTrustedOrigin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	dev := clubAuth.SecurityConfig{TrustedOrigin: "https://club.example"}
	prod := clubAuth.SecurityConfig{TrustedOrigin: "https://club.example", ProductionMode: true}

	cases := []struct {
		name    string
		cfg     clubAuth.SecurityConfig
		method  string
		headers map[string]string
		noHost  bool
		status  int
	}{
		{"safe method", prod, http.MethodGet, map[string]string{"Origin": "https://evil.example"}, false, http.StatusNoContent},
		{"matching origin", prod, http.MethodPost, map[string]string{"Origin": "https://CLUB.example"}, false, http.StatusNoContent},
		{"foreign origin", prod, http.MethodPost, map[string]string{"Origin": "https://evil.example"}, false, http.StatusForbidden},
		{"origin wins over referer", prod, http.MethodPost, map[string]string{"Origin": "https://evil.example", "Referer": "https://club.example/login"}, false, http.StatusForbidden},
		{"matching referer", prod, http.MethodPost, map[string]string{"Referer": "https://club.example/login"}, false, http.StatusNoContent},
		{"no headers in production", prod, http.MethodPost, nil, false, http.StatusForbidden},
		{"no headers in development", dev, http.MethodPost, nil, false, http.StatusNoContent},
		{"no expected origin in production", clubAuth.SecurityConfig{ProductionMode: true}, http.MethodPost, map[string]string{"Origin": "https://club.example"}, true, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/auth/login", nil)
			if tc.noHost {
				req.Host = ""
			}
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			TrustedOrigin(tc.cfg)(ok).ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
		})
	}
}

func TestTrustedOriginFromHost(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	cfg := clubAuth.SecurityConfig{ProductionMode: true, TrustForwardedHeaders: true}

	req := httptest.NewRequest(http.MethodPost, "http://internal/api/auth/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "club.example")
	req.Header.Set("Origin", "https://club.example")

	rr := httptest.NewRecorder()
	TrustedOrigin(cfg)(ok).ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected forwarded origin to match, got %d", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(true)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, name := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Strict-Transport-Security"} {
		if rr.Header().Get(name) == "" {
			t.Fatalf("expected %s header", name)
		}
	}

	rr = httptest.NewRecorder()
	SecurityHeaders(false)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must be production only")
	}
}

func TestRedirectHTTPS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "http://club.example/club?x=1", nil)
	rr := httptest.NewRecorder()
	RedirectHTTPS(true, true)(ok).ServeHTTP(rr, req)
	if rr.Code != http.StatusPermanentRedirect || rr.Header().Get("Location") != "https://club.example/club?x=1" {
		t.Fatalf("expected redirect, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "http://club.example/club", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	RedirectHTTPS(true, true)(ok).ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("forwarded https must pass, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "http://localhost:3000/club", nil)
	rr = httptest.NewRecorder()
	RedirectHTTPS(true, true)(ok).ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("loopback must pass, got %d", rr.Code)
	}
}
