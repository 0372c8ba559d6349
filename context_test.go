package clubAuth

import (
	"context"
	"crypto/tls"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		trust   bool
		want    string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 198.51.100.4 , 10.0.0.1"}, "10.0.0.2:1234", true, "198.51.100.4"},
		{"blank forwarded entry", map[string]string{"X-Forwarded-For": " , 1.2.3.4", "X-Real-IP": "198.51.100.5"}, "10.0.0.2:1234", true, UnknownIP},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.5"}, "10.0.0.2:1234", true, "198.51.100.5"},
		{"forwarded ignored", map[string]string{"X-Forwarded-For": "198.51.100.4"}, "10.0.0.2:1234", false, "10.0.0.2"},
		{"remote addr", nil, "192.0.2.10:5555", true, "192.0.2.10"},
		{"ipv6 remote", nil, "[2001:db8::1]:443", true, "2001:db8::1"},
		{"no address", nil, "", true, UnknownIP},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tc.trust); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
	if got := ClientIP(nil, true); got != UnknownIP {
		t.Fatalf("nil request: expected %q, got %q", UnknownIP, got)
	}
}

func TestRequestOrigin(t *testing.T) {
	r := httptest.NewRequest("GET", "http://internal:8080/api", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "Club.Example")

	if got := RequestOrigin(r, SecurityConfig{TrustedOrigin: "https://club.example/"}); got != "https://club.example" {
		t.Fatalf("trusted origin: got %q", got)
	}
	if got := RequestOrigin(r, SecurityConfig{TrustForwardedHeaders: true}); got != "https://club.example" {
		t.Fatalf("forwarded origin: got %q", got)
	}
	if got := RequestOrigin(r, SecurityConfig{}); got != "http://internal:8080" {
		t.Fatalf("host origin: got %q", got)
	}

	r.TLS = &tls.ConnectionState{}
	if got := RequestOrigin(r, SecurityConfig{}); got != "https://internal:8080" {
		t.Fatalf("tls origin: got %q", got)
	}
}

func TestRateLimitKey(t *testing.T) {
	cases := map[string]string{
		RateLimitKey("203.0.113.7"):                                  "login:203.0.113.7",
		RateLimitKey("203.0.113.7", purposeAdmin):                    "login:203.0.113.7:admin",
		RateLimitKey("203.0.113.7", purposeTwoFactor, "a@b.example"): "login:203.0.113.7:2fa:a@b.example",
		RateLimitKey("203.0.113.7", purposeTwoFactor, ""):            "login:203.0.113.7:2fa",
		RateLimitKey(""): "login:" + UnknownIP,
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestClientIPContext(t *testing.T) {
	if got := clientIPFromContext(context.Background()); got != UnknownIP {
		t.Fatalf("expected %q, got %q", UnknownIP, got)
	}
	ctx := WithClientIP(context.Background(), "192.0.2.1")
	if got := clientIPFromContext(ctx); got != "192.0.2.1" {
		t.Fatalf("expected stored ip, got %q", got)
	}
	ctx = WithRequestOrigin(ctx, "https://club.example")
	if got := requestOriginFromContext(ctx); got != "https://club.example" {
		t.Fatalf("expected stored origin, got %q", got)
	}
}
