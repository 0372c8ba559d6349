package clubAuth

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// UnknownIP keys requests whose client address cannot be determined.
const UnknownIP = "unknown-ip"

// Rate-limit key purposes. Each gets its own failure budget.
const (
	purposeLogin     = "login"
	purposeAdmin     = "admin"
	purposeTwoFactor = "2fa"
)

type clientIPContextKey struct{}
type requestOriginContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for rate-limit keys and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRequestOrigin attaches the public origin of the current request, used
// to build OAuth callback URLs when OAuth.BaseURL is empty.
func WithRequestOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, requestOriginContextKey{}, origin)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return UnknownIP
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	if ip == "" {
		return UnknownIP
	}
	return ip
}

func requestOriginFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	origin, _ := ctx.Value(requestOriginContextKey{}).(string)
	return origin
}

// ClientIP derives the client address: the first X-Forwarded-For entry, then
// X-Real-IP when trustForwarded is set, then the connection address. A blank
// first forwarded entry yields UnknownIP.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if r == nil {
		return UnknownIP
	}
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			// A proxy chain with a blank client entry does not fall
			// through to weaker sources.
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
			return UnknownIP
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		return UnknownIP
	}
	return host
}

// RequestOrigin resolves the origin the browser should be talking to:
// Security.TrustedOrigin, then X-Forwarded-Proto/Host when trusted, then the
// Host header with the connection's scheme.
func RequestOrigin(r *http.Request, cfg SecurityConfig) string {
	if cfg.TrustedOrigin != "" {
		return NormalizeOrigin(cfg.TrustedOrigin)
	}
	if r == nil {
		return ""
	}
	if cfg.TrustForwardedHeaders {
		proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto"))
		host := firstHeaderValue(r.Header.Get("X-Forwarded-Host"))
		if proto != "" && host != "" {
			return NormalizeOrigin(proto + "://" + host)
		}
	}
	if r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return NormalizeOrigin(scheme + "://" + r.Host)
}

func firstHeaderValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

// RateLimitKey joins the client IP and purpose segments: "login:<ip>",
// "login:<ip>:admin", "login:<ip>:2fa:<email>".
func RateLimitKey(ip string, purposes ...string) string {
	if ip == "" {
		ip = UnknownIP
	}
	var b strings.Builder
	b.WriteString(purposeLogin)
	b.WriteByte(':')
	b.WriteString(ip)
	for _, p := range purposes {
		if p == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}
