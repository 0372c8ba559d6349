package middleware

import (
	"context"
	"net/http"

	clubAuth "github.com/MrEthical07/clubAuth"
)

type modeContextKey struct{}

// ModeFromContext returns the mode stored by SessionMode, or ModeGuest.
func ModeFromContext(ctx context.Context) clubAuth.Mode {
	mode, ok := ctx.Value(modeContextKey{}).(clubAuth.Mode)
	if !ok {
		return clubAuth.ModeGuest
	}
	return mode
}

// WithMode stores mode in ctx.
func WithMode(ctx context.Context, mode clubAuth.Mode) context.Context {
	return context.WithValue(ctx, modeContextKey{}, mode)
}

// SessionMode resolves the session cookie once per request.
func SessionMode(engine *clubAuth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mode := engine.ResolveRequest(r)
			next.ServeHTTP(w, r.WithContext(WithMode(r.Context(), mode)))
		})
	}
}

// RequireMode responds 401 unless the request's mode is one of allowed. It
// resolves the cookie itself when SessionMode did not run first.
func RequireMode(engine *clubAuth.Engine, allowed ...clubAuth.Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mode, ok := r.Context().Value(modeContextKey{}).(clubAuth.Mode)
			if !ok {
				mode = engine.ResolveRequest(r)
				r = r.WithContext(WithMode(r.Context(), mode))
			}

			for _, m := range allowed {
				if m == mode {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}
