package middleware

import (
	"encoding/json"
	"net/http"

	clubAuth "github.com/MrEthical07/clubAuth"
)

// TrustedOrigin rejects state-changing requests that name a different
// origin. Origin wins over Referer. Requests with neither header pass only
// outside production, as do requests whose expected origin cannot be
// determined.
func TrustedOrigin(cfg clubAuth.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			expected := clubAuth.RequestOrigin(r, cfg)
			if expected == "" {
				if cfg.ProductionMode {
					forbid(w, "Request origin validation failed")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !trustedSource(r, expected, cfg.ProductionMode) {
				forbid(w, "Cross-site request blocked")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func trustedSource(r *http.Request, expected string, production bool) bool {
	if origin := r.Header.Get("Origin"); origin != "" {
		return clubAuth.NormalizeOrigin(origin) == expected
	}
	if referer := r.Header.Get("Referer"); referer != "" {
		return clubAuth.NormalizeOrigin(referer) == expected
	}
	return !production
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func forbid(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
