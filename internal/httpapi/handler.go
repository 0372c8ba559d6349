package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	clubAuth "github.com/MrEthical07/clubAuth"
	"github.com/MrEthical07/clubAuth/middleware"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 16 << 10

// Handler serves the auth endpoints for one Engine.
type Handler struct {
	engine   *clubAuth.Engine
	security clubAuth.SecurityConfig
	logger   *slog.Logger
}

func New(engine *clubAuth.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:   engine,
		security: engine.Config().Security,
		logger:   logger,
	}
}

// Router returns a router with the auth routes and the standard middleware
// chain: HTTPS redirect, security headers, trusted origin, session mode.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(
		middleware.RedirectHTTPS(h.security.ProductionMode, h.security.TrustForwardedHeaders),
		middleware.SecurityHeaders(h.security.ProductionMode),
	)
	h.Register(r)
	return r
}

// Register mounts /api/auth on r.
func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/auth").Subrouter()
	api.Use(h.requestContext, middleware.TrustedOrigin(h.security), middleware.SessionMode(h.engine))

	api.HandleFunc("/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/admin/login", h.adminLogin).Methods(http.MethodPost)
	api.HandleFunc("/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/verify-2fa", h.verifyTwoFactor).Methods(http.MethodPost)
	api.HandleFunc("/anonymous", h.anonymous).Methods(http.MethodPost)
	api.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	api.HandleFunc("/session", h.session).Methods(http.MethodGet)

	api.HandleFunc("/social-login", h.socialLogin).Methods(http.MethodPost)
	api.HandleFunc("/social-login/{provider}", h.socialRedirect).Methods(http.MethodGet)
	api.HandleFunc("/social-callback/{provider}", h.socialCallback).Methods(http.MethodGet)
}

// requestContext attaches the client IP and request origin the Engine uses
// for rate-limit keys and OAuth callback URLs.
func (h *Handler) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := clubAuth.WithClientIP(r.Context(), clubAuth.ClientIP(r, h.security.TrustForwardedHeaders))
		ctx = clubAuth.WithRequestOrigin(ctx, clubAuth.RequestOrigin(r, h.security))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// decodeBody fills v from a JSON body. Malformed or oversized bodies leave v
// at its zero value so validation reports the missing fields.
func decodeBody(r *http.Request, v any) {
	body := io.LimitReader(r.Body, maxBodyBytes)
	_ = json.NewDecoder(body).Decode(v)
}
