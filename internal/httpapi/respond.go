package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	clubAuth "github.com/MrEthical07/clubAuth"
)

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message})
}

// respondEngineError maps an Engine error to a status and generic message.
// A missing or expired challenge also clears the challenge cookie.
func (h *Handler) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var rle *clubAuth.RateLimitError
	var verr *clubAuth.ValidationError

	switch {
	case errors.As(err, &rle):
		w.Header().Set("Retry-After", strconv.Itoa(rle.RetryAfterSeconds()))
		respondError(w, http.StatusTooManyRequests, "Too many attempts. Try again later.")
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Message: "Check the highlighted fields.", Errors: verr.Fields})
	case errors.Is(err, clubAuth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "The email or password is incorrect.")
	case errors.Is(err, clubAuth.ErrInvalidCode):
		respondError(w, http.StatusUnauthorized, "The verification code is incorrect.")
	case errors.Is(err, clubAuth.ErrChallengeMissing), errors.Is(err, clubAuth.ErrChallengeExpired):
		h.engine.ClearChallengeCookie(w)
		respondError(w, http.StatusUnauthorized, "The verification code has expired. Sign in again.")
	case errors.Is(err, clubAuth.ErrRegistrationFailed):
		respondError(w, http.StatusConflict, "Registration could not be completed.")
	case errors.Is(err, clubAuth.ErrCodeDeliveryFailed):
		respondError(w, http.StatusServiceUnavailable, "Email delivery is unavailable. Try again in a few minutes.")
	case errors.Is(err, clubAuth.ErrSecretNotConfigured),
		errors.Is(err, clubAuth.ErrStoreUnavailable),
		errors.Is(err, clubAuth.ErrVerifierNotConfigured),
		errors.Is(err, clubAuth.ErrEngineNotReady):
		h.logger.Error("auth backend unavailable", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusServiceUnavailable, "Sign-in is temporarily unavailable.")
	default:
		h.logger.Error("auth request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error.")
	}
}
