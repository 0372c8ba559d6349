package httpapi

import (
	"errors"
	"net/http"
	"strings"

	clubAuth "github.com/MrEthical07/clubAuth"
	"github.com/gorilla/mux"
)

type socialLoginRequest struct {
	Provider string `json:"provider"`
	ReturnTo string `json:"returnTo"`
}

type socialLoginResponse struct {
	Provider     string `json:"provider"`
	AuthorizeURL string `json:"authorizeUrl"`
}

// socialLogin starts OAuth for a JSON client, which navigates to the
// returned URL itself.
func (h *Handler) socialLogin(w http.ResponseWriter, r *http.Request) {
	var req socialLoginRequest
	decodeBody(r, &req)

	start, err := h.engine.BeginOAuth(r.Context(), req.Provider, req.ReturnTo)
	if err != nil {
		h.respondOAuthStartError(w, r, err)
		return
	}
	h.engine.SetOAuthStateCookie(w, start)
	respondJSON(w, http.StatusOK, socialLoginResponse{
		Provider:     strings.ToLower(strings.TrimSpace(req.Provider)),
		AuthorizeURL: start.AuthorizeURL,
	})
}

// socialRedirect starts OAuth from a plain link.
func (h *Handler) socialRedirect(w http.ResponseWriter, r *http.Request) {
	start, err := h.engine.BeginOAuth(r.Context(), mux.Vars(r)["provider"], r.URL.Query().Get("returnTo"))
	if err != nil {
		h.redirectToLogin(w, r, clubAuth.OAuthErrorCodeOf(err))
		return
	}
	h.engine.SetOAuthStateCookie(w, start)
	http.Redirect(w, r, start.AuthorizeURL, http.StatusFound)
}

func (h *Handler) respondOAuthStartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, clubAuth.ErrOAuthUnsupportedProvider):
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Choose a supported sign-in provider.",
			Errors:  map[string]string{"provider": string(clubAuth.OAuthErrUnsupportedProvider)},
		})
	case errors.Is(err, clubAuth.ErrOAuthNotConfigured):
		respondError(w, http.StatusServiceUnavailable, "This sign-in provider is not available.")
	default:
		h.respondEngineError(w, r, err)
	}
}

func (h *Handler) socialCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.engine.CompleteOAuth(r.Context(), clubAuth.OAuthCallback{
		Provider:      mux.Vars(r)["provider"],
		State:         strings.TrimSpace(q.Get("state")),
		Code:          strings.TrimSpace(q.Get("code")),
		ProviderError: q.Get("error"),
		StateCookie:   h.engine.OAuthStateCookie(r),
	})
	if err != nil {
		h.redirectToLogin(w, r, clubAuth.OAuthErrorCodeOf(err))
		return
	}

	h.engine.SetSessionCookie(w, res.Session)
	h.engine.ClearChallengeCookie(w)
	h.engine.ClearOAuthStateCookie(w)
	http.Redirect(w, r, res.ReturnTo, http.StatusFound)
}

// redirectToLogin sends the browser back to the login page with the error
// code and drops any half-finished sign-in state.
func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, code clubAuth.OAuthErrorCode) {
	h.engine.ClearOAuthStateCookie(w)
	h.engine.ClearChallengeCookie(w)
	http.Redirect(w, r, h.engine.LoginRedirect(code), http.StatusFound)
}
