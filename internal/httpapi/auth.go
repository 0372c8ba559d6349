package httpapi

import (
	"net/http"
	"time"

	clubAuth "github.com/MrEthical07/clubAuth"
	"github.com/MrEthical07/clubAuth/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type challengeResponse struct {
	RequiresTwoFactor bool      `json:"requiresTwoFactor"`
	MaskedEmail       string    `json:"maskedEmail"`
	ExpiresAt         time.Time `json:"expiresAt"`
	Delivered         bool      `json:"delivered"`
	Message           string    `json:"message"`
	DebugCode         string    `json:"debugCode,omitempty"`
}

type modeResponse struct {
	Mode       clubAuth.Mode `json:"mode"`
	Registered bool          `json:"registered,omitempty"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	decodeBody(r, &req)
	res, err := h.engine.BeginLogin(r.Context(), clubAuth.LoginInput{Email: req.Email, Password: req.Password})
	h.challengeIssued(w, r, res, err)
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	decodeBody(r, &req)
	res, err := h.engine.BeginAdminLogin(r.Context(), clubAuth.LoginInput{Email: req.Email, Password: req.Password})
	h.challengeIssued(w, r, res, err)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	decodeBody(r, &req)
	res, err := h.engine.BeginRegistration(r.Context(), clubAuth.RegistrationInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	h.challengeIssued(w, r, res, err)
}

// challengeIssued stores the pending challenge and drops any current
// session: the browser is a guest until the code is verified.
func (h *Handler) challengeIssued(w http.ResponseWriter, r *http.Request, res *clubAuth.ChallengeResult, err error) {
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}

	h.engine.SetChallengeCookie(w, res)
	h.engine.ClearSessionCookie(w)

	message := "A verification code was sent to your email."
	if !res.Delivered {
		message = "Email delivery is unavailable. Use the test code."
	}
	respondJSON(w, http.StatusOK, challengeResponse{
		RequiresTwoFactor: true,
		MaskedEmail:       res.MaskedEmail,
		ExpiresAt:         res.ExpiresAt,
		Delivered:         res.Delivered,
		Message:           message,
		DebugCode:         res.DebugCode,
	})
}

func (h *Handler) verifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	decodeBody(r, &req)

	res, err := h.engine.VerifyTwoFactor(r.Context(), h.engine.ChallengeCookie(r), req.Code)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}

	h.engine.SetSessionCookie(w, clubAuth.SessionToken{Mode: res.Mode, Token: res.Token, ExpiresAt: res.ExpiresAt})
	h.engine.ClearChallengeCookie(w)
	respondJSON(w, http.StatusOK, modeResponse{Mode: res.Mode, Registered: res.Registered})
}

func (h *Handler) anonymous(w http.ResponseWriter, r *http.Request) {
	tok, err := h.engine.ContinueAnonymously(r.Context())
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	h.engine.SetSessionCookie(w, tok)
	h.engine.ClearChallengeCookie(w)
	respondJSON(w, http.StatusOK, modeResponse{Mode: tok.Mode})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.engine.Logout(r.Context(), w, r)
	respondJSON(w, http.StatusOK, modeResponse{Mode: clubAuth.ModeGuest})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, modeResponse{Mode: middleware.ModeFromContext(r.Context())})
}
