package clubAuth

import (
	"net/http"
	"time"
)

// SetSessionCookie writes the session token cookie.
func (e *Engine) SetSessionCookie(w http.ResponseWriter, tok SessionToken) {
	e.setCookie(w, e.config.Cookie.SessionName, tok.Token, tok.ExpiresAt, http.SameSiteStrictMode)
}

func (e *Engine) ClearSessionCookie(w http.ResponseWriter) {
	e.clearCookie(w, e.config.Cookie.SessionName, http.SameSiteStrictMode)
}

// SetChallengeCookie writes the pending two-factor challenge ID.
func (e *Engine) SetChallengeCookie(w http.ResponseWriter, res *ChallengeResult) {
	if res == nil {
		return
	}
	e.setCookie(w, e.config.Cookie.ChallengeName, res.ChallengeID, res.ExpiresAt, http.SameSiteStrictMode)
}

func (e *Engine) ClearChallengeCookie(w http.ResponseWriter) {
	e.clearCookie(w, e.config.Cookie.ChallengeName, http.SameSiteStrictMode)
}

// SetOAuthStateCookie writes the encoded OAuth state payload. It is Lax so
// the provider's top-level redirect back to the callback carries it.
func (e *Engine) SetOAuthStateCookie(w http.ResponseWriter, start *OAuthStart) {
	if start == nil {
		return
	}
	e.setCookie(w, e.config.Cookie.OAuthStateName, start.StateCookie, start.ExpiresAt, http.SameSiteLaxMode)
}

func (e *Engine) ClearOAuthStateCookie(w http.ResponseWriter) {
	e.clearCookie(w, e.config.Cookie.OAuthStateName, http.SameSiteLaxMode)
}

// SessionCookie returns the session cookie value, or "".
func (e *Engine) SessionCookie(r *http.Request) string {
	return cookieValue(r, e.config.Cookie.SessionName)
}

func (e *Engine) ChallengeCookie(r *http.Request) string {
	return cookieValue(r, e.config.Cookie.ChallengeName)
}

func (e *Engine) OAuthStateCookie(r *http.Request) string {
	return cookieValue(r, e.config.Cookie.OAuthStateName)
}

func (e *Engine) setCookie(w http.ResponseWriter, name, value string, expires time.Time, sameSite http.SameSite) {
	maxAge := int(expires.Sub(e.now()).Round(time.Second) / time.Second)
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     e.config.Cookie.Path,
		Domain:   e.config.Cookie.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   e.config.Cookie.Secure,
		SameSite: sameSite,
	})
}

func (e *Engine) clearCookie(w http.ResponseWriter, name string, sameSite http.SameSite) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     e.config.Cookie.Path,
		Domain:   e.config.Cookie.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   e.config.Cookie.Secure,
		SameSite: sameSite,
	})
}

func cookieValue(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
