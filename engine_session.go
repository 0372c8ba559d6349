package clubAuth

import (
	"context"
	"net/http"
)

// ContinueAnonymously issues an anonymous session.
func (e *Engine) ContinueAnonymously(ctx context.Context) (SessionToken, error) {
	if e == nil {
		return SessionToken{}, ErrEngineNotReady
	}
	tok, err := e.issueSession(ctx, ModeAnonymous)
	if err != nil {
		e.emitAudit(ctx, auditEventAnonymousSession, false, err, auditDetail{})
		return SessionToken{}, err
	}
	e.metricInc(MetricAnonymousSession)
	e.emitAudit(ctx, auditEventAnonymousSession, true, nil, auditDetail{mode: ModeAnonymous})
	return tok, nil
}

// ResolveSession returns the mode carried by a session token. Anything that
// does not verify resolves to ModeGuest.
func (e *Engine) ResolveSession(token string) Mode {
	if e == nil {
		return ModeGuest
	}
	return e.sessions.Resolve(token)
}

// ResolveRequest resolves the session cookie of r.
func (e *Engine) ResolveRequest(r *http.Request) Mode {
	if e == nil {
		return ModeGuest
	}
	return e.sessions.Resolve(e.SessionCookie(r))
}

// Logout discards the pending challenge named by r's challenge cookie and
// clears both cookies. Session tokens are stateless and stay valid until
// expiry.
func (e *Engine) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if id := e.ChallengeCookie(r); id != "" {
		if err := e.challenges.Delete(ctx, id); err != nil {
			e.logger.Warn("discard challenge on logout", "error", err)
		}
	}
	e.ClearSessionCookie(w)
	e.ClearChallengeCookie(w)
}
