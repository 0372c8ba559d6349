package clubAuth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrEthical07/clubAuth/oauth"
)

// BeginOAuth starts a social sign-in. The caller stores StateCookie in the
// OAuth state cookie and redirects the browser to AuthorizeURL. An empty or
// off-site returnTo falls back to a local path.
func (e *Engine) BeginOAuth(ctx context.Context, providerName, returnTo string) (*OAuthStart, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	provider, err := e.configuredProvider(providerName)
	if err != nil {
		e.oauthFailed(ctx, err, providerName)
		return nil, err
	}

	if strings.TrimSpace(returnTo) == "" {
		returnTo = e.config.OAuth.DefaultReturnPath
	}
	now := e.now()
	payload, err := oauth.NewStatePayload(provider, returnTo, now)
	if err != nil {
		return nil, fmt.Errorf("generate oauth state: %w", err)
	}
	cookie, err := oauth.Encode(*payload)
	if err != nil {
		return nil, fmt.Errorf("encode oauth state: %w", err)
	}

	redirectURL, err := e.callbackURL(ctx, provider)
	if err != nil {
		return nil, err
	}
	authorizeURL, err := e.oauth.AuthorizeURL(provider, redirectURL, payload.State)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthNotConfigured, err)
	}

	e.metricInc(MetricOAuthStarted)
	e.emitAudit(ctx, auditEventOAuthStarted, true, nil, auditDetail{
		metadata: map[string]string{"provider": string(provider)},
	})
	return &OAuthStart{
		AuthorizeURL: authorizeURL,
		StateCookie:  cookie,
		ExpiresAt:    now.Add(oauth.StateMaxAge),
	}, nil
}

// CompleteOAuth validates a provider callback against the state cookie,
// exchanges the code and issues a member session. Checks run in a fixed
// order so the first failing one names the error.
func (e *Engine) CompleteOAuth(ctx context.Context, cb OAuthCallback) (*OAuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	res, err := e.completeOAuth(ctx, cb)
	if err != nil {
		e.oauthFailed(ctx, err, cb.Provider)
		return nil, err
	}
	e.metricInc(MetricOAuthSuccess)
	e.emitAudit(ctx, auditEventOAuthSuccess, true, nil, auditDetail{
		email:    res.Profile.Email,
		mode:     ModeMember,
		metadata: map[string]string{"provider": string(res.Profile.Provider)},
	})
	return res, nil
}

func (e *Engine) completeOAuth(ctx context.Context, cb OAuthCallback) (*OAuthResult, error) {
	provider, err := e.configuredProvider(cb.Provider)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cb.ProviderError) != "" {
		return nil, ErrOAuthDenied
	}
	if cb.State == "" || cb.Code == "" {
		return nil, ErrOAuthMissingCode
	}

	payload, ok := oauth.Decode(cb.StateCookie)
	if !ok {
		return nil, ErrOAuthMissingState
	}
	switch err := oauth.Validate(payload, provider, cb.State, e.now()); {
	case err == nil:
	case errors.Is(err, oauth.ErrStateExpired):
		return nil, ErrOAuthStateExpired
	default:
		return nil, ErrOAuthStateInvalid
	}

	redirectURL := cb.RedirectURL
	if redirectURL == "" {
		if redirectURL, err = e.callbackURL(ctx, provider); err != nil {
			return nil, err
		}
	}
	profile, err := e.oauth.Exchange(ctx, provider, redirectURL, cb.Code)
	if err != nil {
		e.logger.Warn("oauth exchange failed", "provider", string(provider), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchangeFailed, err)
	}

	tok, err := e.issueSession(ctx, ModeMember)
	if err != nil {
		return nil, err
	}

	returnTo := payload.ReturnTo
	if returnTo == "" || returnTo == "/" {
		returnTo = e.config.OAuth.DefaultReturnPath
	}
	return &OAuthResult{Session: tok, ReturnTo: returnTo, Profile: *profile}, nil
}

func (e *Engine) configuredProvider(name string) (oauth.Provider, error) {
	provider, ok := oauth.ParseProvider(name)
	if !ok {
		return "", ErrOAuthUnsupportedProvider
	}
	if !e.oauth.Configured(provider) {
		return "", ErrOAuthNotConfigured
	}
	return provider, nil
}

// callbackURL is "<base><CallbackPath>/<provider>" where base is
// OAuth.BaseURL or the request origin.
func (e *Engine) callbackURL(ctx context.Context, provider oauth.Provider) (string, error) {
	base := e.config.OAuth.BaseURL
	if base == "" {
		base = requestOriginFromContext(ctx)
	}
	if base == "" {
		return "", fmt.Errorf("%w: no public origin for callback", ErrOAuthNotConfigured)
	}
	return strings.TrimRight(base, "/") + e.config.OAuth.CallbackPath + "/" + url.PathEscape(string(provider)), nil
}

// LoginRedirect is the login page URL carrying code as socialError.
func (e *Engine) LoginRedirect(code OAuthErrorCode) string {
	q := url.Values{}
	q.Set("socialError", string(code))
	return e.config.OAuth.LoginPath + "?" + q.Encode()
}

func (e *Engine) oauthFailed(ctx context.Context, err error, provider string) {
	e.metricInc(MetricOAuthFailure)
	e.emitAudit(ctx, auditEventOAuthFailure, false, err, auditDetail{
		metadata: map[string]string{"provider": strings.ToLower(strings.TrimSpace(provider))},
	})
}

// OAuthErrorCodeOf maps a CompleteOAuth error to its redirect code. Errors
// outside the OAuth taxonomy map to oauth_exchange_failed.
func OAuthErrorCodeOf(err error) OAuthErrorCode {
	if code := oauthErrorCode(err); code != "" {
		return code
	}
	return OAuthErrExchangeFailed
}

func oauthErrorCode(err error) OAuthErrorCode {
	switch {
	case errors.Is(err, ErrOAuthUnsupportedProvider):
		return OAuthErrUnsupportedProvider
	case errors.Is(err, ErrOAuthNotConfigured):
		return OAuthErrNotConfigured
	case errors.Is(err, ErrOAuthDenied):
		return OAuthErrDenied
	case errors.Is(err, ErrOAuthMissingCode):
		return OAuthErrMissingCode
	case errors.Is(err, ErrOAuthMissingState):
		return OAuthErrMissingState
	case errors.Is(err, ErrOAuthStateExpired):
		return OAuthErrStateExpired
	case errors.Is(err, ErrOAuthStateInvalid):
		return OAuthErrStateInvalid
	case errors.Is(err, ErrOAuthExchangeFailed):
		return OAuthErrExchangeFailed
	}
	return ""
}
