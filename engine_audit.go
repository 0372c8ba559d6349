package clubAuth

import (
	"context"
	"errors"
	"strconv"

	internalaudit "github.com/MrEthical07/clubAuth/internal/audit"
)

const (
	auditEventLoginChallenge        = "login_challenge_issued"
	auditEventLoginFailure          = "login_failure"
	auditEventAdminLoginChallenge   = "admin_login_challenge_issued"
	auditEventAdminLoginFailure     = "admin_login_failure"
	auditEventRegistrationChallenge = "registration_challenge_issued"
	auditEventRegistrationFailure   = "registration_failure"
	auditEventCodeDeliveryFailure   = "code_delivery_failure"
	auditEventTwoFactorSuccess      = "two_factor_success"
	auditEventTwoFactorFailure      = "two_factor_failure"
	auditEventAccountRegistered     = "account_registered"
	auditEventAnonymousSession      = "anonymous_session"
	auditEventOAuthStarted          = "oauth_started"
	auditEventOAuthSuccess          = "oauth_success"
	auditEventOAuthFailure          = "oauth_failure"
	auditEventRateLimitTriggered    = "rate_limit_triggered"
)

// AuditErrorCode is the machine-readable error recorded on failed events.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidCode        AuditErrorCode = "invalid_code"
	auditErrChallengeExpired   AuditErrorCode = "challenge_expired"
	auditErrChallengeMissing   AuditErrorCode = "challenge_missing"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrSecretMissing      AuditErrorCode = "secret_not_configured"
	auditErrDeliveryFailed     AuditErrorCode = "delivery_failed"
	auditErrRegistrationFailed AuditErrorCode = "registration_failed"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// auditDetail fills optional event fields.
type auditDetail struct {
	email    string
	mode     Mode
	metadata map[string]string
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, err error, detail auditDetail) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.NewEvent(eventType, success)
	event.IP = clientIPFromContext(ctx)
	if detail.email != "" {
		event.Email = MaskEmail(detail.email)
	}
	event.Mode = string(detail.mode)
	event.Metadata = detail.metadata
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope string, retryAfter int) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, ErrRateLimited, auditDetail{
		metadata: map[string]string{
			"scope":       scope,
			"retry_after": strconv.Itoa(retryAfter),
		},
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrChallengeExpired):
		return auditErrChallengeExpired
	case errors.Is(err, ErrChallengeMissing):
		return auditErrChallengeMissing
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrSecretNotConfigured):
		return auditErrSecretMissing
	case errors.Is(err, ErrCodeDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrRegistrationFailed):
		return auditErrRegistrationFailed
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrVerifierNotConfigured):
		return auditErrUnavailable
	}
	if code := oauthErrorCode(err); code != "" {
		return AuditErrorCode(code)
	}
	return auditErrInternal
}
