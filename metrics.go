package clubAuth

import internalmetrics "github.com/MrEthical07/clubAuth/internal/metrics"

// MetricID identifies one engine counter.
type MetricID = internalmetrics.MetricID

// MetricsSnapshot is a point-in-time copy of the engine counters.
type MetricsSnapshot = internalmetrics.Snapshot

const (
	MetricLoginChallengeIssued        = internalmetrics.LoginChallengeIssued
	MetricLoginFailure                = internalmetrics.LoginFailure
	MetricLoginRateLimited            = internalmetrics.LoginRateLimited
	MetricAdminLoginChallengeIssued   = internalmetrics.AdminLoginChallengeIssued
	MetricAdminLoginFailure           = internalmetrics.AdminLoginFailure
	MetricRegistrationChallengeIssued = internalmetrics.RegistrationChallengeIssued
	MetricRegistrationInvalid         = internalmetrics.RegistrationInvalid
	MetricTwoFactorSuccess            = internalmetrics.TwoFactorSuccess
	MetricTwoFactorFailure            = internalmetrics.TwoFactorFailure
	MetricTwoFactorRateLimited        = internalmetrics.TwoFactorRateLimited
	MetricCodeDeliveryFailure         = internalmetrics.CodeDeliveryFailure
	MetricSessionIssued               = internalmetrics.SessionIssued
	MetricAnonymousSession            = internalmetrics.AnonymousSession
	MetricOAuthStarted                = internalmetrics.OAuthStarted
	MetricOAuthSuccess                = internalmetrics.OAuthSuccess
	MetricOAuthFailure                = internalmetrics.OAuthFailure
	MetricRateLimitHit                = internalmetrics.RateLimitHit
	MetricVerifyLatency               = internalmetrics.VerifyLatency
)

// MetricsSnapshot returns the current counters. A disabled collector returns
// empty maps.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return internalmetrics.New(internalmetrics.Config{}).Snapshot()
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}
