package internaldefs

import (
	clubAuth "github.com/MrEthical07/clubAuth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   clubAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   clubAuth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in snapshot order.
var CounterDefs = []CounterDef{
	{ID: clubAuth.MetricLoginChallengeIssued, Name: "clubauth_login_challenge_issued_total", Help: "Member logins that passed the password step and were sent a code."},
	{ID: clubAuth.MetricLoginFailure, Name: "clubauth_login_failure_total", Help: "Member login attempts rejected at the password step."},
	{ID: clubAuth.MetricLoginRateLimited, Name: "clubauth_login_rate_limited_total", Help: "Member and admin login attempts rejected while blocked."},
	{ID: clubAuth.MetricAdminLoginChallengeIssued, Name: "clubauth_admin_login_challenge_issued_total", Help: "Admin logins that passed the password step and were sent a code."},
	{ID: clubAuth.MetricAdminLoginFailure, Name: "clubauth_admin_login_failure_total", Help: "Admin login attempts rejected at the password step."},
	{ID: clubAuth.MetricRegistrationChallengeIssued, Name: "clubauth_registration_challenge_issued_total", Help: "Registrations that were sent a verification code."},
	{ID: clubAuth.MetricRegistrationInvalid, Name: "clubauth_registration_invalid_total", Help: "Registrations rejected by input validation."},
	{ID: clubAuth.MetricTwoFactorSuccess, Name: "clubauth_two_factor_success_total", Help: "Verification codes accepted."},
	{ID: clubAuth.MetricTwoFactorFailure, Name: "clubauth_two_factor_failure_total", Help: "Verification attempts rejected."},
	{ID: clubAuth.MetricTwoFactorRateLimited, Name: "clubauth_two_factor_rate_limited_total", Help: "Verification attempts rejected while blocked."},
	{ID: clubAuth.MetricCodeDeliveryFailure, Name: "clubauth_code_delivery_failure_total", Help: "Verification codes the mail provider did not accept."},
	{ID: clubAuth.MetricSessionIssued, Name: "clubauth_session_issued_total", Help: "Signed session tokens issued."},
	{ID: clubAuth.MetricAnonymousSession, Name: "clubauth_anonymous_session_total", Help: "Anonymous sessions started."},
	{ID: clubAuth.MetricOAuthStarted, Name: "clubauth_oauth_started_total", Help: "Social sign-in redirects issued."},
	{ID: clubAuth.MetricOAuthSuccess, Name: "clubauth_oauth_success_total", Help: "Social sign-in callbacks that issued a session."},
	{ID: clubAuth.MetricOAuthFailure, Name: "clubauth_oauth_failure_total", Help: "Social sign-in callbacks that failed."},
	{ID: clubAuth.MetricRateLimitHit, Name: "clubauth_rate_limit_hit_total", Help: "Requests denied by any login limiter."},
}

// HistogramDefs lists the exported latency histograms.
var HistogramDefs = []HistogramDef{
	{ID: clubAuth.MetricVerifyLatency, Name: "clubauth_verify_latency_seconds", Help: "Two-factor verification latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "clubauth_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."

// HistogramUpperBounds are the bucket limits in seconds. The last bucket is
// +Inf and has no entry.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// flatten buckets into separate instruments.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
