package clubAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/clubAuth/internal/stores"
	"github.com/MrEthical07/clubAuth/session"
)

// VerifyTwoFactor consumes the challenge named by challengeID with code and
// issues a session for the challenge's target mode.
//
// Failures are counted under "login:<ip>:2fa[:<email>]". The email suffix
// comes from the stored challenge, so an attacker cannot pick a fresh
// budget by naming another account.
func (e *Engine) VerifyTwoFactor(ctx context.Context, challengeID, code string) (*VerifyResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	started := time.Now()
	defer func() { e.metrics.Observe(MetricVerifyLatency, time.Since(started)) }()

	var meta *stores.ChallengeMeta
	if challengeID != "" {
		m, err := e.challenges.PeekMeta(ctx, challengeID)
		switch {
		case err == nil:
			meta = m
		case errors.Is(err, stores.ErrChallengeNotFound):
		default:
			return nil, storeError(err)
		}
	}

	var emailHint string
	if meta != nil {
		emailHint = meta.Email
	}
	key := RateLimitKey(clientIPFromContext(ctx), purposeTwoFactor, emailHint)

	if err := e.checkBlocked(ctx, key, purposeTwoFactor); err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.metricInc(MetricTwoFactorRateLimited)
		}
		return nil, err
	}

	code, wellFormed := normalizeCode(code)
	if !wellFormed {
		verr := &ValidationError{}
		verr.add("code", "enter the 6-digit code")
		e.twoFactorFailed(ctx, verr, emailHint)
		if err := e.failAttempt(ctx, key, purposeTwoFactor); err != nil {
			return nil, err
		}
		return nil, verr
	}

	if meta == nil {
		e.twoFactorFailed(ctx, ErrChallengeMissing, "")
		res, err := e.limiter.RegisterFailure(ctx, key)
		if err != nil {
			return nil, storeError(err)
		}
		e.sleep(res.Delay)
		return nil, ErrChallengeMissing
	}

	consumed, err := e.challenges.VerifyAndConsume(ctx, challengeID, code)
	if err != nil {
		return nil, storeError(err)
	}
	if !consumed.OK {
		failure := ErrInvalidCode
		switch consumed.Reason {
		case stores.ReasonExpired:
			failure = ErrChallengeExpired
		case stores.ReasonMissing:
			failure = ErrChallengeMissing
		}
		e.twoFactorFailed(ctx, failure, emailHint)
		if err := e.failAttempt(ctx, key, purposeTwoFactor); err != nil {
			return nil, err
		}
		return nil, failure
	}

	if err := e.limiter.ClearOnSuccess(ctx, key); err != nil {
		e.logger.Warn("clear two-factor failures", "error", err)
	}

	mode := ModeMember
	if consumed.TargetMode == stores.TargetAdmin {
		mode = ModeAdmin
	}

	result := &VerifyResult{Mode: mode, Email: consumed.Email}
	if consumed.RegistrationHash != "" {
		if err := e.completeRegistration(ctx, consumed.Email, consumed.RegistrationHash); err != nil {
			return nil, err
		}
		result.Registered = true
	}

	tok, err := e.issueSession(ctx, mode)
	if err != nil {
		return nil, err
	}
	result.Token = tok.Token
	result.ExpiresAt = tok.ExpiresAt

	e.metricInc(MetricTwoFactorSuccess)
	e.emitAudit(ctx, auditEventTwoFactorSuccess, true, nil, auditDetail{email: consumed.Email, mode: mode})
	return result, nil
}

func (e *Engine) twoFactorFailed(ctx context.Context, err error, email string) {
	e.metricInc(MetricTwoFactorFailure)
	e.emitAudit(ctx, auditEventTwoFactorFailure, false, err, auditDetail{email: email})
}

func (e *Engine) completeRegistration(ctx context.Context, email, passwordHash string) error {
	if e.registrar == nil {
		return nil
	}
	if err := e.registrar.RegisterAccount(ctx, email, passwordHash); err != nil {
		e.emitAudit(ctx, auditEventAccountRegistered, false, ErrRegistrationFailed, auditDetail{email: email})
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	e.emitAudit(ctx, auditEventAccountRegistered, true, nil, auditDetail{email: email, mode: ModeMember})
	return nil
}

func (e *Engine) issueSession(ctx context.Context, mode Mode) (SessionToken, error) {
	tok, exp, err := e.sessions.IssueWithExpiry(mode)
	if err != nil {
		if errors.Is(err, session.ErrSecretNotConfigured) {
			e.logger.Error("session issue refused: secret not configured", "mode", string(mode))
			return SessionToken{}, ErrSecretNotConfigured
		}
		return SessionToken{}, fmt.Errorf("issue session: %w", err)
	}
	e.metricInc(MetricSessionIssued)
	return SessionToken{Mode: mode, Token: tok, ExpiresAt: exp}, nil
}
