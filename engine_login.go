package clubAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/clubAuth/internal"
	"github.com/MrEthical07/clubAuth/internal/stores"
)

// credentialFlow parameterizes the member and admin login flows.
type credentialFlow struct {
	scope         string
	key           string
	verifier      CredentialVerifier
	target        string
	purpose       CodePurpose
	issuedMetric  MetricID
	failureMetric MetricID
	issuedEvent   string
	failureEvent  string
}

// BeginLogin checks member credentials and emails a two-factor code.
// Malformed input and wrong credentials both count against the client IP.
func (e *Engine) BeginLogin(ctx context.Context, in LoginInput) (*ChallengeResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ip := clientIPFromContext(ctx)
	return e.beginCredentialLogin(ctx, in, credentialFlow{
		scope:         purposeLogin,
		key:           RateLimitKey(ip),
		verifier:      e.verifier,
		target:        stores.TargetMember,
		purpose:       PurposeLogin,
		issuedMetric:  MetricLoginChallengeIssued,
		failureMetric: MetricLoginFailure,
		issuedEvent:   auditEventLoginChallenge,
		failureEvent:  auditEventLoginFailure,
	})
}

// BeginAdminLogin is BeginLogin against the admin verifier with its own
// failure budget.
func (e *Engine) BeginAdminLogin(ctx context.Context, in LoginInput) (*ChallengeResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	ip := clientIPFromContext(ctx)
	return e.beginCredentialLogin(ctx, in, credentialFlow{
		scope:         purposeAdmin,
		key:           RateLimitKey(ip, purposeAdmin),
		verifier:      e.adminVerifier,
		target:        stores.TargetAdmin,
		purpose:       PurposeAdminLogin,
		issuedMetric:  MetricAdminLoginChallengeIssued,
		failureMetric: MetricAdminLoginFailure,
		issuedEvent:   auditEventAdminLoginChallenge,
		failureEvent:  auditEventAdminLoginFailure,
	})
}

func (e *Engine) beginCredentialLogin(ctx context.Context, in LoginInput, flow credentialFlow) (*ChallengeResult, error) {
	if err := e.checkBlocked(ctx, flow.key, flow.scope); err != nil {
		return nil, err
	}

	in, verr := validateLogin(in)
	if verr != nil {
		e.metricInc(flow.failureMetric)
		e.emitAudit(ctx, flow.failureEvent, false, verr, auditDetail{})
		if err := e.failAttempt(ctx, flow.key, flow.scope); err != nil {
			return nil, err
		}
		return nil, verr
	}

	if flow.verifier == nil {
		return nil, ErrVerifierNotConfigured
	}
	ok, err := flow.verifier.VerifyCredentials(ctx, in.Email, in.Password)
	if err != nil {
		e.logger.Error("credential verifier failed", "scope", flow.scope, "error", err)
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok {
		e.metricInc(flow.failureMetric)
		e.emitAudit(ctx, flow.failureEvent, false, ErrInvalidCredentials, auditDetail{email: in.Email})
		if err := e.failAttempt(ctx, flow.key, flow.scope); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if err := e.limiter.ClearOnSuccess(ctx, flow.key); err != nil {
		return nil, storeError(err)
	}

	res, err := e.issueChallenge(ctx, in.Email, flow.target, flow.purpose, "")
	if err != nil {
		return nil, err
	}
	e.metricInc(flow.issuedMetric)
	e.emitAudit(ctx, flow.issuedEvent, true, nil, auditDetail{email: in.Email, mode: Mode(flow.target)})
	return res, nil
}

// BeginRegistration validates a sign-up, hashes the password and emails a
// code. The account is created only after the code is verified.
// Registration does not count against the login limiter.
func (e *Engine) BeginRegistration(ctx context.Context, in RegistrationInput) (*ChallengeResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	in, verr := validateRegistration(in)
	if verr != nil {
		e.metricInc(MetricRegistrationInvalid)
		e.emitAudit(ctx, auditEventRegistrationFailure, false, verr, auditDetail{})
		return nil, verr
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash registration password: %w", err)
	}

	res, err := e.issueChallenge(ctx, in.Email, stores.TargetMember, PurposeRegister, hash)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricRegistrationChallengeIssued)
	e.emitAudit(ctx, auditEventRegistrationChallenge, true, nil, auditDetail{email: in.Email, mode: ModeMember})
	return res, nil
}

// checkBlocked returns a *RateLimitError while key is blocked.
func (e *Engine) checkBlocked(ctx context.Context, key, scope string) error {
	state, err := e.limiter.BlockState(ctx, key)
	if err != nil {
		return storeError(err)
	}
	if !state.Blocked {
		return nil
	}
	e.emitRateLimit(ctx, scope, state.RetryAfterSeconds)
	return &RateLimitError{RetryAfter: time.Duration(state.RetryAfterSeconds) * time.Second}
}

// failAttempt records a failure, waits out the throttling delay and reports
// a block if this failure crossed the threshold.
func (e *Engine) failAttempt(ctx context.Context, key, scope string) error {
	res, err := e.limiter.RegisterFailure(ctx, key)
	if err != nil {
		return storeError(err)
	}
	e.sleep(res.Delay)
	return e.checkBlocked(ctx, key, scope)
}

func (e *Engine) debugCodesAllowed() bool {
	return e.config.TwoFactor.AllowDebugCode && !e.config.Security.ProductionMode
}

// issueChallenge stores a fresh challenge and sends its code. When delivery
// fails and debug codes are not allowed the challenge is discarded.
func (e *Engine) issueChallenge(ctx context.Context, email, target string, purpose CodePurpose, registrationHash string) (*ChallengeResult, error) {
	code, err := internal.NewCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	expiresAt := e.now().Add(e.config.TwoFactor.ChallengeTTL)

	id, err := e.challenges.Create(ctx, stores.CreateInput{
		Email:            email,
		TargetMode:       target,
		Code:             code,
		ExpiresAt:        expiresAt,
		RegistrationHash: registrationHash,
	})
	if err != nil {
		if errors.Is(err, stores.ErrChallengeInput) {
			return nil, err
		}
		return nil, storeError(err)
	}

	delivery := e.deliver(ctx, CodeDelivery{Email: email, Code: code, Purpose: purpose})
	res := &ChallengeResult{
		ChallengeID: id,
		TargetMode:  Mode(target),
		MaskedEmail: MaskEmail(email),
		ExpiresAt:   expiresAt,
		Delivered:   delivery.Sent,
	}
	if delivery.Sent {
		return res, nil
	}

	e.metricInc(MetricCodeDeliveryFailure)
	e.emitAudit(ctx, auditEventCodeDeliveryFailure, false, ErrCodeDeliveryFailed, auditDetail{
		email:    email,
		mode:     Mode(target),
		metadata: map[string]string{"purpose": string(purpose), "reason": delivery.Reason},
	})
	e.logger.Warn("verification code not delivered",
		"purpose", string(purpose),
		"reason", delivery.Reason,
		"email", res.MaskedEmail,
	)

	if !e.debugCodesAllowed() {
		if err := e.challenges.Delete(ctx, id); err != nil {
			e.logger.Warn("discard undelivered challenge", "error", err)
		}
		return nil, ErrCodeDeliveryFailed
	}
	res.DebugCode = code
	return res, nil
}

func (e *Engine) deliver(ctx context.Context, d CodeDelivery) DeliveryResult {
	if e.sender == nil {
		return DeliveryResult{Reason: "missing_config"}
	}
	return e.sender.SendCode(ctx, d)
}
