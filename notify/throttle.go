package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	clubAuth "github.com/MrEthical07/clubAuth"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// ThrottleConfig bounds outbound mail. Zero limits disable that check.
type ThrottleConfig struct {
	// Global caps all sends.
	Global rate.Limit
	// GlobalBurst defaults to 1 when Global is set.
	GlobalBurst int
	// PerRecipient caps sends to one address.
	PerRecipient      rate.Limit
	PerRecipientBurst int
	// MaxRecipients bounds how many per-recipient limiters are tracked.
	MaxRecipients int
}

// Throttled wraps a sender and refuses sends over the configured rates with
// reason "throttled". It never blocks.
type Throttled struct {
	next   clubAuth.CodeSender
	global *rate.Limiter
	cfg    ThrottleConfig
	now    func() time.Time

	mu         sync.Mutex
	recipients *lru.Cache[string, *rate.Limiter]
}

func NewThrottled(next clubAuth.CodeSender, cfg ThrottleConfig) (*Throttled, error) {
	t := &Throttled{next: next, cfg: cfg, now: time.Now}
	if cfg.Global > 0 {
		burst := cfg.GlobalBurst
		if burst <= 0 {
			burst = 1
		}
		t.global = rate.NewLimiter(cfg.Global, burst)
	}
	if cfg.PerRecipient > 0 {
		size := cfg.MaxRecipients
		if size <= 0 {
			size = 10000
		}
		cache, err := lru.New[string, *rate.Limiter](size)
		if err != nil {
			return nil, err
		}
		t.recipients = cache
	}
	return t, nil
}

// SendCode spends one token from the recipient and one from the global
// limiter. A refusal by either leaves the other's budget untouched.
func (t *Throttled) SendCode(ctx context.Context, d clubAuth.CodeDelivery) clubAuth.DeliveryResult {
	if t.next == nil {
		return clubAuth.DeliveryResult{Reason: ReasonMissingConfig}
	}
	now := t.now()

	recipient, ok := reserveNow(t.recipientLimiter(d.Email), now)
	if !ok {
		return clubAuth.DeliveryResult{Reason: ReasonThrottled}
	}
	if _, ok := reserveNow(t.global, now); !ok {
		if recipient != nil {
			recipient.CancelAt(now)
		}
		return clubAuth.DeliveryResult{Reason: ReasonThrottled}
	}
	return t.next.SendCode(ctx, d)
}

// reserveNow takes a token only if one is available at now. A nil limiter
// always allows.
func reserveNow(lim *rate.Limiter, now time.Time) (*rate.Reservation, bool) {
	if lim == nil {
		return nil, true
	}
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return nil, false
	}
	if r.DelayFrom(now) > 0 {
		r.CancelAt(now)
		return nil, false
	}
	return r, true
}

func (t *Throttled) recipientLimiter(email string) *rate.Limiter {
	if t.recipients == nil {
		return nil
	}
	key := strings.ToLower(strings.TrimSpace(email))

	t.mu.Lock()
	defer t.mu.Unlock()
	lim, ok := t.recipients.Get(key)
	if !ok {
		burst := t.cfg.PerRecipientBurst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(t.cfg.PerRecipient, burst)
		t.recipients.Add(key, lim)
	}
	return lim
}
