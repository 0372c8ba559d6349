package limiters

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/MrEthical07/clubAuth/internal/kv"
)

const loginRecordVersion1 = 1

// Default login policy.
const (
	LoginWindow        = 10 * time.Minute
	LoginBlockDuration = 15 * time.Minute
	LoginMaxAttempts   = 5
	LoginBaseDelay     = 250 * time.Millisecond
	LoginStepDelay     = 250 * time.Millisecond
	LoginMaxDelay      = 2 * time.Second
)

// LoginPolicy holds the limiter thresholds.
type LoginPolicy struct {
	Window        time.Duration
	BlockDuration time.Duration
	MaxAttempts   int
	BaseDelay     time.Duration
	StepDelay     time.Duration
	MaxDelay      time.Duration
}

// DefaultLoginPolicy returns the fixed production policy.
func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{
		Window:        LoginWindow,
		BlockDuration: LoginBlockDuration,
		MaxAttempts:   LoginMaxAttempts,
		BaseDelay:     LoginBaseDelay,
		StepDelay:     LoginStepDelay,
		MaxDelay:      LoginMaxDelay,
	}
}

// BlockState reports whether a key is currently blocked.
type BlockState struct {
	Blocked           bool
	RetryAfterSeconds int
}

// FailureResult is returned by RegisterFailure.
type FailureResult struct {
	Attempts int
	Delay    time.Duration
	Blocked  bool
}

type loginEntry struct {
	Attempts       uint32
	FirstFailureAt int64
	BlockedUntil   int64
}

// LoginLimiter tracks failed attempts per key.
type LoginLimiter struct {
	store  kv.Store
	prefix string
	policy LoginPolicy
	now    func() time.Time
}

// NewLoginLimiter creates a limiter writing under "<prefix>:<key>".
func NewLoginLimiter(store kv.Store, prefix string, policy LoginPolicy) *LoginLimiter {
	if prefix == "" {
		prefix = "club:rl"
	}
	return &LoginLimiter{
		store:  store,
		prefix: prefix,
		policy: policy,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (l *LoginLimiter) SetClock(now func() time.Time) {
	l.now = now
}

func (l *LoginLimiter) key(key string) string {
	return l.prefix + ":" + key
}

// Delay returns the throttling delay after the given number of failures.
func (l *LoginLimiter) Delay(attempts int) time.Duration {
	d := l.policy.BaseDelay + time.Duration(attempts)*l.policy.StepDelay
	if d > l.policy.MaxDelay {
		return l.policy.MaxDelay
	}
	return d
}

// BlockState reports the current block for key. An entry whose block has
// elapsed is deleted.
func (l *LoginLimiter) BlockState(ctx context.Context, key string) (BlockState, error) {
	if l == nil {
		return BlockState{}, nil
	}

	data, err := l.store.Get(ctx, l.key(key))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return BlockState{}, nil
		}
		return BlockState{}, err
	}
	entry, err := decodeLoginEntry(data)
	if err != nil {
		_, _ = l.store.Delete(ctx, l.key(key))
		return BlockState{}, nil
	}

	now := l.now().UnixMilli()
	if entry.BlockedUntil == 0 {
		return BlockState{}, nil
	}
	if entry.BlockedUntil <= now {
		_, _ = l.store.Delete(ctx, l.key(key))
		return BlockState{}, nil
	}
	return BlockState{Blocked: true, RetryAfterSeconds: retryAfterSeconds(entry.BlockedUntil - now)}, nil
}

// RegisterFailure counts one failed attempt for key.
func (l *LoginLimiter) RegisterFailure(ctx context.Context, key string) (FailureResult, error) {
	if l == nil {
		return FailureResult{}, nil
	}

	var result FailureResult
	err := l.store.Mutate(ctx, l.key(key), func(current []byte, found bool) (kv.Mutation, error) {
		now := l.now().UnixMilli()

		var entry loginEntry
		if found {
			if decoded, err := decodeLoginEntry(current); err == nil {
				entry = *decoded
			}
		}
		entry = l.rollover(entry, now)

		if entry.Attempts == 0 {
			entry.FirstFailureAt = now
		}
		entry.Attempts++
		if entry.BlockedUntil == 0 && int(entry.Attempts) >= l.policy.MaxAttempts {
			entry.BlockedUntil = now + l.policy.BlockDuration.Milliseconds()
		}

		result = FailureResult{
			Attempts: int(entry.Attempts),
			Delay:    l.Delay(int(entry.Attempts)),
			Blocked:  entry.BlockedUntil > now,
		}
		return kv.Put(encodeLoginEntry(entry), l.entryTTL(entry, now)), nil
	})
	if err != nil {
		return FailureResult{}, err
	}
	return result, nil
}

// ClearOnSuccess deletes the entry for key.
func (l *LoginLimiter) ClearOnSuccess(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	_, err := l.store.Delete(ctx, l.key(key))
	return err
}

// rollover resets an entry whose block has elapsed, or whose window has
// elapsed with no block in force. An active block is never changed.
func (l *LoginLimiter) rollover(entry loginEntry, now int64) loginEntry {
	switch {
	case entry.BlockedUntil != 0 && entry.BlockedUntil <= now:
		return loginEntry{}
	case entry.BlockedUntil == 0 && entry.Attempts > 0 && now-entry.FirstFailureAt > l.policy.Window.Milliseconds():
		return loginEntry{}
	default:
		return entry
	}
}

func (l *LoginLimiter) entryTTL(entry loginEntry, now int64) time.Duration {
	var blockRemaining int64
	if entry.BlockedUntil > now {
		blockRemaining = entry.BlockedUntil - now
	}
	windowRemaining := l.policy.Window.Milliseconds() - (now - entry.FirstFailureAt)
	ttl := max(blockRemaining, windowRemaining, int64(1000))
	return kv.WholeSeconds(time.Duration(ttl) * time.Millisecond)
}

// Wait sleeps for d. It deliberately takes no context: an aborted request
// must not cut a throttling delay short.
func Wait(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func retryAfterSeconds(remainingMillis int64) int {
	secs := (remainingMillis + 999) / 1000
	if secs < 1 {
		return 1
	}
	return int(secs)
}

func encodeLoginEntry(entry loginEntry) []byte {
	var buf bytes.Buffer
	buf.WriteByte(loginRecordVersion1)
	_ = binary.Write(&buf, binary.BigEndian, entry.Attempts)
	_ = binary.Write(&buf, binary.BigEndian, entry.FirstFailureAt)
	_ = binary.Write(&buf, binary.BigEndian, entry.BlockedUntil)
	return buf.Bytes()
}

func decodeLoginEntry(data []byte) (*loginEntry, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != loginRecordVersion1 {
		return nil, errors.New("invalid login entry version")
	}

	entry := &loginEntry{}
	if err := binary.Read(reader, binary.BigEndian, entry); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing login entry bytes")
	}
	return entry, nil
}
