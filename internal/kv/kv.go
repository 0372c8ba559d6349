package kv

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned by Get when the key is absent or expired.
	ErrNotFound = errors.New("kv: key not found")
	// ErrUnavailable wraps every backend failure of a distributed adapter.
	ErrUnavailable = errors.New("kv: store unavailable")
	// ErrConflict is returned when an optimistic transaction keeps losing races.
	ErrConflict = errors.New("kv: transaction conflict")
)

// Op selects what Mutate writes back after the callback ran.
type Op uint8

const (
	// OpKeep leaves the key untouched.
	OpKeep Op = iota
	// OpSet stores Mutation.Value with Mutation.TTL.
	OpSet
	// OpDelete removes the key.
	OpDelete
)

// Mutation is the write decided by a MutateFunc.
type Mutation struct {
	Op    Op
	Value []byte
	TTL   time.Duration
}

// Keep, Put and Remove build the three mutations.
func Keep() Mutation { return Mutation{Op: OpKeep} }

func Put(value []byte, ttl time.Duration) Mutation {
	return Mutation{Op: OpSet, Value: value, TTL: ttl}
}

func Remove() Mutation { return Mutation{Op: OpDelete} }

// MutateFunc inspects the current value of a key and decides the write.
// It may run more than once when a transaction is retried, so it must not
// have side effects beyond assigning results captured by closure.
// A returned error aborts the mutation without writing and is passed
// through to the caller unchanged.
type MutateFunc func(current []byte, found bool) (Mutation, error)

// Store is a key/value store with per-entry expiry.
type Store interface {
	// Name identifies the backend in logs ("redis", "memory").
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A non-positive ttl is stored as one second.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	// Mutate runs fn against the current value and applies its decision
	// atomically with respect to other Mutate calls on the same key.
	Mutate(ctx context.Context, key string, fn MutateFunc) error
}

// Options tune Select.
type Options struct {
	MemoryCapacity int
	Logger         *slog.Logger
	// Component names the owner in failover log lines.
	Component string
	// Production logs a warning when no distributed store is configured.
	Production bool
}

var localOnlyWarning sync.Once

// Select builds the store for one component. A nil client selects the local
// backend only; otherwise Redis is primary with a local failover.
func Select(client redis.UniversalClient, opts Options) Store {
	local := NewMemory(opts.MemoryCapacity)
	distributed, ok := NewRedis(client)
	if !ok {
		if opts.Production {
			localOnlyWarning.Do(func() {
				logger := opts.Logger
				if logger == nil {
					logger = slog.Default()
				}
				logger.Warn("no distributed store configured, auth state is process-local",
					"component", opts.Component,
				)
			})
		}
		return local
	}
	return NewFallback(distributed, local, opts.Logger, opts.Component)
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// WholeSeconds rounds d up to a whole number of seconds, with a floor of one
// second, matching the resolution of Redis EXPIRE.
func WholeSeconds(d time.Duration) time.Duration {
	if d <= time.Second {
		return time.Second
	}
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}
