package kv

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Fallback serves from primary and switches a single operation to secondary
// whenever primary reports ErrUnavailable. State written to one backend is
// never copied to the other.
type Fallback struct {
	primary   Store
	secondary Store
	logger    *slog.Logger
	component string
	warnOnce  sync.Once
}

// NewFallback combines a distributed primary with a local secondary.
func NewFallback(primary, secondary Store, logger *slog.Logger, component string) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		component: component,
	}
}

func (f *Fallback) Name() string { return f.primary.Name() }

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := f.primary.Get(ctx, key)
	if f.degraded(err) {
		return f.secondary.Get(ctx, key)
	}
	return data, err
}

func (f *Fallback) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := f.primary.Set(ctx, key, value, ttl)
	if f.degraded(err) {
		return f.secondary.Set(ctx, key, value, ttl)
	}
	return err
}

func (f *Fallback) Delete(ctx context.Context, key string) (bool, error) {
	ok, err := f.primary.Delete(ctx, key)
	if f.degraded(err) {
		return f.secondary.Delete(ctx, key)
	}
	return ok, err
}

func (f *Fallback) Mutate(ctx context.Context, key string, fn MutateFunc) error {
	err := f.primary.Mutate(ctx, key, fn)
	if f.degraded(err) {
		return f.secondary.Mutate(ctx, key, fn)
	}
	return err
}

func (f *Fallback) degraded(err error) bool {
	if err == nil || !errors.Is(err, ErrUnavailable) {
		return false
	}
	f.warnOnce.Do(func() {
		f.logger.Warn("distributed store unavailable, using process-local state",
			"component", f.component,
			"backend", f.primary.Name(),
			"error", err,
		)
	})
	return true
}
