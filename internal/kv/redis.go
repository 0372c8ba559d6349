package kv

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisMaxRetries = 32
	retryBaseDelay  = time.Millisecond
	retryMaxDelay   = 64 * time.Millisecond
)

// retryDelay is full-jitter exponential backoff for a lost WATCH race.
func retryDelay(attempt int) time.Duration {
	d := retryBaseDelay << min(attempt, 6)
	if d > retryMaxDelay {
		d = retryMaxDelay
	}
	return time.Duration(rand.Int64N(int64(d))) + 1
}

// Redis is the distributed adapter.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps client. It reports false, and a nil adapter, when no client
// is configured so callers can treat the distributed store as unavailable
// instead of failing.
func NewRedis(client redis.UniversalClient) (*Redis, bool) {
	if client == nil {
		return nil, false
	}
	return &Redis{client: client}, true
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, normalizeTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// callbackError marks errors produced by a MutateFunc so they are returned
// unwrapped rather than reported as backend failures.
type callbackError struct{ err error }

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

func (r *Redis) Mutate(ctx context.Context, key string, fn MutateFunc) error {
	for i := 0; i < redisMaxRetries; i++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			found := true
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if !errors.Is(err, redis.Nil) {
					return err
				}
				found = false
				data = nil
			}

			m, err := fn(data, found)
			if err != nil {
				return &callbackError{err: err}
			}

			switch m.Op {
			case OpSet:
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, m.Value, normalizeTTL(m.TTL))
					return nil
				})
				return err
			case OpDelete:
				if !found {
					return nil
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			default:
				return nil
			}
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay(i)):
			}
			continue
		}
		if err != nil {
			var cbErr *callbackError
			if errors.As(err, &cbErr) {
				return cbErr.err
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}
	return ErrConflict
}
