package stores

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/clubAuth/internal/kv"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type storeCase struct {
	name  string
	store *ChallengeStore
	mr    *miniredis.Miniredis
}

func newChallengeStores(t *testing.T) ([]storeCase, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	distributed, _ := kv.NewRedis(rdb)

	cases := []storeCase{
		{name: "memory", store: NewChallengeStore(kv.NewMemory(0), "")},
		{name: "redis", store: NewChallengeStore(distributed, ""), mr: mr},
	}
	return cases, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestChallengeOneTimeUse(t *testing.T) {
	cases, done := newChallengeStores(t)
	defer done()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			id, err := tc.store.Create(ctx, CreateInput{
				Email:      "  Member@Example.COM ",
				TargetMode: TargetMember,
				Code:       "482913",
				ExpiresAt:  time.Now().Add(10 * time.Minute),
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			first, err := tc.store.VerifyAndConsume(ctx, id, "482913")
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if !first.OK || first.Email != "member@example.com" || first.TargetMode != TargetMember {
				t.Fatalf("unexpected first result %+v", first)
			}

			second, err := tc.store.VerifyAndConsume(ctx, id, "482913")
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if second.OK || second.Reason != ReasonMissing {
				t.Fatalf("expected missing on replay, got %+v", second)
			}
		})
	}
}

func TestChallengeWrongCodeKeepsRecord(t *testing.T) {
	cases, done := newChallengeStores(t)
	defer done()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			id, err := tc.store.Create(ctx, CreateInput{
				Email:            "new@example.com",
				TargetMode:       TargetMember,
				Code:             "111111",
				ExpiresAt:        time.Now().Add(time.Minute),
				RegistrationHash: "$argon2id$v=19$stub",
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			res, err := tc.store.VerifyAndConsume(ctx, id, "222222")
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if res.OK || res.Reason != ReasonInvalidCode {
				t.Fatalf("expected invalid_code, got %+v", res)
			}

			res, err = tc.store.VerifyAndConsume(ctx, id, "111111")
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if !res.OK || res.RegistrationHash != "$argon2id$v=19$stub" {
				t.Fatalf("expected success with registration hash, got %+v", res)
			}
		})
	}
}

func TestChallengeExpiredIsDeleted(t *testing.T) {
	cases, done := newChallengeStores(t)
	defer done()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()
			tc.store.SetClock(func() time.Time { return now })

			id, err := tc.store.Create(ctx, CreateInput{
				Email:      "a@example.com",
				TargetMode: TargetAdmin,
				Code:       "123456",
				ExpiresAt:  now.Add(10 * time.Minute),
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if tc.mr != nil {
				if ttl := tc.mr.TTL(tc.store.key(id)); ttl != 10*time.Minute {
					t.Fatalf("expected ttl equal to remaining lifetime, got %v", ttl)
				}
			}

			now = now.Add(10 * time.Minute)
			if _, err := tc.store.PeekMeta(ctx, id); !errors.Is(err, ErrChallengeNotFound) {
				t.Fatalf("expected expired challenge hidden from peek, got %v", err)
			}

			id, _ = tc.store.Create(ctx, CreateInput{
				Email:      "a@example.com",
				TargetMode: TargetAdmin,
				Code:       "123456",
				ExpiresAt:  now.Add(time.Minute),
			})
			now = now.Add(2 * time.Minute)
			res, err := tc.store.VerifyAndConsume(ctx, id, "123456")
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if res.OK || res.Reason != ReasonExpired {
				t.Fatalf("expected expired, got %+v", res)
			}
			res, _ = tc.store.VerifyAndConsume(ctx, id, "123456")
			if res.Reason != ReasonMissing {
				t.Fatalf("expected expired record deleted, got %+v", res)
			}
		})
	}
}

func TestChallengePeekMeta(t *testing.T) {
	cases, done := newChallengeStores(t)
	defer done()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			expires := time.Now().Add(5 * time.Minute).Truncate(time.Millisecond)
			id, err := tc.store.Create(ctx, CreateInput{
				Email:      "Admin@Example.com",
				TargetMode: TargetAdmin,
				Code:       "654321",
				ExpiresAt:  expires,
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			meta, err := tc.store.PeekMeta(ctx, id)
			if err != nil {
				t.Fatalf("peek: %v", err)
			}
			if meta.Email != "admin@example.com" || meta.TargetMode != TargetAdmin || !meta.ExpiresAt.Equal(expires) {
				t.Fatalf("unexpected meta %+v", meta)
			}

			if _, err := tc.store.PeekMeta(ctx, "unknown"); !errors.Is(err, ErrChallengeNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}

			if err := tc.store.Delete(ctx, id); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := tc.store.PeekMeta(ctx, id); !errors.Is(err, ErrChallengeNotFound) {
				t.Fatalf("expected deleted challenge gone, got %v", err)
			}
		})
	}
}

func TestChallengeCreateRejectsBadInput(t *testing.T) {
	store := NewChallengeStore(kv.NewMemory(0), "")
	ctx := context.Background()
	future := time.Now().Add(time.Minute)

	inputs := map[string]CreateInput{
		"empty email":   {TargetMode: TargetMember, Code: "123456", ExpiresAt: future},
		"empty code":    {Email: "a@b.c", TargetMode: TargetMember, ExpiresAt: future},
		"guest target":  {Email: "a@b.c", TargetMode: "guest", Code: "123456", ExpiresAt: future},
		"already stale": {Email: "a@b.c", TargetMode: TargetMember, Code: "123456", ExpiresAt: time.Now().Add(-time.Second)},
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Create(ctx, in); !errors.Is(err, ErrChallengeInput) {
				t.Fatalf("expected ErrChallengeInput, got %v", err)
			}
		})
	}
}

func TestChallengeConcurrentConsumeSingleWinner(t *testing.T) {
	cases, done := newChallengeStores(t)
	defer done()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			id, err := tc.store.Create(ctx, CreateInput{
				Email:      "race@example.com",
				TargetMode: TargetMember,
				Code:       "999999",
				ExpiresAt:  time.Now().Add(time.Minute),
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res, err := tc.store.VerifyAndConsume(ctx, id, "999999")
					if err == nil && res.OK {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()

			if got := wins.Load(); got != 1 {
				t.Fatalf("expected exactly one success, got %d", got)
			}
		})
	}
}

func TestDecodeChallengeRejectsGarbage(t *testing.T) {
	inputs := [][]byte{nil, {9}, {challengeRecordVersion1, 0, 0}}
	for _, in := range inputs {
		if _, err := decodeChallenge(in); err == nil {
			t.Fatalf("expected decode error for %v", in)
		}
	}
}
