//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	clubAuth "github.com/MrEthical07/clubAuth"
	"github.com/MrEthical07/clubAuth/accounts"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	memberEmail    = "member@example.com"
	memberPassword = "member-pass"
	adminEmail     = "admin@example.com"
	adminPassword  = "admin-pass"
	sharedSecret   = "0123456789abcdef0123456789abcdef"
	clientIP       = "198.51.100.20"
)

// redisMode describes which Redis backend a suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes always includes miniredis. A real standalone server is added
// when REDIS_ADDR is set and a cluster when REDIS_CLUSTER_ADDRS is set.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				return rdb, func() { _ = rdb.Close(); mr.Close() }
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
			},
		})
	}

	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)})
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis cluster: %v", err)
				}
				return rdb, func() { _ = rdb.Close() }
			},
		})
	}

	return modes
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

// mailbox records every delivered code so a test can read it back.
type mailbox struct {
	mu   sync.Mutex
	sent []clubAuth.CodeDelivery
}

func (m *mailbox) SendCode(_ context.Context, d clubAuth.CodeDelivery) clubAuth.DeliveryResult {
	m.mu.Lock()
	m.sent = append(m.sent, d)
	m.mu.Unlock()
	return clubAuth.DeliveryResult{Sent: true}
}

func (m *mailbox) last(t *testing.T) clubAuth.CodeDelivery {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no code was delivered")
	}
	return m.sent[len(m.sent)-1]
}

func testConfig() clubAuth.Config {
	cfg := clubAuth.DefaultConfig()
	cfg.Session.Secret = sharedSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Audit.Enabled = false
	cfg.RateLimit.BaseDelay = 0
	cfg.RateLimit.StepDelay = 0
	cfg.RateLimit.MaxDelay = 0
	return cfg
}

// newNode builds one engine instance against client. Nodes sharing a client
// behave like replicas behind a load balancer.
func newNode(t *testing.T, client redis.UniversalClient, box *mailbox) *clubAuth.Engine {
	t.Helper()
	return newNodeWithConfig(t, client, box, testConfig())
}

func newNodeWithConfig(t *testing.T, client redis.UniversalClient, box *mailbox, cfg clubAuth.Config) *clubAuth.Engine {
	t.Helper()
	b := clubAuth.New().
		WithConfig(cfg).
		WithCredentialVerifier(accounts.NewStaticVerifier(map[string]string{memberEmail: memberPassword})).
		WithAdminVerifier(accounts.NewStaticVerifier(map[string]string{adminEmail: adminPassword})).
		WithCodeSender(box)
	if client != nil {
		b = b.WithRedis(client)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func requestContext() context.Context {
	return clubAuth.WithClientIP(context.Background(), clientIP)
}
