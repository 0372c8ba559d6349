package accounts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	clubAuth "github.com/MrEthical07/clubAuth"
	"github.com/MrEthical07/clubAuth/password"
)

var (
	_ clubAuth.CredentialVerifier = (*Store)(nil)
	_ clubAuth.AccountRegistrar   = (*Store)(nil)
	_ clubAuth.CredentialVerifier = (*StaticVerifier)(nil)
)

func fastHasher(t *testing.T, memory uint32) *password.Argon2 {
	t.Helper()
	h, err := password.NewArgon2(password.Config{
		Memory:      memory,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", ":memory:", fastHasher(t, 8*1024))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestCreateAndVerify(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, " Member@Example.com ", "member-pass"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := s.VerifyCredentials(ctx, "member@example.com", "member-pass")
	if err != nil || !ok {
		t.Fatalf("expected valid credentials, got %v %v", ok, err)
	}
	ok, err = s.VerifyCredentials(ctx, "member@example.com", "wrong-pass")
	if err != nil || ok {
		t.Fatalf("expected wrong password to fail, got %v %v", ok, err)
	}
	ok, err = s.VerifyCredentials(ctx, "nobody@example.com", "member-pass")
	if err != nil || ok {
		t.Fatalf("expected unknown email to fail, got %v %v", ok, err)
	}
	ok, err = s.VerifyCredentials(ctx, "member@example.com", strings.Repeat("x", 2000))
	if err != nil || ok {
		t.Fatalf("expected oversized password to fail quietly, got %v %v", ok, err)
	}
}

func TestRegisterAccountDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hash, err := s.hasher.Hash("member-pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := s.RegisterAccount(ctx, "dup@example.com", hash); err != nil {
		t.Fatalf("RegisterAccount: %v", err)
	}
	if err := s.RegisterAccount(ctx, "DUP@example.com", hash); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestDisabledAccountRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, "member@example.com", "member-pass"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.SetStatus(ctx, "member@example.com", StatusDisabled); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if ok, _ := s.VerifyCredentials(ctx, "member@example.com", "member-pass"); ok {
		t.Fatal("disabled account must not verify")
	}
	if err := s.SetStatus(ctx, "ghost@example.com", StatusDisabled); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestGetTimestamps(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	if err := s.Create(context.Background(), "member@example.com", "member-pass"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	acct, err := s.Get(context.Background(), "member@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if acct.Status != StatusActive || !acct.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected account %+v", acct)
	}
	if _, err := s.Get(context.Background(), "ghost@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestHashUpgradedOnLogin(t *testing.T) {
	ctx := context.Background()
	weak := newTestStore(t)
	if err := weak.Create(ctx, "member@example.com", "member-pass"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	before, _ := weak.Get(ctx, "member@example.com")

	strong, err := New(weak.db, fastHasher(t, 16*1024))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ok, err := strong.VerifyCredentials(ctx, "member@example.com", "member-pass"); err != nil || !ok {
		t.Fatalf("expected valid credentials, got %v %v", ok, err)
	}
	after, _ := strong.Get(ctx, "member@example.com")
	if after.PasswordHash == before.PasswordHash || !strings.Contains(after.PasswordHash, "m=16384") {
		t.Fatalf("expected upgraded hash, got %s", after.PasswordHash)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "dsn", fastHasher(t, 8*1024)); !errors.Is(err, ErrUnsupportedDB) {
		t.Fatalf("expected ErrUnsupportedDB, got %v", err)
	}
}

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(map[string]string{
		"Admin@Example.com": "admin-pass",
		"":                  "ignored",
		"empty@example.com": "",
	})
	ctx := context.Background()

	if !v.Configured() {
		t.Fatal("expected configured verifier")
	}
	if ok, _ := v.VerifyCredentials(ctx, "admin@example.com", "admin-pass"); !ok {
		t.Fatal("expected admin credentials to match")
	}
	if ok, _ := v.VerifyCredentials(ctx, "admin@example.com", "admin-pass2"); ok {
		t.Fatal("wrong password must fail")
	}
	if ok, _ := v.VerifyCredentials(ctx, "empty@example.com", ""); ok {
		t.Fatal("empty passwords are never configured")
	}
	if NewStaticVerifier(nil).Configured() {
		t.Fatal("empty verifier must not be configured")
	}
}
