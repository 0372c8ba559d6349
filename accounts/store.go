package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/clubAuth/password"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	ErrAccountNotFound = errors.New("accounts: account not found")
	ErrAccountExists   = errors.New("accounts: account already exists")
	ErrUnsupportedDB   = errors.New("accounts: unsupported database driver")
)

// Status is the lifecycle state of a member account.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Account is one row of member_accounts.
type Account struct {
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS member_accounts (
	email         TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'active',
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
)`

// Store is a SQL-backed member account table.
type Store struct {
	db     *sqlx.DB
	hasher *password.Argon2
	now    func() time.Time

	// dummyHash keeps unknown-email checks as slow as real ones.
	dummyHash string
}

// Open connects to driver ("sqlite" or "postgres") and returns a Store that
// hashes with hasher. Call Migrate before first use.
func Open(driver, dsn string, hasher *password.Argon2) (*Store, error) {
	name, err := driverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Connect(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("accounts: connect %s: %w", name, err)
	}

	if name == "sqlite" {
		// A single connection keeps ":memory:" databases shared and avoids
		// SQLITE_BUSY on concurrent writes.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s, err := New(db, hasher)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection.
func New(db *sqlx.DB, hasher *password.Argon2) (*Store, error) {
	if db == nil {
		return nil, errors.New("accounts: nil db")
	}
	if hasher == nil {
		return nil, errors.New("accounts: nil hasher")
	}
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &Store{db: db, hasher: hasher, now: time.Now, dummyHash: dummy}, nil
}

func driverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return "sqlite", nil
	case "postgres", "postgresql", "pq":
		return "postgres", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDB, driver)
	}
}

// SetClock replaces the timestamp source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates member_accounts if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Get loads the account for email.
func (s *Store) Get(ctx context.Context, email string) (*Account, error) {
	var acct Account
	query := s.db.Rebind(`SELECT email, password_hash, status, created_at, updated_at FROM member_accounts WHERE email = ?`)
	err := s.db.GetContext(ctx, &acct, query, normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// RegisterAccount inserts an active account with an already hashed password.
// It returns ErrAccountExists when the email is taken.
func (s *Store) RegisterAccount(ctx context.Context, email, passwordHash string) error {
	if passwordHash == "" {
		return errors.New("accounts: empty password hash")
	}
	now := s.now().UTC()
	query := s.db.Rebind(`
		INSERT INTO member_accounts (email, password_hash, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, query, normalizeEmail(email), passwordHash, StatusActive, now, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountExists
	}
	return nil
}

// Create hashes plain and registers the account.
func (s *Store) Create(ctx context.Context, email, plain string) error {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return err
	}
	return s.RegisterAccount(ctx, email, hash)
}

// SetStatus changes the account status.
func (s *Store) SetStatus(ctx context.Context, email string, status Status) error {
	query := s.db.Rebind(`UPDATE member_accounts SET status = ?, updated_at = ? WHERE email = ?`)
	res, err := s.db.ExecContext(ctx, query, status, s.now().UTC(), normalizeEmail(email))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAccountNotFound
	}
	return err
}

// VerifyCredentials reports whether plain matches the stored hash of an
// active account. Unknown emails still pay for one hash comparison. Hashes
// made with weaker parameters are upgraded in place after a match.
func (s *Store) VerifyCredentials(ctx context.Context, email, plain string) (bool, error) {
	acct, err := s.Get(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		_, _ = s.hasher.Verify(plain, s.dummyHash)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ok, err := s.hasher.Verify(plain, acct.PasswordHash)
	if errors.Is(err, password.ErrPasswordTooLong) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !ok || acct.Status != StatusActive {
		return false, nil
	}

	if upgrade, err := s.hasher.NeedsUpgrade(acct.PasswordHash); err == nil && upgrade {
		if hash, err := s.hasher.Hash(plain); err == nil {
			_ = s.updateHash(ctx, acct.Email, hash)
		}
	}
	return true, nil
}

func (s *Store) updateHash(ctx context.Context, email, hash string) error {
	query := s.db.Rebind(`UPDATE member_accounts SET password_hash = ?, updated_at = ? WHERE email = ?`)
	_, err := s.db.ExecContext(ctx, query, hash, s.now().UTC(), email)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
