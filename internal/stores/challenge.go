package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/MrEthical07/clubAuth/internal"
	"github.com/MrEthical07/clubAuth/internal/kv"
)

const (
	challengeRecordVersion1 = 1

	targetMember byte = 1
	targetAdmin  byte = 2
)

// Target modes a challenge may grant.
const (
	TargetMember = "member"
	TargetAdmin  = "admin"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeInput    = errors.New("invalid challenge input")
)

// FailureReason explains why VerifyAndConsume did not succeed.
type FailureReason string

const (
	ReasonMissing     FailureReason = "missing"
	ReasonExpired     FailureReason = "expired"
	ReasonInvalidCode FailureReason = "invalid_code"
)

// Challenge is the stored record.
type Challenge struct {
	Email            string
	TargetMode       string
	CodeHash         [32]byte
	RegistrationHash string
	ExpiresAt        time.Time
}

// CreateInput describes a new challenge. Code is hashed before storage.
type CreateInput struct {
	Email            string
	TargetMode       string
	Code             string
	ExpiresAt        time.Time
	RegistrationHash string
}

// ChallengeMeta is the code-free view returned by PeekMeta.
type ChallengeMeta struct {
	Email      string
	TargetMode string
	ExpiresAt  time.Time
}

// ConsumeResult is the outcome of VerifyAndConsume. Reason is empty when OK.
type ConsumeResult struct {
	OK               bool
	Reason           FailureReason
	Email            string
	TargetMode       string
	RegistrationHash string
}

// ChallengeStore owns two-factor challenges.
type ChallengeStore struct {
	store  kv.Store
	prefix string
	now    func() time.Time
}

// NewChallengeStore returns a store writing under "<prefix>:<id>".
func NewChallengeStore(store kv.Store, prefix string) *ChallengeStore {
	if prefix == "" {
		prefix = "club:2fa"
	}
	return &ChallengeStore{
		store:  store,
		prefix: prefix,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *ChallengeStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ChallengeStore) key(challengeID string) string {
	return s.prefix + ":" + challengeID
}

// Create stores a fresh challenge and returns its id.
func (s *ChallengeStore) Create(ctx context.Context, in CreateInput) (string, error) {
	email := NormalizeEmail(in.Email)
	code := strings.TrimSpace(in.Code)
	if email == "" || code == "" {
		return "", ErrChallengeInput
	}
	if _, ok := encodeTarget(in.TargetMode); !ok {
		return "", ErrChallengeInput
	}
	remaining := in.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return "", ErrChallengeInput
	}

	id, err := internal.NewChallengeID()
	if err != nil {
		return "", err
	}
	encoded, err := encodeChallenge(&Challenge{
		Email:            email,
		TargetMode:       in.TargetMode,
		CodeHash:         internal.HashCode(code),
		RegistrationHash: in.RegistrationHash,
		ExpiresAt:        in.ExpiresAt,
	})
	if err != nil {
		return "", err
	}

	if err := s.store.Set(ctx, s.key(id), encoded, kv.WholeSeconds(remaining)); err != nil {
		return "", err
	}
	return id, nil
}

// PeekMeta returns the email and target of a live challenge without touching
// its code. Expired records are deleted and reported as not found.
func (s *ChallengeStore) PeekMeta(ctx context.Context, challengeID string) (*ChallengeMeta, error) {
	if challengeID == "" {
		return nil, ErrChallengeNotFound
	}
	data, err := s.store.Get(ctx, s.key(challengeID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	record, err := decodeChallenge(data)
	if err != nil || !s.now().Before(record.ExpiresAt) {
		_, _ = s.store.Delete(ctx, s.key(challengeID))
		return nil, ErrChallengeNotFound
	}
	return &ChallengeMeta{
		Email:      record.Email,
		TargetMode: record.TargetMode,
		ExpiresAt:  record.ExpiresAt,
	}, nil
}

// VerifyAndConsume checks code against the challenge. A successful match
// always deletes the record; an expired record is deleted; a wrong code
// leaves the record in place until it expires. The returned error is only
// set for backend failures.
func (s *ChallengeStore) VerifyAndConsume(ctx context.Context, challengeID, code string) (ConsumeResult, error) {
	if challengeID == "" {
		return ConsumeResult{Reason: ReasonMissing}, nil
	}
	submitted := internal.HashCode(code)

	var result ConsumeResult
	err := s.store.Mutate(ctx, s.key(challengeID), func(current []byte, found bool) (kv.Mutation, error) {
		if !found {
			result = ConsumeResult{Reason: ReasonMissing}
			return kv.Keep(), nil
		}

		record, err := decodeChallenge(current)
		if err != nil {
			result = ConsumeResult{Reason: ReasonMissing}
			return kv.Remove(), nil
		}
		if !s.now().Before(record.ExpiresAt) {
			result = ConsumeResult{Reason: ReasonExpired}
			return kv.Remove(), nil
		}
		if subtle.ConstantTimeCompare(record.CodeHash[:], submitted[:]) != 1 {
			result = ConsumeResult{Reason: ReasonInvalidCode}
			return kv.Keep(), nil
		}

		result = ConsumeResult{
			OK:               true,
			Email:            record.Email,
			TargetMode:       record.TargetMode,
			RegistrationHash: record.RegistrationHash,
		}
		return kv.Remove(), nil
	})
	if err != nil {
		return ConsumeResult{}, err
	}
	return result, nil
}

// Delete discards a challenge. Deleting a missing id is not an error.
func (s *ChallengeStore) Delete(ctx context.Context, challengeID string) error {
	if challengeID == "" {
		return nil
	}
	_, err := s.store.Delete(ctx, s.key(challengeID))
	return err
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func encodeTarget(mode string) (byte, bool) {
	switch mode {
	case TargetMember:
		return targetMember, true
	case TargetAdmin:
		return targetAdmin, true
	default:
		return 0, false
	}
}

func decodeTarget(b byte) (string, bool) {
	switch b {
	case targetMember:
		return TargetMember, true
	case targetAdmin:
		return TargetAdmin, true
	default:
		return "", false
	}
}

func encodeChallenge(record *Challenge) ([]byte, error) {
	target, ok := encodeTarget(record.TargetMode)
	if !ok {
		return nil, ErrChallengeInput
	}
	if len(record.Email) > 65535 || len(record.RegistrationHash) > 65535 {
		return nil, errors.New("challenge field length exceeded")
	}

	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion1)
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt.UnixMilli()); err != nil {
		return nil, err
	}
	buf.WriteByte(target)

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Email))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Email)
	buf.Write(record.CodeHash[:])

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.RegistrationHash))); err != nil {
		return nil, err
	}
	buf.WriteString(record.RegistrationHash)

	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (*Challenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersion1 {
		return nil, errors.New("invalid challenge version")
	}

	record := &Challenge{}
	var expiresAt int64
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}
	record.ExpiresAt = time.UnixMilli(expiresAt)

	target, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	mode, ok := decodeTarget(target)
	if !ok {
		return nil, errors.New("invalid challenge target")
	}
	record.TargetMode = mode

	email, err := readString16(reader)
	if err != nil {
		return nil, err
	}
	record.Email = email

	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	reg, err := readString16(reader)
	if err != nil {
		return nil, err
	}
	record.RegistrationHash = reg

	if reader.Len() != 0 {
		return nil, errors.New("trailing challenge bytes")
	}
	return record, nil
}

func readString16(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
