package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	phcPrefix = "$argon2id$v="

	// DefaultMinPasswordBytes matches the registration rule.
	DefaultMinPasswordBytes = 6
	// DefaultMaxPasswordBytes bounds the work a single hash can cost.
	DefaultMaxPasswordBytes = 1024
)

var (
	ErrPasswordTooShort = errors.New("password: too short")
	ErrPasswordTooLong  = errors.New("password: too long")
	ErrInvalidHash      = errors.New("password: invalid encoded hash")
)

// Config holds argon2id cost parameters and the accepted input length.
type Config struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MinPasswordBytes int
	MaxPasswordBytes int
}

// DefaultConfig returns interactive-login parameters (64 MiB, t=3, p=2).
func DefaultConfig() Config {
	return Config{
		Memory:           64 * 1024,
		Time:             3,
		Parallelism:      2,
		SaltLength:       16,
		KeyLength:        32,
		MinPasswordBytes: DefaultMinPasswordBytes,
		MaxPasswordBytes: DefaultMaxPasswordBytes,
	}
}

// Argon2 hashes and verifies passwords in PHC string format.
type Argon2 struct {
	config Config
}

// cost is the parameter set encoded into a PHC string.
type cost struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func (c cost) String() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", c.memory, c.time, c.parallelism)
}

type phcHash struct {
	cost
	salt []byte
	key  []byte
}

func (h phcHash) derive(password string) []byte {
	return argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.parallelism, uint32(len(h.key)))
}

func (h phcHash) encode() string {
	enc := base64.RawStdEncoding
	return phcPrefix + fmt.Sprint(argon2.Version) + "$" + h.cost.String() +
		"$" + enc.EncodeToString(h.salt) + "$" + enc.EncodeToString(h.key)
}

func NewArgon2(cfg Config) (*Argon2, error) {
	if cfg.MinPasswordBytes <= 0 {
		cfg.MinPasswordBytes = DefaultMinPasswordBytes
	}
	if cfg.MaxPasswordBytes <= 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

func (a *Argon2) currentCost() cost {
	return cost{memory: a.config.Memory, time: a.config.Time, parallelism: a.config.Parallelism}
}

// Hash returns the encoded argon2id hash of password. Bytes are hashed as
// given, without Unicode normalization.
func (a *Argon2) Hash(password string) (string, error) {
	switch {
	case len(password) < a.config.MinPasswordBytes:
		return "", ErrPasswordTooShort
	case len(password) > a.config.MaxPasswordBytes:
		return "", ErrPasswordTooLong
	}

	h := phcHash{
		cost: a.currentCost(),
		salt: make([]byte, a.config.SaltLength),
		key:  make([]byte, a.config.KeyLength),
	}
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("password: salt: %w", err)
	}
	h.key = h.derive(password)
	return h.encode(), nil
}

// Verify reports whether password matches encodedHash using the parameters
// stored in the hash.
func (a *Argon2) Verify(password string, encodedHash string) (bool, error) {
	if len(password) > a.config.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}
	h, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(h.derive(password), h.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker
// parameters than the current configuration.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	h, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	want := a.currentCost()
	weaker := h.memory < want.memory || h.time < want.time || h.parallelism < want.parallelism
	return weaker || uint32(len(h.key)) != a.config.KeyLength, nil
}

func invalidHash(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidHash, reason)
}

// decodePHC accepts only the canonical form Hash produces.
func decodePHC(encoded string) (phcHash, error) {
	var h phcHash

	rest, ok := strings.CutPrefix(encoded, phcPrefix)
	if !ok {
		return h, invalidHash("algorithm")
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return h, invalidHash("format")
	}
	if fields[0] != fmt.Sprint(argon2.Version) {
		return h, invalidHash("version")
	}

	var m, t, p uint64
	if n, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil || n != 3 {
		return h, invalidHash("parameters")
	}
	if p > 255 {
		return h, invalidHash("parallelism")
	}
	h.cost = cost{memory: uint32(m), time: uint32(t), parallelism: uint8(p)}
	if uint64(h.memory) != m || uint64(h.time) != t || h.cost.String() != fields[1] {
		return h, invalidHash("parameters")
	}
	switch {
	case h.memory < minMemoryKB:
		return h, invalidHash("memory")
	case h.time < minTimeCost:
		return h, invalidHash("time")
	case h.parallelism < minParallelism:
		return h, invalidHash("parallelism")
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[2]); err != nil || len(h.salt) < int(minSaltLength) {
		return h, invalidHash("salt")
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[3]); err != nil || len(h.key) < int(minKeyLength) {
		return h, invalidHash("key")
	}
	return h, nil
}

func (c Config) validate() error {
	switch {
	case c.Memory < minMemoryKB:
		return fmt.Errorf("password: memory %d KB below minimum %d", c.Memory, minMemoryKB)
	case c.Time < minTimeCost:
		return fmt.Errorf("password: time cost %d below minimum %d", c.Time, minTimeCost)
	case c.Parallelism < minParallelism:
		return errors.New("password: parallelism must be at least 1")
	case c.SaltLength < minSaltLength:
		return fmt.Errorf("password: salt length %d below minimum %d", c.SaltLength, minSaltLength)
	case c.KeyLength < minKeyLength:
		return fmt.Errorf("password: key length %d below minimum %d", c.KeyLength, minKeyLength)
	case c.MinPasswordBytes > c.MaxPasswordBytes:
		return errors.New("password: min length exceeds max length")
	}
	return nil
}
