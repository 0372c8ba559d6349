package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	challengeIDSize = 32
	stateNonceSize  = 24

	// CodeDigits is the length of a two-factor verification code.
	CodeDigits = 6
)

// NewChallengeID returns 32 random bytes encoded as base64url without padding.
func NewChallengeID() (string, error) {
	var raw [challengeIDSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// NewStateNonce returns 24 random bytes hex encoded.
func NewStateNonce() (string, error) {
	var raw [stateNonceSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// NewCode returns a uniformly random six digit code in [100000, 999999].
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)
	if len(code) != CodeDigits {
		return "", errors.New("invalid code generation length")
	}
	return code, nil
}

// HashCode returns the SHA-256 digest of a trimmed code.
func HashCode(code string) [32]byte {
	return sha256.Sum256([]byte(strings.TrimSpace(code)))
}

// IsCode reports whether value is exactly CodeDigits ASCII digits.
func IsCode(value string) bool {
	if len(value) != CodeDigits {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
