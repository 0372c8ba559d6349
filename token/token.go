package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret is returned by Sign when no signing key is supplied.
var ErrEmptySecret = errors.New("token: signing secret is empty")

var (
	method = jwt.SigningMethodHS256
	// strict rejects non-canonical trailing bits so every token has exactly
	// one accepted spelling.
	strict = base64.RawURLEncoding.Strict()
)

// Sign encodes payload as JSON and returns "<payload>.<signature>".
func Sign(payload any, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)

	sig, err := method.Sign(encoded, secret)
	if err != nil {
		return "", err
	}
	return encoded + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify checks the signature of token and decodes its payload into out,
// which must be a pointer. It reports false for any malformed, tampered or
// non-object token, leaving out in an unspecified state.
func Verify(token string, secret []byte, out any) bool {
	if len(secret) == 0 {
		return false
	}

	encoded, sigPart, ok := strings.Cut(token, ".")
	if !ok || !isSegment(encoded) || !isSegment(sigPart) {
		return false
	}

	sig, err := strict.DecodeString(sigPart)
	if err != nil {
		return false
	}
	if err := method.Verify(encoded, sig, secret); err != nil {
		return false
	}

	raw, err := strict.DecodeString(encoded)
	if err != nil {
		return false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// isSegment reports whether s is non-empty and uses only the base64url
// alphabet. The decoder alone would skip CR and LF.
func isSegment(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
