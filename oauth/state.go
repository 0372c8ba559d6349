package oauth

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/clubAuth/internal"
)

const (
	// StateMaxAge bounds the time between issuing a state and its callback.
	StateMaxAge = 10 * time.Minute
	// stateClockSkew tolerates instances whose clocks run slightly behind
	// the one that issued the state.
	stateClockSkew = 30 * time.Second
)

// Provider names a social identity provider.
type Provider string

const (
	Google   Provider = "google"
	Facebook Provider = "facebook"
)

var (
	ErrStateMissing  = errors.New("oauth state missing")
	ErrStateExpired  = errors.New("oauth state expired")
	ErrStateMismatch = errors.New("oauth state mismatch")
)

// ParseProvider maps a case-insensitive name to a supported Provider.
func ParseProvider(value string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(value))) {
	case Google:
		return Google, true
	case Facebook:
		return Facebook, true
	default:
		return "", false
	}
}

// StatePayload is the state cookie content. CreatedAt is Unix milliseconds.
type StatePayload struct {
	Provider  Provider `json:"provider"`
	State     string   `json:"state"`
	ReturnTo  string   `json:"returnTo"`
	CreatedAt int64    `json:"createdAt"`
}

// GenerateState returns a fresh hex nonce.
func GenerateState() (string, error) {
	return internal.NewStateNonce()
}

// NewStatePayload builds a payload for provider with a fresh nonce.
func NewStatePayload(provider Provider, returnTo string, now time.Time) (*StatePayload, error) {
	state, err := GenerateState()
	if err != nil {
		return nil, err
	}
	return &StatePayload{
		Provider:  provider,
		State:     state,
		ReturnTo:  SanitizeReturnPath(returnTo),
		CreatedAt: now.UnixMilli(),
	}, nil
}

// Encode serializes p into a cookie-safe value.
func Encode(p StatePayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// rawState detects missing fields and wrong types.
type rawState struct {
	Provider  *string  `json:"provider"`
	State     *string  `json:"state"`
	ReturnTo  *string  `json:"returnTo"`
	CreatedAt *float64 `json:"createdAt"`
}

// Decode parses a cookie value. It reports false for malformed input, unknown
// providers, missing fields or fields of the wrong type. ReturnTo is sanitized.
func Decode(value string) (*StatePayload, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
	if err != nil {
		return nil, false
	}

	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	if raw.Provider == nil || raw.State == nil || raw.ReturnTo == nil || raw.CreatedAt == nil {
		return nil, false
	}
	if Provider(*raw.Provider) != Google && Provider(*raw.Provider) != Facebook {
		return nil, false
	}
	created := *raw.CreatedAt
	if math.IsNaN(created) || math.IsInf(created, 0) || created != math.Trunc(created) {
		return nil, false
	}

	return &StatePayload{
		Provider:  Provider(*raw.Provider),
		State:     *raw.State,
		ReturnTo:  SanitizeReturnPath(*raw.ReturnTo),
		CreatedAt: int64(created),
	}, true
}

// SanitizeReturnPath keeps value only when it is a same-origin absolute path.
// Anything else, including "//host", `/\host` and paths carrying control
// bytes that browsers strip, becomes "/".
func SanitizeReturnPath(value string) string {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "/") || strings.HasPrefix(value, "//") {
		return "/"
	}
	for i := 0; i < len(value); i++ {
		if c := value[i]; c < 0x20 || c == 0x7f || c == '\\' {
			return "/"
		}
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	return value
}

// Validate checks a decoded payload against the callback parameters.
func Validate(p *StatePayload, provider Provider, state string, now time.Time) error {
	if p == nil || state == "" {
		return ErrStateMissing
	}
	age := now.UnixMilli() - p.CreatedAt
	if age < -stateClockSkew.Milliseconds() || age > StateMaxAge.Milliseconds() {
		return ErrStateExpired
	}
	if p.Provider != provider {
		return ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(p.State), []byte(state)) != 1 {
		return ErrStateMismatch
	}
	return nil
}
