package session

import "strings"

// Mode is the authentication mode carried by a session token.
type Mode string

const (
	ModeGuest     Mode = "guest"
	ModeAnonymous Mode = "anonymous"
	ModeMember    Mode = "member"
	ModeAdmin     Mode = "admin"
)

// PayloadVersion is the only payload version Resolve accepts.
const PayloadVersion = 1

// Payload is the signed session claim set. Timestamps are Unix milliseconds.
type Payload struct {
	Version   int   `json:"v"`
	Mode      Mode  `json:"mode"`
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

// Issuable reports whether a token may carry m. Guest is the absence of a
// session and is never issued.
func (m Mode) Issuable() bool {
	switch m {
	case ModeAnonymous, ModeMember, ModeAdmin:
		return true
	default:
		return false
	}
}

// ParseMode maps a case-insensitive name to a Mode.
func ParseMode(value string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeGuest:
		return ModeGuest, true
	case ModeAnonymous:
		return ModeAnonymous, true
	case ModeMember:
		return ModeMember, true
	case ModeAdmin:
		return ModeAdmin, true
	default:
		return "", false
	}
}
