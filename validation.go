package clubAuth

import (
	"net/mail"
	"strings"

	"github.com/MrEthical07/clubAuth/internal"
	"github.com/MrEthical07/clubAuth/internal/stores"
)

const (
	maxEmailBytes         = 254
	minRegisterPassword   = 6
	maxPasswordInputBytes = 1024
)

func validEmail(email string) bool {
	if email == "" || len(email) > maxEmailBytes {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	_, domain, ok := strings.Cut(email, "@")
	return ok && strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

func validateLogin(in LoginInput) (LoginInput, error) {
	in.Email = stores.NormalizeEmail(in.Email)

	var verr ValidationError
	if !validEmail(in.Email) {
		verr.add("email", "enter a valid email address")
	}
	if in.Password == "" {
		verr.add("password", "enter a password")
	} else if len(in.Password) > maxPasswordInputBytes {
		verr.add("password", "password is too long")
	}
	return in, verr.orNil()
}

func validateRegistration(in RegistrationInput) (RegistrationInput, error) {
	in.Email = stores.NormalizeEmail(in.Email)

	var verr ValidationError
	if !validEmail(in.Email) {
		verr.add("email", "enter a valid email address")
	}
	switch {
	case len(in.Password) < minRegisterPassword:
		verr.add("password", "password must be at least 6 characters")
	case len(in.Password) > maxPasswordInputBytes:
		verr.add("password", "password is too long")
	}
	if in.ConfirmPassword == "" {
		verr.add("confirmPassword", "confirm the password")
	} else if in.ConfirmPassword != in.Password {
		verr.add("confirmPassword", "passwords do not match")
	}
	return in, verr.orNil()
}

// normalizeCode trims surrounding space and reports whether the rest is a
// six digit code.
func normalizeCode(code string) (string, bool) {
	code = strings.TrimSpace(code)
	return code, internal.IsCode(code)
}

// MaskEmail keeps the first two characters of the local part, or one when
// it is two characters or shorter: "alice@example.com" -> "al***@example.com".
func MaskEmail(email string) string {
	normalized := stores.NormalizeEmail(email)
	name, domain, ok := strings.Cut(normalized, "@")
	if !ok || name == "" || domain == "" {
		return normalized
	}

	runes := []rune(name)
	if len(runes) <= 2 {
		return string(runes[0]) + "*@" + domain
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-2) + "@" + domain
}
