package identity

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/creaturegame/internal/model"
)

// Stricter than RFC 5322 for practical use
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

const maxEmailLength = 254 // RFC 5321

// DefaultPasswordMinLength is the shortest password accepted at registration
const DefaultPasswordMinLength = 6

// ValidateEmail checks an email address for format and length
func ValidateEmail(email string) error {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return model.NewError(model.KindInvalidInput, "email address is required")
	}
	if len(normalized) > maxEmailLength {
		return model.Errorf(model.KindInvalidInput, "email address is too long (max %d characters)", maxEmailLength)
	}

	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized || !emailRegex.MatchString(addr.Address) {
		return model.ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordPolicy defines password requirements
type PasswordPolicy struct {
	MinLength int
}

// ValidatePassword checks a password against the policy
func (p PasswordPolicy) ValidatePassword(password string) error {
	if password == "" {
		return model.NewError(model.KindInvalidInput, "password is required")
	}
	if p.MinLength > 0 && utf8.RuneCountInString(password) < p.MinLength {
		return model.Errorf(model.KindInvalidInput, "password must be at least %d characters long", p.MinLength)
	}
	return nil
}
