package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tms/tms-backend/pkg/errors"
)

// MaxDescriptionLength caps descriptions and audit entries, in characters.
const MaxDescriptionLength = 1000

// MaxNameLength caps employee names, in characters.
const MaxNameLength = 100

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// SanitizeDescription trims s and truncates it to MaxDescriptionLength characters.
func SanitizeDescription(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxDescriptionLength {
		return s
	}
	return string([]rune(s)[:MaxDescriptionLength])
}

// NormalizeName trims name and checks it is present and not too long.
func NormalizeName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.Invalid(field, "this field is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", errors.Invalid(field, "must be at most 100 characters")
	}
	return name, nil
}

// NormalizeEmail trims email and checks its shape. A missing email is a
// validation error, a malformed one is unprocessable.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.Invalid("email", "this field is required")
	}
	if !emailPattern.MatchString(email) {
		return "", errors.Unprocessable("email", "must be a valid email address")
	}
	return email, nil
}
