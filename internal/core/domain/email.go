package domain

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Email is a syntactically valid, trimmed address. Case is preserved.
type Email struct {
	address string
}

// ParseEmail validates raw and returns it trimmed of surrounding whitespace.
func ParseEmail(raw string) (Email, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" || !emailPattern.MatchString(addr) {
		return Email{}, ErrInvalidEmail
	}
	return Email{address: addr}, nil
}

// Address returns the stored address.
func (e Email) Address() string {
	return e.address
}

func (e Email) IsZero() bool {
	return e.address == ""
}
