package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2-HMAC-SHA256 parameters.
const (
	DefaultIterations = 100_000
	SaltSize          = 16
	KeySize           = 32
	MinPasswordLength = 6

	// maxIterations bounds the work a tampered stored value can demand.
	maxIterations = 10_000_000
)

// PasswordHash is an encoded PBKDF2 digest: "<iterations>:<b64 salt>:<b64 key>".
// The plaintext is never retained.
type PasswordHash struct {
	encoded string
}

// NewPasswordHash validates plain and derives a hash with DefaultIterations.
func NewPasswordHash(plain string) (PasswordHash, error) {
	return NewPasswordHashWithIterations(plain, DefaultIterations)
}

// NewPasswordHashWithIterations validates plain and derives a hash with the
// given iteration count. A non-positive count falls back to DefaultIterations.
func NewPasswordHashWithIterations(plain string, iterations int) (PasswordHash, error) {
	if err := CheckPasswordPolicy(plain); err != nil {
		return PasswordHash{}, err
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return PasswordHash{}, fmt.Errorf("password salt: %w", err)
	}
	key := pbkdf2.Key([]byte(plain), salt, iterations, KeySize, sha256.New)

	return PasswordHash{encoded: strings.Join([]string{
		strconv.Itoa(iterations),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	}, ":")}, nil
}

// PasswordHashFromEncoded wraps a stored value without re-deriving or
// validating it. Malformed values simply never verify.
func PasswordHashFromEncoded(encoded string) PasswordHash {
	return PasswordHash{encoded: encoded}
}

// Verify reports whether candidate derives to the stored key. It returns false
// for malformed stored values and compares keys in constant time.
func (p PasswordHash) Verify(candidate string) bool {
	iterations, salt, key, ok := p.decode()
	if !ok {
		return false
	}
	derived := pbkdf2.Key([]byte(candidate), salt, iterations, len(key), sha256.New)
	return subtle.ConstantTimeCompare(derived, key) == 1
}

// WellFormed reports whether the stored value parses into its three fields.
func (p PasswordHash) WellFormed() bool {
	_, _, _, ok := p.decode()
	return ok
}

// Encoded returns the storable representation.
func (p PasswordHash) Encoded() string {
	return p.encoded
}

func (p PasswordHash) IsZero() bool {
	return p.encoded == ""
}

// String keeps hashes out of logs and formatted output.
func (p PasswordHash) String() string {
	return "[REDACTED]"
}

func (p PasswordHash) decode() (iterations int, salt, key []byte, ok bool) {
	parts := strings.Split(p.encoded, ":")
	if len(parts) != 3 {
		return 0, nil, nil, false
	}
	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations <= 0 || iterations > maxIterations {
		return 0, nil, nil, false
	}
	salt, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, false
	}
	key, err = base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, false
	}
	return iterations, salt, key, true
}

// CheckPasswordPolicy applies the length and complexity rules without deriving
// anything.
func CheckPasswordPolicy(plain string) error {
	if strings.TrimSpace(plain) == "" || utf8.RuneCountInString(plain) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	var hasLetter, hasDigit bool
	for _, r := range plain {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrPasswordTooWeak
	}
	return nil
}
