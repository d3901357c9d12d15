package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/theater-booking/internal/model"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordPolicy lists the strength rules a new password must satisfy.
type PasswordPolicy struct {
	MinLength      int
	RequireDigit   bool
	RequireLower   bool
	RequireUpper   bool
	RequireSymbol  bool
	MaxBcryptBytes int // bcrypt ignores input past 72 bytes
}

// DefaultPasswordPolicy mirrors the rules the seed accounts were created with.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      6,
		RequireDigit:   true,
		RequireLower:   true,
		RequireUpper:   true,
		RequireSymbol:  true,
		MaxBcryptBytes: 72,
	}
}

// Check returns a *model.CredentialFormatError listing every broken rule,
// or nil when the password is acceptable.
func (p PasswordPolicy) Check(password string) error {
	var problems []string
	if len([]rune(password)) < p.MinLength {
		problems = append(problems, "password is too short")
	}
	if p.MaxBcryptBytes > 0 && len(password) > p.MaxBcryptBytes {
		problems = append(problems, "password is too long")
	}
	var digit, lower, upper, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			symbol = true
		}
	}
	if p.RequireDigit && !digit {
		problems = append(problems, "password requires a digit")
	}
	if p.RequireLower && !lower {
		problems = append(problems, "password requires a lower-case letter")
	}
	if p.RequireUpper && !upper {
		problems = append(problems, "password requires an upper-case letter")
	}
	if p.RequireSymbol && !symbol {
		problems = append(problems, "password requires a non-alphanumeric character")
	}
	if len(problems) > 0 {
		return &model.CredentialFormatError{Problems: problems}
	}
	return nil
}

const usernameChars = "-._@+"

// MaxUsernameLength matches the width of users.username.
const MaxUsernameLength = 256

// CheckUsername rejects empty or overlong user names and characters
// outside letters, digits and -._@+.
func CheckUsername(name string) error {
	if name == "" {
		return &model.CredentialFormatError{Problems: []string{"username cannot be empty"}}
	}
	if utf8.RuneCountInString(name) > MaxUsernameLength {
		return &model.CredentialFormatError{Problems: []string{"username is longer than 256 characters"}}
	}
	for _, r := range name {
		if r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(usernameChars, r)) {
			continue
		}
		return &model.CredentialFormatError{Problems: []string{"username contains invalid characters"}}
	}
	return nil
}
