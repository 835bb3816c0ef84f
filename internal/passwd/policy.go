// Package passwd enforces the account password policy shared by the client
// (checked before submission) and the server (checked again on write).
package passwd

import (
	"strings"

	"github.com/dmitrijs2005/safelocker/internal/common"
)

// MinLength is the minimal number of characters in a password.
const MinLength = 8

// Symbols is the fixed set of accepted special characters.
const Symbols = "@$!%*?&"

// ErrInvalidPassword is returned for passwords violating the policy.
var ErrInvalidPassword = common.Invalid("Password must be at least 8 characters long, and include an uppercase letter, a lowercase letter, a number, and a symbol.")

// Validate checks that pw has at least MinLength characters drawn only from
// ASCII letters, digits and Symbols, with at least one of each class.
func Validate(pw string) error {
	if len(pw) < MinLength {
		return ErrInvalidPassword
	}

	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(Symbols, r):
			symbol = true
		default:
			return ErrInvalidPassword
		}
	}

	if !lower || !upper || !digit || !symbol {
		return ErrInvalidPassword
	}
	return nil
}
