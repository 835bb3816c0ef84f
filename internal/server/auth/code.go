package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/dmitrijs2005/safelocker/internal/common"
)

// CodeLength is the number of digits in a one-time code.
const CodeLength = 6

// NewCode returns a fresh one-time code together with the hash to store.
func NewCode() (code, hash string, err error) {
	code, err = common.MakeRandDigits(CodeLength)
	if err != nil {
		return "", "", err
	}
	return code, HashCode(code), nil
}

// HashCode is the hex SHA-256 of code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// CodeMatches reports whether code hashes to hash.
func CodeMatches(hash, code string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(HashCode(code))) == 1
}
