// Package pin hashes and verifies numeric PINs.
//
// A stored record has the form "<salt>$<digest>" where salt is 16 random
// bytes in hex and digest is hex(sha256(salt + pin)).
package pin

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/dmitrijs2005/faceguard/internal/common"
)

const (
	MinLength = 4
	MaxLength = 8

	separator = "$"
	saltSize  = 16
)

// Validate checks that p is 4 to 8 ASCII digits.
func Validate(p string) error {
	if len(p) < MinLength || len(p) > MaxLength {
		return common.NewValidationError("PIN must be %d-%d digits", MinLength, MaxLength)
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return common.NewValidationError("PIN must contain digits only")
		}
	}
	return nil
}

// Hash validates p and returns a record salted with fresh randomness.
func Hash(p string) (string, error) {
	if err := Validate(p); err != nil {
		return "", err
	}
	salt, err := common.MakeRandHexString(saltSize)
	if err != nil {
		return "", err
	}
	return salt + separator + digest(salt, p), nil
}

// Verify reports whether p matches record. Malformed records never match.
func Verify(p, record string) bool {
	salt, want, ok := strings.Cut(record, separator)
	if !ok || salt == "" || want == "" {
		return false
	}
	got := digest(salt, p)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func digest(salt, p string) string {
	sum := sha256.Sum256([]byte(salt + p))
	return hex.EncodeToString(sum[:])
}
