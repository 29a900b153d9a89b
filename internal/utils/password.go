package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// NewVerificationCode returns a uniformly random six-digit code in
// [100000, 999999] drawn from crypto/rand.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// HashCode returns bcrypt hash of a verification code using the given cost.
func HashCode(code string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(code), cost)
}

// CompareCode safely compares a bcrypt hash and a submitted code.
func CompareCode(hash []byte, code string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(code)) == nil
}
