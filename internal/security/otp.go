package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPLength is the number of decimal digits in a recovery passcode.
const OTPLength = 6

// OTPValidity is how long an issued passcode stays valid.
const OTPValidity = 10 * time.Minute

// GenerateOTP returns a uniformly random fixed-width decimal passcode.
// Leading zeros are preserved because the code is handled as a string.
func GenerateOTP() (string, error) {
	digits := make([]byte, OTPLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// HashOTP hashes a passcode with the same salting scheme as passwords.
// The plaintext code is never stored.
func HashOTP(code string) (string, error) {
	return HashPassword(code)
}

// CheckOTP verifies a candidate passcode against the stored hash and expiry.
// It fails closed: missing state, a passed expiry, or a hash mismatch all
// return false.
func CheckOTP(hash *string, expires *time.Time, code string, now time.Time) bool {
	if hash == nil || expires == nil {
		return false
	}
	if now.After(*expires) {
		return false
	}
	return CheckPassword(*hash, code)
}
