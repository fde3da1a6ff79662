package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// otpSpace is the number of distinct 6-digit codes, 000000 through 999999
var otpSpace = big.NewInt(1000000)

// GenerateSecureOTP generates a cryptographically secure, uniformly distributed 6-digit OTP
func GenerateSecureOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	// Leading zeros are part of the code
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateSecureToken returns a random hex token of 2*size characters, used for email links
func GenerateSecureToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
