package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// otpDigits is the length of generated one-time passcodes.
const otpDigits = 6

// OTPGenerator produces one-time passcodes for account verification and
// password reset emails.
type OTPGenerator interface {
	Generate() (string, error)
}

// RandomOTPGenerator generates numeric codes with crypto/rand.
type RandomOTPGenerator struct{}

// NewRandomOTPGenerator creates an OTPGenerator backed by crypto/rand.
func NewRandomOTPGenerator() *RandomOTPGenerator {
	return &RandomOTPGenerator{}
}

// Generate returns a zero-padded numeric code of otpDigits digits.
func (g *RandomOTPGenerator) Generate() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate passcode: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}
