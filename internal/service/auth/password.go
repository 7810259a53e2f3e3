package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier abstracts password hashing and comparison so service code
// can be tested without paying bcrypt cost.
type PasswordVerifier interface {
	// Hash converts a plaintext password into a storable hash.
	Hash(ctx context.Context, password string) (string, error)

	// Compare checks a plaintext password against a stored hash. A nil error
	// means the password matches.
	Compare(ctx context.Context, hashedPassword, password string) error
}

// BcryptVerifier implements PasswordVerifier with bcrypt.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier creates a BcryptVerifier. A cost at or below zero falls
// back to bcrypt.DefaultCost.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

func (v *BcryptVerifier) Hash(ctx context.Context, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (v *BcryptVerifier) Compare(ctx context.Context, hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
