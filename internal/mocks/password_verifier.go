package mocks

import (
	"context"
	"errors"

	"github.com/phrazzld/capsule-api/internal/service/auth"
)

// ErrPasswordMismatch is returned by the default Compare implementation.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordVerifier implements auth.PasswordVerifier for testing without
// paying bcrypt cost. The default Hash prefixes the password with "hashed:"
// and Compare checks that prefix.
type MockPasswordVerifier struct {
	HashFn    func(ctx context.Context, password string) (string, error)
	CompareFn func(ctx context.Context, hashedPassword, password string) error

	CompareErr error
}

func (m *MockPasswordVerifier) Hash(ctx context.Context, password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(ctx, password)
	}
	return "hashed:" + password, nil
}

func (m *MockPasswordVerifier) Compare(ctx context.Context, hashedPassword, password string) error {
	if m.CompareFn != nil {
		return m.CompareFn(ctx, hashedPassword, password)
	}
	if m.CompareErr != nil {
		return m.CompareErr
	}
	if hashedPassword != "hashed:"+password {
		return ErrPasswordMismatch
	}
	return nil
}

var _ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)
