package mocks

import (
	"context"

	"github.com/phrazzld/capsule-api/internal/platform/googleauth"
)

// MockGoogleVerifier implements the service GoogleVerifier interface.
type MockGoogleVerifier struct {
	VerifyFn func(ctx context.Context, token string) (*googleauth.Identity, error)

	Identity *googleauth.Identity
	Err      error
}

func (m *MockGoogleVerifier) Verify(ctx context.Context, token string) (*googleauth.Identity, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, token)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Identity, nil
}
