package mocks

import "github.com/phrazzld/capsule-api/internal/service/auth"

// MockOTPGenerator implements auth.OTPGenerator for testing. The default
// returns a fixed code.
type MockOTPGenerator struct {
	GenerateFn func() (string, error)

	Code string
	Err  error
}

func (m *MockOTPGenerator) Generate() (string, error) {
	if m.GenerateFn != nil {
		return m.GenerateFn()
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Code == "" {
		return "123456", nil
	}
	return m.Code, nil
}

var _ auth.OTPGenerator = (*MockOTPGenerator)(nil)
