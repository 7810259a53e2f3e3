package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		userName string
		password string
		wantErr  error
	}{
		{
			name:     "valid user",
			email:    "test@example.com",
			userName: "Test User",
			password: "securepassword12",
			wantErr:  nil,
		},
		{
			name:     "empty email",
			email:    "",
			userName: "Test User",
			password: "securepassword12",
			wantErr:  ErrEmptyEmail,
		},
		{
			name:     "invalid email",
			email:    "not-an-email",
			userName: "Test User",
			password: "securepassword12",
			wantErr:  ErrInvalidEmail,
		},
		{
			name:     "password too short",
			email:    "test@example.com",
			userName: "Test User",
			password: "short",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "password too long",
			email:    "test@example.com",
			userName: "Test User",
			password: string(make([]byte, 80)),
			wantErr:  ErrPasswordTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := NewUser(tt.email, tt.userName, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.email, user.Email)
			assert.Equal(t, tt.userName, user.Name)
			assert.False(t, user.IsActive, "new users must start unverified")
			assert.Empty(t, user.OTPCode)
		})
	}

	t.Run("normalizes email", func(t *testing.T) {
		t.Parallel()
		user, err := NewUser("  Alice@Example.COM ", "Alice", "a-long-password")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
	})
}

func TestNewSSOUser(t *testing.T) {
	t.Parallel()

	user, err := NewSSOUser("SSO@Example.com", "SSO User")
	require.NoError(t, err)
	assert.True(t, user.IsActive, "SSO users are active immediately")
	assert.Empty(t, user.HashedPassword)
	assert.Equal(t, "sso@example.com", user.Email)

	// SSO users without a password still validate.
	require.NoError(t, user.Validate())

	_, err = NewSSOUser("bad-email", "SSO User")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestUserOTPLifecycle(t *testing.T) {
	t.Parallel()

	user, err := NewUser("otp@example.com", "OTP User", "securepassword12")
	require.NoError(t, err)

	now := time.Now().UTC()
	user.SetOTP("123456", now)
	assert.Equal(t, "123456", user.OTPCode)
	require.NotNil(t, user.OTPCreatedAt)

	// Fresh OTP is valid within the window.
	assert.False(t, user.OTPExpired(now.Add(5*time.Minute), 10*time.Minute))

	// Past the validity window it expires.
	assert.True(t, user.OTPExpired(now.Add(11*time.Minute), 10*time.Minute))

	user.ClearOTP()
	assert.Empty(t, user.OTPCode)
	assert.Nil(t, user.OTPCreatedAt)

	// No pending OTP is treated as expired.
	assert.True(t, user.OTPExpired(now, 10*time.Minute))
}
