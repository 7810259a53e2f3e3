package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/mocks"
	"github.com/phrazzld/capsule-api/internal/platform/googleauth"
	"github.com/phrazzld/capsule-api/internal/service/auth"
	"github.com/phrazzld/capsule-api/internal/store"
)

const testPassword = "a-long-enough-password"

func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type userServiceFixture struct {
	db        *sql.DB
	dbMock    sqlmock.Sqlmock
	users     *mocks.MockUserStore
	jwt       *mocks.MockJWTService
	passwords *mocks.MockPasswordVerifier
	otp       *mocks.MockOTPGenerator
	mailer    *mocks.MockMailer
	google    *mocks.MockGoogleVerifier
	service   *UserServiceImpl
}

func newUserServiceFixture(t *testing.T) *userServiceFixture {
	t.Helper()
	db, dbMock := newTxDB(t)

	f := &userServiceFixture{
		db:        db,
		dbMock:    dbMock,
		users:     mocks.NewMockUserStore(),
		jwt:       &mocks.MockJWTService{Token: "access-token", RefreshToken: "refresh-token"},
		passwords: &mocks.MockPasswordVerifier{},
		otp:       &mocks.MockOTPGenerator{Code: "654321"},
		mailer:    &mocks.MockMailer{},
		google:    &mocks.MockGoogleVerifier{},
	}
	f.service = NewUserService(db, f.users, f.jwt, f.passwords, f.otp,
		f.mailer, f.google, 10*time.Minute, nil)
	return f
}

// activeUser seeds the fixture with a verified account and returns it.
func (f *userServiceFixture) activeUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, "Test User", testPassword)
	require.NoError(t, err)
	user.HashedPassword = "hashed:" + testPassword
	user.Password = ""
	user.IsActive = true
	f.users.Users[user.Email] = user
	return user
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates inactive user and sends verification code", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		user, err := f.service.Register(context.Background(), "alice@example.com", "Alice", testPassword, nil)
		require.NoError(t, err)

		assert.False(t, user.IsActive)
		assert.Equal(t, "654321", user.OTPCode)
		require.NotNil(t, user.OTPCreatedAt)

		require.Equal(t, 1, f.mailer.SentCount())
		assert.Equal(t, "alice@example.com", f.mailer.Sent[0].To)
		assert.Equal(t, "654321", f.mailer.Sent[0].Code)
		assert.Equal(t, "otp", f.mailer.Sent[0].Kind)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.activeUser(t, "alice@example.com")
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		_, err := f.service.Register(context.Background(), "alice@example.com", "Alice", testPassword, nil)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("mail failure does not undo registration", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.mailer.Err = errors.New("smtp down")
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		user, err := f.service.Register(context.Background(), "bob@example.com", "Bob", testPassword, nil)
		require.NoError(t, err)
		assert.NotNil(t, f.users.Users[user.Email])
	})
}

func TestVerifyOTP(t *testing.T) {
	t.Parallel()

	pendingUser := func(t *testing.T, f *userServiceFixture, code string, createdAt time.Time) *domain.User {
		t.Helper()
		user, err := domain.NewUser("carol@example.com", "Carol", testPassword)
		require.NoError(t, err)
		user.HashedPassword = "hashed:" + testPassword
		user.Password = ""
		user.SetOTP(code, createdAt)
		f.users.Users[user.Email] = user
		return user
	}

	t.Run("activates the account", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		pendingUser(t, f, "654321", time.Now())

		user, err := f.service.VerifyOTP(context.Background(), "carol@example.com", "654321")
		require.NoError(t, err)
		assert.True(t, user.IsActive)
		assert.Empty(t, user.OTPCode)
		assert.Nil(t, user.OTPCreatedAt)
	})

	t.Run("wrong code", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		pendingUser(t, f, "654321", time.Now())

		_, err := f.service.VerifyOTP(context.Background(), "carol@example.com", "111111")
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("expired code is discarded on the attempt", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		user := pendingUser(t, f, "654321", time.Now().Add(-time.Hour))

		_, err := f.service.VerifyOTP(context.Background(), "carol@example.com", "654321")
		assert.ErrorIs(t, err, ErrExpiredOTP)
		assert.Empty(t, user.OTPCode, "stale code must not remain matchable")
		assert.Nil(t, user.OTPCreatedAt)
	})

	t.Run("already verified", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.activeUser(t, "carol@example.com")

		_, err := f.service.VerifyOTP(context.Background(), "carol@example.com", "654321")
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)

		_, err := f.service.VerifyOTP(context.Background(), "nobody@example.com", "654321")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("returns token pair for verified user", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "dave@example.com")

		tokens, user, err := f.service.Login(context.Background(), "dave@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, "access-token", tokens.AccessToken)
		assert.Equal(t, "refresh-token", tokens.RefreshToken)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("email lookup ignores case", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "dave@example.com")

		_, user, err := f.service.Login(context.Background(), "Dave@Example.COM", testPassword)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.activeUser(t, "dave@example.com")

		_, _, err := f.service.Login(context.Background(), "dave@example.com", "wrong-password-here")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)

		_, _, err := f.service.Login(context.Background(), "nobody@example.com", testPassword)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified account", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		user := f.activeUser(t, "eve@example.com")
		user.IsActive = false

		_, _, err := f.service.Login(context.Background(), "eve@example.com", testPassword)
		assert.ErrorIs(t, err, ErrAccountNotVerified)
	})

	t.Run("sso account with no password", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		user, err := domain.NewSSOUser("frank@example.com", "Frank")
		require.NoError(t, err)
		f.users.Users[user.Email] = user

		_, _, err = f.service.Login(context.Background(), "frank@example.com", testPassword)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestGoogleLogin(t *testing.T) {
	t.Parallel()

	t.Run("provisions unknown email", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.google.Identity = &googleauth.Identity{Email: "grace@example.com", Name: "Grace"}
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		tokens, user, err := f.service.GoogleLogin(context.Background(), "google-id-token")
		require.NoError(t, err)
		assert.Equal(t, "access-token", tokens.AccessToken)
		assert.True(t, user.IsActive)
		assert.Empty(t, user.HashedPassword)
		assert.NotNil(t, f.users.Users["grace@example.com"])
	})

	t.Run("reactivates unverified account", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "heidi@example.com")
		seeded.IsActive = false
		seeded.SetOTP("654321", time.Now())
		f.google.Identity = &googleauth.Identity{Email: "heidi@example.com", Name: "Heidi"}

		_, user, err := f.service.GoogleLogin(context.Background(), "google-id-token")
		require.NoError(t, err)
		assert.True(t, user.IsActive)
		assert.Empty(t, user.OTPCode)
	})

	t.Run("existing active account", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "ivan@example.com")
		f.google.Identity = &googleauth.Identity{Email: "ivan@example.com", Name: "Ivan"}

		_, user, err := f.service.GoogleLogin(context.Background(), "google-id-token")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("invalid token", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.google.Err = googleauth.ErrInvalidToken

		_, _, err := f.service.GoogleLogin(context.Background(), "bad-token")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unconfigured verifier is not an auth failure", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.google.Err = googleauth.ErrNotConfigured

		_, _, err := f.service.GoogleLogin(context.Background(), "google-id-token")
		assert.ErrorIs(t, err, googleauth.ErrNotConfigured)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefreshTokens(t *testing.T) {
	t.Parallel()

	t.Run("issues new pair", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.jwt.Claims = &auth.Claims{UserID: uuid.New(), TokenType: auth.RefreshTokenType}

		tokens, err := f.service.RefreshTokens(context.Background(), "refresh-token")
		require.NoError(t, err)
		assert.Equal(t, "access-token", tokens.AccessToken)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.jwt.ValidateErr = auth.ErrExpiredRefreshToken

		_, err := f.service.RefreshTokens(context.Background(), "stale-token")
		assert.ErrorIs(t, err, auth.ErrExpiredRefreshToken)
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	f := newUserServiceFixture(t)
	seeded := f.activeUser(t, "judy@example.com")

	newName := "Judy Q"
	newBio := "time traveler"
	dob := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)

	user, err := f.service.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{
		Name: &newName,
		Bio:  &newBio,
		DOB:  &dob,
	})
	require.NoError(t, err)
	assert.Equal(t, "Judy Q", user.Name)
	assert.Equal(t, "time traveler", user.Bio)
	require.NotNil(t, user.DOB)
	assert.Equal(t, dob, *user.DOB)

	// Nil fields leave existing values in place.
	user, err = f.service.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Judy Q", user.Name)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	t.Run("replaces the password", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "kim@example.com")

		err := f.service.ChangePassword(context.Background(), seeded.ID, testPassword, "a-brand-new-password")
		require.NoError(t, err)
		assert.Equal(t, "a-brand-new-password", f.users.Users["kim@example.com"].Password)
	})

	t.Run("wrong old password", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "kim@example.com")

		err := f.service.ChangePassword(context.Background(), seeded.ID, "not-the-password", "a-brand-new-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("new password equals old", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "kim@example.com")

		err := f.service.ChangePassword(context.Background(), seeded.ID, testPassword, testPassword)
		assert.ErrorIs(t, err, ErrSamePassword)
	})
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("request then confirm", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "lara@example.com")

		require.NoError(t, f.service.RequestPasswordReset(context.Background(), "lara@example.com"))
		require.Equal(t, 1, f.mailer.SentCount())
		assert.Equal(t, "password_reset", f.mailer.Sent[0].Kind)
		assert.Equal(t, "654321", seeded.OTPCode)

		err := f.service.ConfirmPasswordReset(context.Background(), "lara@example.com", "654321", "a-brand-new-password")
		require.NoError(t, err)
		assert.Equal(t, "a-brand-new-password", seeded.Password)
		assert.Empty(t, seeded.OTPCode)
	})

	t.Run("verify leaves code usable", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "lara@example.com")
		seeded.SetOTP("654321", time.Now())

		require.NoError(t, f.service.VerifyPasswordResetOTP(context.Background(), "lara@example.com", "654321"))
		assert.Equal(t, "654321", seeded.OTPCode)

		err := f.service.VerifyPasswordResetOTP(context.Background(), "lara@example.com", "000000")
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("wrong reset code", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "lara@example.com")
		seeded.SetOTP("654321", time.Now())

		err := f.service.ConfirmPasswordReset(context.Background(), "lara@example.com", "999999", "a-brand-new-password")
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("expired reset code", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "lara@example.com")
		seeded.SetOTP("654321", time.Now().Add(-time.Hour))

		err := f.service.ConfirmPasswordReset(context.Background(), "lara@example.com", "654321", "a-brand-new-password")
		assert.ErrorIs(t, err, ErrExpiredOTP)
		assert.Empty(t, seeded.OTPCode, "stale code must not remain matchable")
	})

	t.Run("verify discards an expired code", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		seeded := f.activeUser(t, "lara@example.com")
		seeded.SetOTP("654321", time.Now().Add(-time.Hour))

		err := f.service.VerifyPasswordResetOTP(context.Background(), "lara@example.com", "654321")
		assert.ErrorIs(t, err, ErrExpiredOTP)
		assert.Empty(t, seeded.OTPCode)
		assert.Nil(t, seeded.OTPCreatedAt)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)

		err := f.service.RequestPasswordReset(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}
