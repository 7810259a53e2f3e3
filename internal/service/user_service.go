package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/platform/googleauth"
	"github.com/phrazzld/capsule-api/internal/service/auth"
	"github.com/phrazzld/capsule-api/internal/store"
)

// TokenPair is the access and refresh token returned by authentication
// operations.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ProfileUpdate carries the fields of a partial profile update. Nil fields
// are left unchanged.
type ProfileUpdate struct {
	Name *string
	Bio  *string
	DOB  *time.Time
}

// OTPMailer sends one-time passcodes for account verification and password
// resets. Implemented by the mail package.
type OTPMailer interface {
	SendOTP(to, name, code string, validity time.Duration) error
	SendPasswordResetOTP(to, name, code string, validity time.Duration) error
}

// GoogleVerifier validates Google ID tokens. Implemented by the googleauth
// package.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*googleauth.Identity, error)
}

// UserService provides registration, authentication, and profile operations.
type UserService interface {
	// Register creates an inactive account and emails a verification code.
	// A nil dob leaves the date of birth unset.
	Register(ctx context.Context, email, name, password string, dob *time.Time) (*domain.User, error)

	// VerifyOTP activates an account using the emailed verification code.
	// Returns ErrInvalidOTP, ErrExpiredOTP, or ErrAlreadyVerified.
	VerifyOTP(ctx context.Context, email, code string) (*domain.User, error)

	// ResendOTP generates and emails a fresh verification code for an
	// inactive account. Returns ErrAlreadyVerified for active accounts.
	ResendOTP(ctx context.Context, email string) error

	// Login authenticates with email and password and returns a token pair.
	// Returns ErrInvalidCredentials or ErrAccountNotVerified.
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error)

	// GoogleLogin authenticates with a Google ID token, provisioning or
	// reactivating the account as needed.
	GoogleLogin(ctx context.Context, idToken string) (*TokenPair, *domain.User, error)

	// RefreshTokens exchanges a valid refresh token for a new token pair.
	RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error)

	// GetProfile retrieves the profile of the given user.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateProfile applies a partial update to the user's profile.
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*domain.User, error)

	// ChangePassword replaces the user's password after checking the old
	// one. Returns ErrInvalidCredentials or ErrSamePassword.
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error

	// RequestPasswordReset emails a reset code to the account.
	RequestPasswordReset(ctx context.Context, email string) error

	// VerifyPasswordResetOTP checks a reset code without consuming it, so
	// clients can validate the code before collecting the new password.
	// Returns ErrInvalidOTP or ErrExpiredOTP.
	VerifyPasswordResetOTP(ctx context.Context, email, code string) error

	// ConfirmPasswordReset sets a new password using the emailed reset
	// code. Returns ErrInvalidOTP or ErrExpiredOTP.
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	db             *sql.DB
	userStore      store.UserStore
	jwtService     auth.JWTService
	passwords      auth.PasswordVerifier
	otpGenerator   auth.OTPGenerator
	mailer         OTPMailer
	googleVerifier GoogleVerifier
	otpValidity    time.Duration
	logger         *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	db *sql.DB,
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwords auth.PasswordVerifier,
	otpGenerator auth.OTPGenerator,
	mailer OTPMailer,
	googleVerifier GoogleVerifier,
	otpValidity time.Duration,
	logger *slog.Logger,
) *UserServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		db:             db,
		userStore:      userStore,
		jwtService:     jwtService,
		passwords:      passwords,
		otpGenerator:   otpGenerator,
		mailer:         mailer,
		googleVerifier: googleVerifier,
		otpValidity:    otpValidity,
		logger:         logger.With(slog.String("component", "user_service")),
	}
}

// Register creates an inactive account and emails a verification code. The
// account stays unusable for login until the code is verified.
func (s *UserServiceImpl) Register(ctx context.Context, email, name, password string, dob *time.Time) (*domain.User, error) {
	user, err := domain.NewUser(email, name, password)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.DOB = dob

	code, err := s.otpGenerator.Generate()
	if err != nil {
		s.logger.Error("failed to generate verification code", "error", err)
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	user.SetOTP(code, time.Now())

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to register existing email", "email", email)
		} else {
			s.logger.Error("failed to save user", "error", err, "email", email)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	// A lost email is recoverable through the resend endpoint, so mail
	// failures do not undo the registration.
	if err := s.mailer.SendOTP(user.Email, user.Name, code, s.otpValidity); err != nil {
		s.logger.Error("failed to send verification email",
			"error", err,
			"user_id", user.ID)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// VerifyOTP activates an account using the emailed verification code.
func (s *UserServiceImpl) VerifyOTP(ctx context.Context, email, code string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if user.IsActive {
		return nil, ErrAlreadyVerified
	}
	if user.OTPCode == "" || user.OTPCode != code {
		return nil, ErrInvalidOTP
	}
	if user.OTPExpired(time.Now(), s.otpValidity) {
		s.discardExpiredOTP(ctx, user)
		return nil, ErrExpiredOTP
	}

	user.IsActive = true
	user.ClearOTP()
	user.UpdatedAt = time.Now().UTC()

	if err := s.userStore.Update(ctx, user); err != nil {
		s.logger.Error("failed to activate user", "error", err, "user_id", user.ID)
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}

	s.logger.Info("user verified", "user_id", user.ID)
	return user, nil
}

// ResendOTP generates and emails a fresh verification code.
func (s *UserServiceImpl) ResendOTP(ctx context.Context, email string) error {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user.IsActive {
		return ErrAlreadyVerified
	}

	code, err := s.otpGenerator.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}
	user.SetOTP(code, time.Now())
	user.UpdatedAt = time.Now().UTC()

	if err := s.userStore.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.mailer.SendOTP(user.Email, user.Name, code, s.otpValidity); err != nil {
		s.logger.Error("failed to send verification email",
			"error", err,
			"user_id", user.ID)
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// Login authenticates with email and password.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if user.HashedPassword == "" {
		// SSO-only accounts have no local password.
		return nil, nil, ErrInvalidCredentials
	}
	if err := s.passwords.Compare(ctx, user.HashedPassword, password); err != nil {
		s.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, ErrAccountNotVerified
	}

	tokens, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return tokens, user, nil
}

// GoogleLogin authenticates with a Google ID token. Unknown emails are
// provisioned as active accounts; inactive accounts are reactivated because
// Google has already verified the address.
func (s *UserServiceImpl) GoogleLogin(ctx context.Context, idToken string) (*TokenPair, *domain.User, error) {
	identity, err := s.googleVerifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, googleauth.ErrNotConfigured) {
			return nil, nil, err
		}
		s.logger.Debug("google token verification failed", "error", err)
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(identity.Email))
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		user, err = domain.NewSSOUser(identity.Email, identity.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to provision user: %w", err)
		}
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return s.userStore.WithTx(tx).Create(ctx, user)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to provision user: %w", err)
		}
		s.logger.Info("provisioned user from google identity", "user_id", user.ID)

	case err != nil:
		return nil, nil, fmt.Errorf("failed to retrieve user: %w", err)

	case !user.IsActive:
		user.IsActive = true
		user.ClearOTP()
		user.UpdatedAt = time.Now().UTC()
		if err := s.userStore.Update(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("failed to reactivate user: %w", err)
		}
		s.logger.Info("reactivated user via google identity", "user_id", user.ID)
	}

	tokens, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// RefreshTokens exchanges a valid refresh token for a new token pair.
func (s *UserServiceImpl) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, claims.UserID)
}

// GetProfile retrieves the profile of the given user.
func (s *UserServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the user's profile.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.DOB != nil {
		dob := update.DOB.UTC()
		user.DOB = &dob
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userStore.Update(ctx, user); err != nil {
		s.logger.Error("failed to update profile", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Debug("profile updated", "user_id", userID)
	return user, nil
}

// ChangePassword replaces the user's password after checking the old one.
func (s *UserServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	if user.HashedPassword == "" {
		return ErrInvalidCredentials
	}
	if err := s.passwords.Compare(ctx, user.HashedPassword, oldPassword); err != nil {
		return ErrInvalidCredentials
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}

	user.Password = newPassword
	user.UpdatedAt = time.Now().UTC()

	if err := s.userStore.Update(ctx, user); err != nil {
		s.logger.Error("failed to change password", "error", err, "user_id", userID)
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// RequestPasswordReset emails a reset code to the account.
func (s *UserServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	code, err := s.otpGenerator.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}
	user.SetOTP(code, time.Now())
	user.UpdatedAt = time.Now().UTC()

	if err := s.userStore.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	if err := s.mailer.SendPasswordResetOTP(user.Email, user.Name, code, s.otpValidity); err != nil {
		s.logger.Error("failed to send password reset email",
			"error", err,
			"user_id", user.ID)
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	s.logger.Info("password reset requested", "user_id", user.ID)
	return nil
}

// VerifyPasswordResetOTP checks a reset code without consuming it.
func (s *UserServiceImpl) VerifyPasswordResetOTP(ctx context.Context, email, code string) error {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	if user.OTPCode == "" || user.OTPCode != code {
		return ErrInvalidOTP
	}
	if user.OTPExpired(time.Now(), s.otpValidity) {
		s.discardExpiredOTP(ctx, user)
		return ErrExpiredOTP
	}
	return nil
}

// discardExpiredOTP removes a stale code once an attempt reveals it has
// expired, so it cannot linger as matchable state. The caller still reports
// ErrExpiredOTP; a persistence failure here is only logged.
func (s *UserServiceImpl) discardExpiredOTP(ctx context.Context, user *domain.User) {
	user.ClearOTP()
	user.UpdatedAt = time.Now().UTC()
	if err := s.userStore.Update(ctx, user); err != nil {
		s.logger.Error("failed to clear expired code", "error", err, "user_id", user.ID)
	}
}

// ConfirmPasswordReset sets a new password using the emailed reset code.
func (s *UserServiceImpl) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	if user.OTPCode == "" || user.OTPCode != code {
		return ErrInvalidOTP
	}
	if user.OTPExpired(time.Now(), s.otpValidity) {
		s.discardExpiredOTP(ctx, user)
		return ErrExpiredOTP
	}

	user.Password = newPassword
	user.ClearOTP()
	user.UpdatedAt = time.Now().UTC()

	if err := s.userStore.Update(ctx, user); err != nil {
		s.logger.Error("failed to reset password", "error", err, "user_id", user.ID)
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.Info("password reset completed", "user_id", user.ID)
	return nil
}

func (s *UserServiceImpl) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	access, err := s.jwtService.GenerateToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtService.GenerateRefreshToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

var _ UserService = (*UserServiceImpl)(nil)
