package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/domain"
)

// dobFormat is the wire format for dates of birth.
const dobFormat = "2006-01-02"

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email                string `json:"email"                 validate:"required,email"`
	Name                 string `json:"name"                  validate:"required,max=100"`
	DOB                  string `json:"dob,omitempty"         validate:"omitempty,datetime=2006-01-02"`
	Password             string `json:"password"              validate:"required,min=12,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// RegisterResponse acknowledges a registration pending email verification.
type RegisterResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// VerifyOTPRequest defines the payload for the email verification endpoint.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}

// ResendOTPRequest defines the payload for requesting a fresh
// verification code.
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// GoogleLoginRequest defines the payload for the Google sign-in endpoint.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// RefreshTokenResponse defines the successful response for the token
// refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// VerificationRequiredResponse is returned by login when the account
// exists but has not verified its email yet.
type VerificationRequiredResponse struct {
	Error             string `json:"error"`
	NeedsVerification bool   `json:"needs_verification"`
}

// PasswordResetRequest defines the payload for requesting a reset code.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetVerifyRequest defines the payload for checking a reset code.
type PasswordResetVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}

// PasswordResetConfirmRequest defines the payload for completing a
// password reset.
type PasswordResetConfirmRequest struct {
	Email                string `json:"email"                 validate:"required,email"`
	OTP                  string `json:"otp"                   validate:"required,len=6,numeric"`
	Password             string `json:"password"              validate:"required,min=12,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// UpdateProfileRequest defines the payload for partial profile updates.
// Absent fields are left unchanged.
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Bio  *string `json:"bio,omitempty"  validate:"omitempty,max=500"`
	DOB  *string `json:"dob,omitempty"  validate:"omitempty,datetime=2006-01-02"`
}

// ChangePasswordRequest defines the payload for the password change
// endpoint.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required,min=1"`
	NewPassword string `json:"new_password" validate:"required,min=12,max=72"`
}

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	DOB       string    `json:"dob,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// newUserResponse maps a domain user onto its public view.
func newUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Bio:       user.Bio,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
	if user.DOB != nil {
		resp.DOB = user.DOB.Format(dobFormat)
	}
	return resp
}

// UnreadCountResponse reports the number of unread notifications.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// MarkAllReadResponse reports how many notifications a bulk mark-read
// touched.
type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

// MessageResponse is a bare acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
