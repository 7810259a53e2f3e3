package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/capsule-api/internal/api/shared"
	"github.com/phrazzld/capsule-api/internal/service"
	"github.com/phrazzld/capsule-api/internal/store"
)

// AuthHandler handles registration, verification, login, and password
// reset API requests.
type AuthHandler struct {
	userService service.UserService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService service.UserService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userService: userService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "auth_handler")),
	}
}

// decodeAndValidate parses the body into req and validates it, writing a
// 400 response on failure. Returns false if the request was rejected.
func (h *AuthHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return false
	}
	return true
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var dob *time.Time
	if req.DOB != "" {
		parsed, err := time.Parse(dobFormat, req.DOB)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid dob: expected YYYY-MM-DD")
			return
		}
		dob = &parsed
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Name, req.Password, dob)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
			return
		}
		HandleAPIError(w, r, err, "Failed to register user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, RegisterResponse{
		Email:   user.Email,
		Message: "Verification code sent",
	})
}

// VerifyOTP handles POST /auth/verify.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newUserResponse(user))
}

// ResendOTP handles POST /auth/resend-otp.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.userService.ResendOTP(r.Context(), req.Email); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Verification code sent"})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	tokens, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotVerified) {
			shared.RespondWithJSON(w, r, http.StatusForbidden, VerificationRequiredResponse{
				Error:             "Account not verified",
				NeedsVerification: true,
			})
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		User:         newUserResponse(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// GoogleLogin handles POST /auth/google.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	tokens, user, err := h.userService.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		User:         newUserResponse(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// RefreshToken handles POST /auth/refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	tokens, err := h.userService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// RequestPasswordReset handles POST /auth/password-reset/request. It
// responds 200 whether or not the email is registered so the endpoint
// cannot be used to enumerate accounts.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.userService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if !store.IsNotFoundError(err) {
			HandleAPIError(w, r, err, "Failed to request password reset")
			return
		}
		h.logger.Debug("password reset requested for unknown email")
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{
		Message: "If the email is registered, a reset code has been sent",
	})
}

// VerifyPasswordReset handles POST /auth/password-reset/verify.
func (h *AuthHandler) VerifyPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetVerifyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.userService.VerifyPasswordResetOTP(r.Context(), req.Email, req.OTP); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Code verified"})
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.userService.ConfirmPasswordReset(r.Context(), req.Email, req.OTP, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Password updated"})
}
