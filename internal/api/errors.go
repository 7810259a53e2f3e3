package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/capsule-api/internal/api/shared"
	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/platform/googleauth"
	"github.com/phrazzld/capsule-api/internal/service"
	"github.com/phrazzld/capsule-api/internal/service/auth"
	"github.com/phrazzld/capsule-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. Keeping
// the mapping in one place stops handlers from leaking internal error types
// to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Unverified accounts get a dedicated 403 so clients can steer the
	// user to the verification flow.
	case errors.Is(err, service.ErrAccountNotVerified):
		return http.StatusForbidden

	// Ownership failures and locked capsules read as missing resources.
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, service.ErrCapsuleLocked):
		return http.StatusNotFound

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case store.IsDuplicateError(err):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrExpiredOTP),
		errors.Is(err, service.ErrSamePassword),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	// Semantically invalid but well-formed requests
	case errors.Is(err, service.ErrMissingRecipient),
		errors.Is(err, domain.ErrUnsupportedFileType),
		errors.Is(err, domain.ErrNotSupported):
		return http.StatusUnprocessableEntity

	// Google sign-in without a configured client ID
	case errors.Is(err, googleauth.ErrNotConfigured):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error. Internal detail stays in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, service.ErrAccountNotVerified):
		return "Account not verified"

	case errors.Is(err, service.ErrAlreadyVerified):
		return "Account already verified"

	case errors.Is(err, service.ErrInvalidOTP):
		return "Invalid verification code"

	case errors.Is(err, service.ErrExpiredOTP):
		return "Verification code expired"

	case errors.Is(err, service.ErrSamePassword):
		return "New password must differ from the current password"

	case errors.Is(err, service.ErrMissingRecipient):
		return "A recipient email is required"

	case errors.Is(err, domain.ErrUnsupportedFileType):
		return "Unsupported file type"

	case errors.Is(err, domain.ErrNotSupported):
		return "Delivery method not supported"

	case errors.Is(err, googleauth.ErrNotConfigured):
		return "Google sign-in is not available"

	// Not-owned and locked resources intentionally share the not-found
	// message with genuinely missing ones.
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, service.ErrCapsuleLocked):
		return "Not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrCapsuleNotFound):
		return "Capsule not found"

	case errors.Is(err, store.ErrNotificationNotFound):
		return "Notification not found"

	case store.IsNotFoundError(err):
		return "Not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case store.IsDuplicateError(err):
		return "Already exists"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and safe message, writes
// the response, and logs the underlying detail. An empty overrideMessage
// uses the mapped safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, overrideMessage string) {
	status := MapErrorToStatusCode(err)
	message := overrideMessage
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError converts validator error text into a clean
// user-facing message without echoing internal struct names.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example input: "Key: 'LoginRequest.Email' Error:Field validation
		// for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "eqfield":
		return "fields do not match"
	default:
		return "validation failed"
	}
}
