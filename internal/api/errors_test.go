package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/platform/googleauth"
	"github.com/phrazzld/capsule-api/internal/service"
	"github.com/phrazzld/capsule-api/internal/service/auth"
	"github.com/phrazzld/capsule-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"account not verified", service.ErrAccountNotVerified, http.StatusForbidden},
		{"not owned", service.ErrNotOwned, http.StatusNotFound},
		{"locked capsule", service.ErrCapsuleLocked, http.StatusNotFound},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"capsule not found", store.ErrCapsuleNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", store.ErrNotificationNotFound), http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"already verified", service.ErrAlreadyVerified, http.StatusBadRequest},
		{"invalid otp", service.ErrInvalidOTP, http.StatusBadRequest},
		{"expired otp", service.ErrExpiredOTP, http.StatusBadRequest},
		{"same password", service.ErrSamePassword, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"missing recipient", service.ErrMissingRecipient, http.StatusUnprocessableEntity},
		{"unsupported file type", domain.ErrUnsupportedFileType, http.StatusUnprocessableEntity},
		{"unsupported delivery method", domain.ErrNotSupported, http.StatusUnprocessableEntity},
		{"google sign-in unconfigured", googleauth.ErrNotConfigured, http.StatusServiceUnavailable},
		{"unknown error", errors.New("surprise"), http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"invalid credentials", service.ErrInvalidCredentials, "Invalid credentials"},
		{"not owned hides existence", service.ErrNotOwned, "Not found"},
		{"locked hides existence", service.ErrCapsuleLocked, "Not found"},
		{"email exists", store.ErrEmailExists, "Email already exists"},
		{"capsule not found", store.ErrCapsuleNotFound, "Capsule not found"},
		{"unknown error", errors.New("pg: connection refused"), "An unexpected error occurred"},
		{"nil", nil, "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, GetSafeErrorMessage(tc.err))
		})
	}

	t.Run("never echoes the raw error", func(t *testing.T) {
		t.Parallel()
		raw := errors.New("password=hunter2 host=10.0.0.5")
		assert.NotContains(t, GetSafeErrorMessage(raw), "hunter2")
	})
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	t.Run("extracts field and tag", func(t *testing.T) {
		t.Parallel()
		err := errors.New(
			"Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag")
		assert.Equal(t, "Invalid Email: required field", SanitizeValidationError(err))
	})

	t.Run("falls back to a generic message", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
	})
}
