// Package service provides application-level services for managing users,
// capsules, and notifications.
package service

import "errors"

// Common service errors. Service methods return these sentinels for
// expected conditions; callers check them with errors.Is and the API layer
// maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than
	// the one making the request. Maps to 404 Not Found so that probing
	// cannot distinguish other users' resources from missing ones.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	// Maps to 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountNotVerified indicates the account exists but the email has
	// not been verified yet. Maps to 403 Forbidden with a verification hint.
	ErrAccountNotVerified = errors.New("account not verified")

	// ErrAlreadyVerified indicates a verification attempt on an account
	// that is already active. Maps to 400 Bad Request.
	ErrAlreadyVerified = errors.New("account already verified")

	// ErrInvalidOTP indicates the submitted one-time passcode does not
	// match the pending one. Maps to 400 Bad Request.
	ErrInvalidOTP = errors.New("invalid verification code")

	// ErrExpiredOTP indicates the pending one-time passcode has expired
	// and a new one must be requested. Maps to 400 Bad Request.
	ErrExpiredOTP = errors.New("verification code expired")

	// ErrSamePassword indicates a password change where the new password
	// equals the current one. Maps to 400 Bad Request.
	ErrSamePassword = errors.New("new password must differ from the current password")

	// ErrMissingRecipient indicates a capsule created without a recipient
	// for a delivery method that requires one. Maps to 422.
	ErrMissingRecipient = errors.New("capsule requires a recipient")

	// ErrCapsuleLocked indicates an attempt to open a capsule before its
	// delivery time has arrived. The open endpoint reports it as 404 so a
	// leaked link reveals nothing before the delivery time.
	ErrCapsuleLocked = errors.New("capsule is not yet unlocked")
)
