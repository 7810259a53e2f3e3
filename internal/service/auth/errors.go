package auth

import "errors"

// Authentication error types used by the JWT service. Handlers translate
// these to HTTP status codes in the API layer.
var (
	// ErrInvalidToken indicates the token is malformed, has an invalid
	// signature, or fails validation for a reason other than expiry.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the access token has passed its expiry time.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenNotYetValid indicates the token's NotBefore time is in the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")

	// ErrMissingToken indicates no token was provided where one was required.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidRefreshToken indicates the refresh token is malformed or has
	// an invalid signature.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken indicates the refresh token has passed its
	// expiry time and the user must authenticate again.
	ErrExpiredRefreshToken = errors.New("refresh token expired")

	// ErrWrongTokenType indicates a token of one type was presented where the
	// other was required, such as a refresh token sent as a bearer token.
	ErrWrongTokenType = errors.New("wrong token type")
)
