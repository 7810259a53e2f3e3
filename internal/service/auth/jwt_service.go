package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens in claims.
type TokenType string

const (
	// AccessTokenType marks short-lived tokens used to authorize API calls.
	AccessTokenType TokenType = "access"
	// RefreshTokenType marks longer-lived tokens used only to mint new pairs.
	RefreshTokenType TokenType = "refresh"
)

// Claims represents the JWT claims carried by capsule API tokens.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTService generates and validates the token pair used for authentication.
type JWTService interface {
	// GenerateToken creates a signed access token for the given user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken verifies an access token and returns its claims.
	// Returns ErrExpiredToken, ErrWrongTokenType, or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed refresh token for the given user.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateRefreshToken verifies a refresh token and returns its claims.
	// Returns ErrExpiredRefreshToken, ErrWrongTokenType, or
	// ErrInvalidRefreshToken on failure.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}
