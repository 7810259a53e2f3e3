package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/config"
	"github.com/phrazzld/capsule-api/internal/platform/logger"
)

// clockSkewTolerance absorbs small clock differences between the token
// issuer and validators.
const clockSkewTolerance = 2 * time.Minute

// hmacJWTService implements JWTService using HMAC-SHA256 signing.
type hmacJWTService struct {
	secret          []byte
	tokenLifetime   time.Duration
	refreshLifetime time.Duration
	timeFunc        func() time.Time
	parserOpts      []jwt.ParserOption
}

// NewJWTService creates a JWTService from the auth configuration.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	timeFunc := time.Now
	return &hmacJWTService{
		secret:          []byte(cfg.JWTSecret),
		tokenLifetime:   time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		refreshLifetime: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		timeFunc:        timeFunc,
		parserOpts: []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithLeeway(clockSkewTolerance),
			jwt.WithTimeFunc(timeFunc),
		},
	}, nil
}

func (s *hmacJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.generate(ctx, userID, AccessTokenType, s.tokenLifetime)
}

func (s *hmacJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.generate(ctx, userID, RefreshTokenType, s.refreshLifetime)
}

// generateRefreshTokenWithExpiry exists for expiry-path tests.
func (s *hmacJWTService) generateRefreshTokenWithExpiry(ctx context.Context, userID uuid.UUID, lifetime time.Duration) (string, error) {
	return s.generate(ctx, userID, RefreshTokenType, lifetime)
}

func (s *hmacJWTService) generate(ctx context.Context, userID uuid.UUID, tokenType TokenType, lifetime time.Duration) (string, error) {
	log := logger.FromContextOrDefault(ctx, nil)

	now := s.timeFunc()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		log.Error("failed to sign token",
			slog.String("token_type", string(tokenType)),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	log.Debug("generated token",
		slog.String("token_type", string(tokenType)),
		slog.String("user_id", userID.String()))
	return signed, nil
}

func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.parse(ctx, tokenString, ErrInvalidToken, ErrExpiredToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != AccessTokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (s *hmacJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.parse(ctx, tokenString, ErrInvalidRefreshToken, ErrExpiredRefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != RefreshTokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// parse verifies the signature and registered claims, mapping library errors
// to the sentinel errors appropriate for the token family being validated.
func (s *hmacJWTService) parse(ctx context.Context, tokenString string, invalidErr, expiredErr error) (*Claims, error) {
	log := logger.FromContextOrDefault(ctx, nil)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, s.parserOpts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, expiredErr
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("token validation failed", slog.String("error", err.Error()))
			return nil, invalidErr
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, invalidErr
	}
	if claims.UserID == uuid.Nil {
		return nil, invalidErr
	}
	return claims, nil
}
