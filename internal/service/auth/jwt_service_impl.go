package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

// hmacJWTService is an implementation of JWTService using HMAC-SHA signing.
type hmacJWTService struct {
	signingKey           []byte
	tokenLifetime        time.Duration    // Access token lifetime
	refreshTokenLifetime time.Duration    // Refresh token lifetime
	timeFunc             func() time.Time // Injectable for testing
	clockSkew            time.Duration    // Allowed time difference for validation to handle clock drift
}

// jwtCustomClaims defines the structure of JWT claims we use
type jwtCustomClaims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacJWTService implements JWTService interface
var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a new JWT service using HMAC-SHA signing.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	// Validate that the secret meets minimum length requirements
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacJWTService{
		signingKey:           []byte(cfg.JWTSecret),
		tokenLifetime:        time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		refreshTokenLifetime: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		timeFunc:             time.Now,
		clockSkew:            2 * time.Minute, // Allow 2 minutes of clock skew to handle minor time drifts
	}, nil
}

// GenerateToken creates a signed JWT access token with user claims.
func (s *hmacJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.generate(ctx, userID, "access", s.tokenLifetime)
}

// GenerateRefreshToken creates a signed JWT refresh token with user claims.
// Refresh tokens have longer lifetime than access tokens and are used to obtain new token pairs.
func (s *hmacJWTService) GenerateRefreshToken(
	ctx context.Context,
	userID uuid.UUID,
) (string, error) {
	return s.generate(ctx, userID, "refresh", s.refreshTokenLifetime)
}

// ValidateToken validates a JWT access token and returns the claims if valid.
// It verifies the token has type "access" and returns ErrWrongTokenType if not.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	return s.validate(ctx, tokenString, "access", ErrExpiredToken, ErrInvalidToken)
}

// ValidateRefreshToken validates a JWT refresh token and returns the claims if valid.
// It verifies the token has type "refresh" and returns ErrWrongTokenType if not.
func (s *hmacJWTService) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
) (*Claims, error) {
	return s.validate(ctx, tokenString, "refresh", ErrExpiredRefreshToken, ErrInvalidRefreshToken)
}

// generate creates and signs a token of the given type with the given lifetime.
func (s *hmacJWTService) generate(
	ctx context.Context,
	userID uuid.UUID,
	tokenType string,
	lifetime time.Duration,
) (string, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	claims := jwtCustomClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.New().String(), // Unique token ID
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign JWT token",
			"error", err,
			"user_id", userID,
			"token_type", tokenType,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", tokenType, err)
	}

	return signedToken, nil
}

// validate parses a token, checks its signature and time claims, and verifies
// that it carries the expected token type.
func (s *hmacJWTService) validate(
	ctx context.Context,
	tokenString string,
	tokenType string,
	expiredErr error,
	invalidErr error,
) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew), // Allow for clock skew when validating time claims
		jwt.WithTimeFunc(func() time.Time {
			return now // Use our injected time function for validation
		}),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method is what we expect
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: token expired",
				"error", err,
				"token_type", tokenType)
			return nil, expiredErr
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token validation failed: token not yet valid",
				"error", err,
				"token_type", tokenType)
			if tokenType == "access" {
				return nil, ErrTokenNotYetValid
			}
			return nil, invalidErr
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Debug("token validation failed",
				"error", err,
				"token_type", tokenType)
			return nil, invalidErr
		default:
			log.Debug("token validation failed: other validation error",
				"error", err,
				"token_type", tokenType,
				"error_type", fmt.Sprintf("%T", err))
			return nil, invalidErr
		}
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims")
		return nil, invalidErr
	}

	if claims.TokenType != tokenType {
		log.Debug("token validation failed: wrong token type",
			"expected", tokenType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	customClaims := &Claims{
		UserID:    claims.UserID,
		TokenType: claims.TokenType,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}

	log.Debug("token validated successfully",
		"user_id", claims.UserID,
		"token_id", claims.ID,
		"token_type", tokenType,
		"expiry", claims.ExpiresAt.Time)

	return customClaims, nil
}
