package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/config"
	"github.com/phrazzld/corkboard/internal/platform/logger"
)

// TokenTypeAccess is the only token type the realtime gateway accepts.
const TokenTypeAccess = "access"

const (
	minSecretLength = 32
	clockLeeway     = 2 * time.Minute
)

// JWTService signs and checks the bearer tokens clients present.
type JWTService interface {
	// GenerateToken signs an access token for userID.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken returns the claims of a valid access token. Failures are
	// one of ErrMissingToken, ErrExpiredToken, ErrTokenNotYetValid,
	// ErrWrongTokenType or ErrInvalidToken.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the claims carried by an access token.
type Claims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// hs256Service signs with a shared HMAC secret.
type hs256Service struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

var _ JWTService = (*hs256Service)(nil)

// NewJWTService builds an HS256 JWTService from the auth configuration.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	if cfg.TokenLifetimeMinutes <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %d minutes", cfg.TokenLifetimeMinutes)
	}
	return &hs256Service{
		key:      []byte(cfg.JWTSecret),
		lifetime: time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		now:      time.Now,
	}, nil
}

func (s *hs256Service) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	issued := s.now()
	return s.sign(ctx, Claims{
		UserID:    userID,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.lifetime)),
			ID:        uuid.NewString(),
		},
	})
}

func (s *hs256Service) sign(ctx context.Context, claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		logger.FromContext(ctx).Error("token signing failed",
			"error", err,
			"user_id", claims.UserID)
		return "", fmt.Errorf("sign %s token: %w", claims.TokenType, err)
	}
	return signed, nil
}

// parseFailures maps parser errors to the errors callers see. Anything not
// listed is ErrInvalidToken.
var parseFailures = []struct {
	cause error
	as    error
}{
	{jwt.ErrTokenExpired, ErrExpiredToken},
	{jwt.ErrTokenNotValidYet, ErrTokenNotYetValid},
}

func (s *hs256Service) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	log := logger.FromContext(ctx)

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, s.keyFor); err != nil {
		log.Debug("token rejected", "error", err)
		for _, f := range parseFailures {
			if errors.Is(err, f.cause) {
				return nil, f.as
			}
		}
		return nil, ErrInvalidToken
	}

	switch {
	case claims.TokenType != TokenTypeAccess:
		log.Debug("token rejected: not an access token", "token_type", claims.TokenType)
		return nil, ErrWrongTokenType
	case claims.UserID == uuid.Nil:
		log.Debug("token rejected: no user id")
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *hs256Service) keyFor(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return s.key, nil
}
