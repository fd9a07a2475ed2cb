package auth

import (
	"context"

	"github.com/google/uuid"
)

// TokenVerifier resolves a bearer credential to the user it was issued for.
// It is the credential check the realtime gateway runs on connect.
type TokenVerifier struct {
	tokens JWTService
}

// NewTokenVerifier wraps a JWTService.
func NewTokenVerifier(tokens JWTService) *TokenVerifier {
	return &TokenVerifier{tokens: tokens}
}

// Verify returns the user id carried by a valid access token.
func (v *TokenVerifier) Verify(ctx context.Context, credential string) (uuid.UUID, error) {
	claims, err := v.tokens.ValidateToken(ctx, credential)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}
