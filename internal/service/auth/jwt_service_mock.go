package auth

import (
	"context"

	"github.com/google/uuid"
)

// MockJWTService is a JWTService for handler and middleware tests. Unset
// funcs fall back to the fixed fields.
type MockJWTService struct {
	GenerateTokenFunc func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)

	UserID          uuid.UUID
	ValidationError error
}

var _ JWTService = (*MockJWTService)(nil)

// NewMockJWTServiceForUser returns a mock that accepts any token as userID.
func NewMockJWTServiceForUser(userID uuid.UUID) *MockJWTService {
	return &MockJWTService{UserID: userID}
}

// GenerateToken returns the user id as an opaque token.
func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, userID)
	}
	return "mock-" + userID.String(), nil
}

// ValidateToken returns ValidationError, or access claims for UserID.
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	if m.ValidationError != nil {
		return nil, m.ValidationError
	}
	return &Claims{UserID: m.UserID, TokenType: TokenTypeAccess}, nil
}
