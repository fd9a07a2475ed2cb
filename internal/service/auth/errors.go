package auth

import "errors"

// Token validation failures. Callers map all of them to 401; only
// ErrExpiredToken gets its own client message.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")
	// ErrWrongTokenType is a correctly signed token not issued for access.
	ErrWrongTokenType = errors.New("authentication token has wrong type")
)
