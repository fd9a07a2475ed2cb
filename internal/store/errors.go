package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every store implementation. Entity-specific
// not-found errors wrap ErrNotFound so callers can match either.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicate     = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed marks failures to open or finish a transaction,
	// as opposed to failures of the statements inside it.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrCardNotFound   = fmt.Errorf("%w: card", ErrNotFound)
	ErrRuleNotFound   = fmt.Errorf("%w: automation rule", ErrNotFound)
	ErrLabelNotFound  = fmt.Errorf("%w: label", ErrNotFound)
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)
)

// IsNotFoundError reports whether err is, or wraps, any not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
