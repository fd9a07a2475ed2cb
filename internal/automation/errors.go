package automation

import (
	"errors"
	"fmt"

	"github.com/phrazzld/corkboard/internal/domain"
)

var (
	// ErrMissingParam indicates a required action parameter was absent.
	ErrMissingParam = errors.New("missing required parameter")

	// ErrInvalidParam indicates an action parameter could not be interpreted.
	ErrInvalidParam = errors.New("invalid parameter")
)

// ActionError describes a failed action attempt.
type ActionError struct {
	Action  domain.ActionType
	Message string
	Err     error
}

// Error implements the error interface for ActionError.
func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("action %s failed: %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("action %s failed: %s", e.Action, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// NewActionError creates a new ActionError.
func NewActionError(action domain.ActionType, message string, err error) *ActionError {
	return &ActionError{Action: action, Message: message, Err: err}
}

func missingParam(action domain.ActionType, name string) *ActionError {
	return NewActionError(action, fmt.Sprintf("params.%s is required", name), ErrMissingParam)
}

func invalidParam(action domain.ActionType, name string, err error) *ActionError {
	return NewActionError(action, fmt.Sprintf("params.%s is invalid", name), errors.Join(ErrInvalidParam, err))
}
