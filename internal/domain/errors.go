package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTokenType    = errors.New("invalid token type")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceChanged      = errors.New("balance changed since read")
	ErrValidation          = errors.New("validation error")
	ErrSessionExpired      = errors.New("session expired")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrInvalidEntity       = errors.New("invalid entity")
	ErrUnknownStrategy     = errors.New("unknown resolution strategy")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrUserNotFound        = errors.New("user not found")
	ErrSecretNotFound      = errors.New("secret not found")
)

// ValidationError reports a rejected auth input. It matches ErrValidation
// with errors.Is so callers can render Field and Reason inline.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
