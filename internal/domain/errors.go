package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no live record exists for an alias.
	// It deliberately covers never-created, already-consumed and expired
	// aliases alike, so a response never reveals whether a link was
	// ever valid.
	ErrNotFound = errors.New("secret not found")

	// ErrDuplicateAlias is returned by Put when the alias is already in
	// use by a live record.
	ErrDuplicateAlias = errors.New("alias already exists")

	// ErrDecryption is returned when stored ciphertext fails to
	// authenticate or decode.
	ErrDecryption = errors.New("decryption failed")
)

// ValidationError describes malformed or out-of-policy create input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
