// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Training errors.
	ErrInsufficientData = errors.New("insufficient training data")
	ErrEmptyVocabulary  = errors.New("vectorizer produced an empty vocabulary")
	ErrTrainingFailed   = errors.New("training failed")

	// Feature errors.
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidAmount = errors.New("amount must be a non-negative number")

	// Prediction errors.
	ErrInvalidInput     = errors.New("invalid prediction input")
	ErrModelUnavailable = errors.New("no trained model available")
	ErrFeatureMismatch  = errors.New("feature layout does not match trained model")
	ErrArtifactCorrupt  = errors.New("model artifact corrupt")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
