package repository

import "errors"

// Store error taxonomy. Call sites wrap these with context; callers
// test with errors.Is.
var (
	// ErrNotFound means a referenced cycle, entry, or setting does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation means a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrIntegrity means an edit targeted a row or column that cannot be
	// addressed; the whole operation is rolled back.
	ErrIntegrity = errors.New("integrity violation")
)
