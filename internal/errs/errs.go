package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services. Handlers map these onto transport
// outcomes (404 / 409 / 500); everything in between wraps them with %w.
var (
	// ErrNotFound marks a referenced entity (session, equipment, test type,
	// document type) that does not exist. Reconciliation aborts without commit.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a device-lock mismatch. No mutation has occurred.
	ErrConflict = errors.New("device conflict")

	// ErrIntegrity marks a stored blob whose recomputed checksum differs from
	// the recorded one. Never auto-repaired.
	ErrIntegrity = errors.New("content integrity violation")
)

// ValidationError reports malformed caller input, per field where possible.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidation builds a single-field validation error.
func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// AsValidation unwraps err into a *ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
