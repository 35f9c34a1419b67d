package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")

	errMissingUser = errors.New("respuesta sin usuario")
)

// ValidationError is bad local input, rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthError is a credential or session failure reported by the backend.
// Message is ready to show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// RoleMismatchError means login succeeded under a different role than the
// one the caller asked for. The session has already been discarded.
type RoleMismatchError struct {
	Expected models.Role
	Actual   models.Role
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("la cuenta tiene el rol %q, se esperaba %q", e.Actual, e.Expected)
}
