// Package model holds the domain entities shared by repositories,
// services and handlers, together with the error values that cross those
// layers.  Callers compare errors with errors.Is; HTTP handlers translate
// them into status codes.
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the addressed entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the principal is known but lacks the rights
	// for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateUsername is returned when a user name is already taken,
	// compared case-insensitively.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateRole is returned when a role name is already taken.
	ErrDuplicateRole = errors.New("role already exists")
	// ErrUnknownRole is returned when a role name does not exist.
	ErrUnknownRole = errors.New("unknown role")
	// ErrInvalidManager is returned when a theater references a manager
	// user that does not exist.
	ErrInvalidManager = errors.New("invalid manager")
	// ErrInvalidCredentialFormat is returned when a user name or password
	// fails the configured format rules.
	ErrInvalidCredentialFormat = errors.New("invalid credential format")
	// ErrUnauthenticated means the operation needs an authenticated
	// principal and none was established.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials means the presented user name and password
	// did not verify.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError describes malformed input.  It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) succeed for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnknownRoleError names the role that failed validation.  It matches
// ErrUnknownRole.
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("Role '%s' does not exist.", e.Role)
}

func (e *UnknownRoleError) Is(target error) bool { return target == ErrUnknownRole }

// CredentialFormatError lists every rule a password or user name broke.
// It matches ErrInvalidCredentialFormat.
type CredentialFormatError struct {
	Problems []string
}

func (e *CredentialFormatError) Error() string {
	return fmt.Sprintf("invalid credential format: %v", e.Problems)
}

func (e *CredentialFormatError) Is(target error) bool { return target == ErrInvalidCredentialFormat }
