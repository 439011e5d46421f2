package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials indicates an unknown or inactive user, or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountLocked indicates the lockout policy refused the attempt.
	ErrAccountLocked = errors.New("account locked")
	// ErrNoSession indicates that no session is stored.
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired indicates that the session outlived its window or was rejected.
	ErrSessionExpired = errors.New("session expired")
	// ErrValidation indicates bad input; the concrete error is a *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrStorage indicates unreadable persisted data. It is logged, not surfaced.
	ErrStorage = errors.New("storage error")
	// ErrForbidden indicates the acting user lacks the admin role.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound indicates that the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists indicates a duplicate active username.
	ErrUserExists = errors.New("user already exists")
	// ErrAccessDenied indicates a wrong demo access code.
	ErrAccessDenied = errors.New("invalid access code")
	// ErrRelay indicates a failed or malformed relay response.
	ErrRelay = errors.New("relay request failed")
)

// ValidationError lists the problems found in user input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation error: " + strings.Join(e.Problems, ", ")
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a *ValidationError from problems.
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// RelayStatusError is a non-2xx relay response.
type RelayStatusError struct {
	Op     string
	Status int
}

func (e *RelayStatusError) Error() string {
	return fmt.Sprintf("relay %s: status %d", e.Op, e.Status)
}

// Is makes errors.Is(err, ErrRelay) match.
func (e *RelayStatusError) Is(target error) bool {
	return target == ErrRelay
}
