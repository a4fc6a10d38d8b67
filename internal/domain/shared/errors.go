// Package shared holds value objects and error kinds common to all domain
// packages. It imports nothing outside the standard library.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these, and the HTTP
// layer maps kinds to status codes.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	ErrValidation      = errors.New("validation error")
	ErrValueOutOfRange = errors.New("value out of range")

	ErrInvalidState = errors.New("invalid state")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrConflict = errors.New("conflict")
)

// DomainError carries where an error happened (Domain.Op), its kind and a
// message safe to show to API callers.
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Domain + "." + e.Op + ": " + e.Message
}

func (e *DomainError) Unwrap() error { return e.Kind }

func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// Validation is shorthand for an ErrValidation kind error.
func Validation(domain, op, message string) *DomainError {
	return NewDomainError(domain, op, ErrValidation, message)
}

// Validationf is Validation with a formatted message.
func Validationf(domain, op, format string, args ...any) *DomainError {
	return Validation(domain, op, fmt.Sprintf(format, args...))
}

var (
	ErrStudentNotFound     = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrNoNextClass         = NewDomainError("student", "Promote", ErrInvalidState, "no next class available")
	ErrStudentClassChanged = NewDomainError("student", "Promote", ErrConflict, "student class changed concurrently")

	ErrInvalidExamType = NewDomainError("result", "Validate", ErrValidation, "exam type must be one of: class test, internal, external, practical")
	ErrInvalidMarks    = NewDomainError("result", "Validate", ErrValueOutOfRange, "marks must be between 0 and total marks")
	ErrInvalidTotal    = NewDomainError("result", "Validate", ErrValueOutOfRange, "total marks must be greater than 0")
	ErrInvalidYear     = NewDomainError("result", "Validate", ErrValueOutOfRange, "academic year must be an integer between 2000 and 3000")

	ErrUserNotFound       = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists  = NewDomainError("user", "Create", ErrAlreadyExists, "email already registered")
	ErrInvalidRole        = NewDomainError("user", "Validate", ErrValidation, "invalid role")
	ErrInvalidCredentials = NewDomainError("user", "Login", ErrUnauthorized, "invalid credentials")

	ErrPromotionInProgress = NewDomainError("promotion", "RunAutomatic", ErrConflict, "automatic promotion already running for year")

	ErrAccessDenied = NewDomainError("access", "Authorize", ErrForbidden, "access denied")
)

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
func IsForbidden(err error) bool     { return errors.Is(err, ErrForbidden) }
func IsUnauthorized(err error) bool  { return errors.Is(err, ErrUnauthorized) }
func IsInvalidState(err error) bool  { return errors.Is(err, ErrInvalidState) }

// IsValidation covers malformed input, including out-of-range values.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrValueOutOfRange)
}

// IsConflict covers lock contention, lost optimistic updates and occupied
// natural keys.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
