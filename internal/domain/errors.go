package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingDomain       = errors.New("missing required identifier")
	ErrDuplicateDomain     = errors.New("myshopify domain already exists")
	ErrShopUserNotFound    = errors.New("shop user not found")
	ErrInvalidShopDomain   = errors.New("invalid shop domain")
	ErrInvalidInstallState = errors.New("invalid or expired install state")
	ErrInvalidSignature    = errors.New("invalid hmac signature")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// ValidationError is returned when a required field is missing or malformed
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches ErrMissingDomain for a missing domain
func (e *ValidationError) Is(target error) bool {
	return target == ErrMissingDomain && e.Field == "myshopify_domain"
}

// ConstraintError is returned when the store rejects a write because of a
// uniqueness constraint. Err holds the driver error.
type ConstraintError struct {
	Constraint string
	Value      string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("unique constraint %s violated for %q: %v", e.Constraint, e.Value, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Is matches ErrDuplicateDomain for the myshopify domain constraint
func (e *ConstraintError) Is(target error) bool {
	return target == ErrDuplicateDomain && e.Constraint == "myshopify_domain"
}
