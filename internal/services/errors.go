package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/projectdesk/internal/repository"
)

var (
	ErrUnauthenticated        = errors.New("authentication required")
	ErrForbidden              = errors.New("access denied")
	ErrNotFound               = errors.New("resource not found")
	ErrDuplicateIdentity      = errors.New("username or email already exists")
	ErrAlreadyAssigned        = errors.New("role is already assigned to the user")
	ErrConcurrentModification = errors.New("resource was modified by another request; reload and retry")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrExpiredToken           = errors.New("session token has expired")
	ErrRevokedToken           = errors.New("session token has been revoked")
	ErrMalformedToken         = errors.New("session token is malformed")
	ErrFailedToHashPassword   = errors.New("failed to hash password")
	ErrSuggestionsUnavailable = errors.New("task suggestions are not configured")
)

// ValidationError reports an input that violates a domain invariant.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// notFound wraps ErrNotFound with the entity that was missing.
func notFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

// storeErr translates repository errors into the service taxonomy.
func storeErr(entity, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound(entity)
	case errors.Is(err, repository.ErrVersionConflict):
		return fmt.Errorf("%s: %w", entity, ErrConcurrentModification)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w", entity, ErrDuplicateIdentity)
	default:
		return fmt.Errorf("failed to %s %s: %w", op, entity, err)
	}
}

// isDomainError reports whether err is already part of the service taxonomy
// and must pass through a transaction untouched.
func isDomainError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateIdentity) ||
		errors.Is(err, ErrAlreadyAssigned) ||
		errors.Is(err, ErrConcurrentModification)
}

// txErr finishes a transactional operation: errors of the service taxonomy
// pass through, everything else is translated by storeErr.
func txErr(entity, op string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return storeErr(entity, op, err)
}
