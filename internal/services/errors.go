package services

import (
	"errors"
	"fmt"

	"storefront/internal/credentials"
	"storefront/internal/repositories"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrEmptyCart              = errors.New("cart is empty, nothing to order")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidToken           = errors.New("invalid token")
	ErrForbidden              = errors.New("insufficient permissions")
	ErrUsernameTaken          = errors.New("username already taken")
	ErrEmailTaken             = errors.New("email already registered")
	ErrValidation             = errors.New("validation failed")
)

// Kind classifies a service error so callers can tell input problems from
// storage failures.
type Kind int

const (
	KindStorage Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "storage"
	}
}

// KindOf reports the kind of err. Anything unrecognised is a storage failure.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyCart), errors.Is(err, credentials.ErrPasswordTooLong):
		return KindValidation
	case errors.Is(err, ErrAuthenticationRequired), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, repositories.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
		return KindConflict
	default:
		return KindStorage
	}
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
