package service

import (
	"errors"
	"fmt"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/repo"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = repo.ErrDuplicateEmail
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrForbidden          = errors.New("forbidden")
	ErrPasswordCompare    = repo.ErrPasswordCompare

	// ErrTokenSuperseded is a well-formed refresh token that is no longer the current one.
	ErrTokenSuperseded = fmt.Errorf("%w: refresh token superseded", ErrForbidden)

	ErrCouponExpired = fmt.Errorf("%w: coupon expired", ErrNotFound)
)

// ValidationError carries a reason safe to show to clients. It matches ErrValidation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func validation(reason string) error {
	return &ValidationError{Reason: reason}
}
