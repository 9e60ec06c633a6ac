package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "portfolio/pkg/errors"
)

// NewNotFoundError creates a NOT_FOUND error for the named record kind
func NewNotFoundError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeNotFound, message)
}

// NewConflictError creates a CONFLICT error
func NewConflictError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeConflict, message)
}

// NewInternalError wraps a storage failure
func NewInternalError(message string, err error) *apperrors.AppError {
	return apperrors.Wrap(apperrors.ErrCodeInternalError, message, err)
}

// NewFieldError creates a validation error for a single form field
func NewFieldError(field, message string) *apperrors.AppError {
	return apperrors.Validation(fmt.Sprintf("invalid %s", field), map[string]string{field: message}, nil)
}

// lookupError maps gorm's not-found error to NOT_FOUND and wraps anything
// else as INTERNAL_ERROR.
func lookupError(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError(what + " not found")
	}
	return NewInternalError("failed to load "+what, err)
}
