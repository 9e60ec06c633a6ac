package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfWrappedError(t *testing.T) {
	base := New(ErrCodeNotFound, "project not found")
	wrapped := fmt.Errorf("loading detail: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternalError, CodeOf(errors.New("boom")))
	assert.False(t, IsNotFound(nil))
}

func TestValidationFields(t *testing.T) {
	err := Validation("invalid form", map[string]string{"name": "is required"}, nil)

	assert.True(t, IsValidation(err))
	assert.Equal(t, "is required", FieldsOf(err)["name"])
	assert.Equal(t, "VALIDATION_ERROR: invalid form", err.Error())
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeInternalError, "failed to save", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}
