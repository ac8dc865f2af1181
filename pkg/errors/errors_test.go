package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewValidationError("bad input")
	assert.Contains(t, err.Error(), "bad input")
	assert.Equal(t, ErrorTypeValidation, err.Type)
}

func TestAppError_WithCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewStorageError("saving layout cache", cause)

	assert.Equal(t, ErrorTypeStorage, err.Type)
	assert.ErrorIs(t, err, cause)
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("boom")
	wrapped := Wrap(cause, ErrorTypeInternal, "edge discovery failed")

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeInternal, appErr.Type)
	assert.ErrorIs(t, wrapped, cause)

	assert.Nil(t, Wrap(nil, ErrorTypeInternal, "no-op"))
}

func TestTypeChecks(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{name: "not found", err: NewNotFoundError("node"), check: IsNotFound, want: true},
		{name: "validation", err: NewValidationError("bad"), check: IsValidation, want: true},
		{name: "cancelled", err: NewCancelledError("simulation"), check: IsCancelled, want: true},
		{name: "storage", err: NewStorageError("read", stderrors.New("io")), check: IsStorage, want: true},
		{name: "plain error is not app error", err: stderrors.New("plain"), check: IsNotFound, want: false},
		{name: "mismatched type", err: NewValidationError("bad"), check: IsNotFound, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}
