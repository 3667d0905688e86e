package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "backup error type", errType: ErrTypeBackup, expected: "BACKUP"},
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "permission error type", errType: ErrTypePermission, expected: "PERMISSION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewConfigError("duration must not be negative", nil),
			expected: "[CONFIG] duration must not be negative",
		},
		{
			name:     "with cause",
			err:      NewStorageError("failed to open preferences store", fs.ErrPermission),
			expected: "[STORAGE] failed to open preferences store: permission denied",
		},
		{
			name:     "not found helper",
			err:      NewNotFoundError("config file"),
			expected: "[NOT_FOUND] config file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fs.ErrNotExist
	err := NewStorageError("read failed", cause)

	assert.True(t, errors.Is(err, fs.ErrNotExist))

	wrapped := fmt.Errorf("loading: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeBackup, Message: "upload failed"}
	err.WithContext("bucket", "trial-backups").WithContext("attempt", 3)

	assert.Equal(t, "trial-backups", err.Context["bucket"])
	assert.Equal(t, 3, err.Context["attempt"])
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewValidationError("bad field", nil))

	assert.True(t, IsType(err, ErrTypeValidation))
	assert.False(t, IsType(err, ErrTypeConfig))
	assert.False(t, IsType(errors.New("plain"), ErrTypeValidation))
	assert.False(t, IsType(nil, ErrTypeValidation))
}
