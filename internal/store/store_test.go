package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/capsule-api/internal/store"
	"github.com/stretchr/testify/assert"
)

// TestErrorDefinitions ensures that the error definitions in the store
// package are defined as expected and can be used with errors.Is.
func TestErrorDefinitions(t *testing.T) {
	t.Parallel()

	t.Run("entity-specific not found errors wrap ErrNotFound", func(t *testing.T) {
		t.Parallel()

		for _, err := range []error{
			store.ErrUserNotFound,
			store.ErrCapsuleNotFound,
			store.ErrContentNotFound,
			store.ErrRecipientNotFound,
			store.ErrNotificationNotFound,
			store.ErrTaskNotFound,
		} {
			assert.True(t, errors.Is(err, store.ErrNotFound), "%v should wrap ErrNotFound", err)
			assert.True(t, store.IsNotFoundError(err))
			assert.False(t, store.IsDuplicateError(err))
		}
	})

	t.Run("duplicate errors wrap ErrDuplicate", func(t *testing.T) {
		t.Parallel()

		for _, err := range []error{store.ErrEmailExists, store.ErrRecipientExists} {
			assert.True(t, errors.Is(err, store.ErrDuplicate), "%v should wrap ErrDuplicate", err)
			assert.True(t, store.IsDuplicateError(err))
			assert.False(t, store.IsNotFoundError(err))
		}
	})

	t.Run("wrapped errors still match", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("loading owner: %w", store.ErrUserNotFound)
		assert.True(t, errors.Is(wrapped, store.ErrUserNotFound))
		assert.True(t, errors.Is(wrapped, store.ErrNotFound))
	})
}

func TestIsInternalError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil_error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic_error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "ErrInternal",
			err:      store.ErrInternal,
			expected: true,
		},
		{
			name:     "wrapped_ErrInternal",
			err:      fmt.Errorf("failed to process: %w", store.ErrInternal),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, store.IsInternalError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	base := errors.New("connection reset")
	err := store.NewStoreError("capsule", "create", "insert failed", base)

	assert.Contains(t, err.Error(), "create operation on capsule failed")
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, errors.Is(err, base))

	bare := store.NewStoreError("user", "delete", "no rows", nil)
	assert.Equal(t, "delete operation on user failed: no rows", bare.Error())
}
