package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/capsule-api/internal/store"
)

// mockDeliverer implements CapsuleDeliverer for testing.
type mockDeliverer struct {
	calls     int
	DeliverFn func(ctx context.Context, capsuleID uuid.UUID) error
}

func (m *mockDeliverer) DeliverCapsule(ctx context.Context, capsuleID uuid.UUID) error {
	m.calls++
	if m.DeliverFn != nil {
		return m.DeliverFn(ctx, capsuleID)
	}
	return nil
}

func TestNewDeliveryTaskValidation(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	deliverer := &mockDeliverer{}

	tests := []struct {
		name      string
		capsuleID uuid.UUID
		deliverer CapsuleDeliverer
		logger    *slog.Logger
		wantErr   error
	}{
		{
			name:      "valid",
			capsuleID: uuid.New(),
			deliverer: deliverer,
			logger:    logger,
		},
		{
			name:      "nil deliverer",
			capsuleID: uuid.New(),
			deliverer: nil,
			logger:    logger,
			wantErr:   ErrNilDeliverer,
		},
		{
			name:      "nil logger",
			capsuleID: uuid.New(),
			deliverer: deliverer,
			logger:    nil,
			wantErr:   ErrNilLogger,
		},
		{
			name:      "empty capsule ID",
			capsuleID: uuid.Nil,
			deliverer: deliverer,
			logger:    logger,
			wantErr:   ErrEmptyCapsuleID,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			task, err := NewDeliveryTask(tt.capsuleID, tt.deliverer, 3, time.Millisecond, tt.logger)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TaskTypeCapsuleDelivery, task.Type())
			assert.Equal(t, TaskStatusPending, task.Status())
		})
	}
}

func TestDeliveryTaskPayload(t *testing.T) {
	t.Parallel()

	capsuleID := uuid.New()
	task, err := NewDeliveryTask(capsuleID, &mockDeliverer{}, 3, time.Millisecond, slog.Default())
	require.NoError(t, err)

	var payload deliveryPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, capsuleID, payload.CapsuleID)
}

func TestDeliveryTaskExecute(t *testing.T) {
	t.Parallel()

	t.Run("succeeds on first attempt", func(t *testing.T) {
		t.Parallel()
		deliverer := &mockDeliverer{}
		task, err := NewDeliveryTask(uuid.New(), deliverer, 3, time.Millisecond, slog.Default())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Equal(t, 1, deliverer.calls)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		t.Parallel()
		deliverer := &mockDeliverer{}
		deliverer.DeliverFn = func(ctx context.Context, capsuleID uuid.UUID) error {
			if deliverer.calls < 3 {
				return errors.New("smtp connection refused")
			}
			return nil
		}

		task, err := NewDeliveryTask(uuid.New(), deliverer, 3, time.Millisecond, slog.Default())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Equal(t, 3, deliverer.calls)
	})

	t.Run("fails after max attempts", func(t *testing.T) {
		t.Parallel()
		deliverErr := errors.New("smtp connection refused")
		deliverer := &mockDeliverer{
			DeliverFn: func(ctx context.Context, capsuleID uuid.UUID) error {
				return deliverErr
			},
		}

		task, err := NewDeliveryTask(uuid.New(), deliverer, 3, time.Millisecond, slog.Default())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.ErrorIs(t, err, deliverErr)
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.Equal(t, 3, deliverer.calls)
	})

	t.Run("deleted capsule ends task without error", func(t *testing.T) {
		t.Parallel()
		deliverer := &mockDeliverer{
			DeliverFn: func(ctx context.Context, capsuleID uuid.UUID) error {
				return fmt.Errorf("loading capsule: %w", store.ErrCapsuleNotFound)
			},
		}

		task, err := NewDeliveryTask(uuid.New(), deliverer, 3, time.Millisecond, slog.Default())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Equal(t, 1, deliverer.calls)
	})

	t.Run("cancelled context fails the task", func(t *testing.T) {
		t.Parallel()
		task, err := NewDeliveryTask(uuid.New(), &mockDeliverer{}, 3, time.Millisecond, slog.Default())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = task.Execute(ctx)
		assert.Error(t, err)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})
}

func TestDeliveryTaskFactoryReconstruct(t *testing.T) {
	t.Parallel()

	factory := NewDeliveryTaskFactory(&mockDeliverer{}, 3, time.Millisecond, slog.Default())

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		capsuleID := uuid.New()
		original, err := factory.CreateTask(capsuleID)
		require.NoError(t, err)

		rebuilt, err := factory.Reconstruct(original.ID(), original.Type(), original.Payload(), TaskStatusPending)
		require.NoError(t, err)

		assert.Equal(t, original.ID(), rebuilt.ID())
		assert.Equal(t, TaskTypeCapsuleDelivery, rebuilt.Type())
		assert.Equal(t, TaskStatusPending, rebuilt.Status())
		assert.JSONEq(t, string(original.Payload()), string(rebuilt.Payload()))
	})

	t.Run("unknown task type", func(t *testing.T) {
		t.Parallel()
		_, err := factory.Reconstruct(uuid.New(), "unknown_type", []byte(`{}`), TaskStatusPending)
		assert.Error(t, err)
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		_, err := factory.Reconstruct(uuid.New(), TaskTypeCapsuleDelivery, []byte(`not json`), TaskStatusPending)
		assert.Error(t, err)
	})
}
