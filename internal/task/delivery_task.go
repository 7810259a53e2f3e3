package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/phrazzld/capsule-api/internal/store"
)

// Dependency validation errors for DeliveryTask construction.
var (
	ErrNilDeliverer   = errors.New("capsule deliverer cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
	ErrEmptyCapsuleID = errors.New("capsule ID cannot be empty")
)

// CapsuleDeliverer performs the actual delivery of a capsule: sending
// recipient emails, recording delivery logs, and updating capsule state.
// The capsule service implements this.
type CapsuleDeliverer interface {
	DeliverCapsule(ctx context.Context, capsuleID uuid.UUID) error
}

// deliveryPayload is the serialized form stored with the task.
type deliveryPayload struct {
	CapsuleID uuid.UUID `json:"capsule_id"`
}

// DeliveryTask implements the Task interface for delivering a single
// capsule. Transient delivery failures are retried with a constant delay;
// a capsule deleted before delivery ends the task without error.
type DeliveryTask struct {
	id          uuid.UUID
	capsuleID   uuid.UUID
	deliverer   CapsuleDeliverer
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
	status      TaskStatus
}

// NewDeliveryTask creates a delivery task for the given capsule.
func NewDeliveryTask(
	capsuleID uuid.UUID,
	deliverer CapsuleDeliverer,
	maxAttempts int,
	retryDelay time.Duration,
	logger *slog.Logger,
) (*DeliveryTask, error) {
	if deliverer == nil {
		return nil, ErrNilDeliverer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if capsuleID == uuid.Nil {
		return nil, ErrEmptyCapsuleID
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &DeliveryTask{
		id:          uuid.New(),
		capsuleID:   capsuleID,
		deliverer:   deliverer,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger.With("task_type", TaskTypeCapsuleDelivery, "capsule_id", capsuleID),
		status:      TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier.
func (t *DeliveryTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *DeliveryTask) Type() string {
	return TaskTypeCapsuleDelivery
}

// Payload returns the task data as a byte slice.
func (t *DeliveryTask) Payload() []byte {
	data, err := json.Marshal(deliveryPayload{CapsuleID: t.capsuleID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status.
func (t *DeliveryTask) Status() TaskStatus {
	return t.status
}

// Execute delivers the capsule, retrying transient failures up to
// maxAttempts with a constant delay between attempts.
func (t *DeliveryTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting capsule delivery task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	backoff := retry.WithMaxRetries(uint64(t.maxAttempts-1), retry.NewConstant(t.retryDelay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		deliverErr := t.deliverer.DeliverCapsule(ctx, t.capsuleID)
		if deliverErr == nil {
			return nil
		}

		// A capsule deleted before its delivery time is a cancelled
		// delivery, not a failure.
		if store.IsNotFoundError(deliverErr) {
			t.logger.Info("capsule no longer exists, delivery cancelled")
			return nil
		}

		t.logger.Warn("delivery attempt failed",
			"attempt", attempt,
			"max_attempts", t.maxAttempts,
			"error", deliverErr)
		return retry.RetryableError(deliverErr)
	})
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("capsule delivery failed after retries",
			"attempts", attempt,
			"error", err)
		return fmt.Errorf("capsule delivery failed: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("capsule delivery task completed", "attempts", attempt)
	return nil
}
