package task

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DeliveryTaskFactory creates DeliveryTask instances with their delivery
// dependencies wired in. It also reconstructs tasks from their persisted
// payload during crash recovery.
type DeliveryTaskFactory struct {
	deliverer   CapsuleDeliverer
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// NewDeliveryTaskFactory creates a factory for capsule delivery tasks.
func NewDeliveryTaskFactory(
	deliverer CapsuleDeliverer,
	maxAttempts int,
	retryDelay time.Duration,
	logger *slog.Logger,
) *DeliveryTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryTaskFactory{
		deliverer:   deliverer,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger.With(slog.String("component", "delivery_task_factory")),
	}
}

// CreateTask creates a new DeliveryTask for the given capsule.
func (f *DeliveryTaskFactory) CreateTask(capsuleID uuid.UUID) (Task, error) {
	return NewDeliveryTask(capsuleID, f.deliverer, f.maxAttempts, f.retryDelay, f.logger)
}

// Reconstruct rebuilds an executable task from its persisted form. Only
// capsule delivery tasks are recognized.
func (f *DeliveryTaskFactory) Reconstruct(id uuid.UUID, taskType string, payload []byte, status TaskStatus) (Task, error) {
	if taskType != TaskTypeCapsuleDelivery {
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}

	var p deliveryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal delivery payload: %w", err)
	}

	task, err := NewDeliveryTask(p.CapsuleID, f.deliverer, f.maxAttempts, f.retryDelay, f.logger)
	if err != nil {
		return nil, err
	}
	task.id = id
	task.status = status
	return task, nil
}
