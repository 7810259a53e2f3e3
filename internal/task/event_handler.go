package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/events"
)

// taskFactory creates tasks from a capsule ID. Satisfied by
// DeliveryTaskFactory.
type taskFactory interface {
	CreateTask(capsuleID uuid.UUID) (Task, error)
}

// taskSubmitter accepts tasks for background execution. Satisfied by
// TaskRunner.
type taskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler bridges the events package and the task system:
// it turns delivery request events into persisted, queued tasks.
type TaskFactoryEventHandler struct {
	factory taskFactory
	runner  taskSubmitter
	logger  *slog.Logger
}

// NewTaskFactoryEventHandler creates an event handler that builds tasks with
// the given factory and submits them to the runner.
func NewTaskFactoryEventHandler(factory taskFactory, runner taskSubmitter, logger *slog.Logger) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With(slog.String("component", "task_factory_event_handler")),
	}
}

// HandleEvent processes capsule delivery request events. Events of other
// types are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if event.Type != TaskTypeCapsuleDelivery {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload struct {
		CapsuleID string `json:"capsule_id"`
	}
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal event payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal event payload: %w", err)
	}

	capsuleID, err := uuid.Parse(payload.CapsuleID)
	if err != nil {
		h.logger.Error("invalid capsule ID in event payload",
			"error", err,
			"capsule_id", payload.CapsuleID,
			"event_id", event.ID)
		return fmt.Errorf("invalid capsule ID: %w", err)
	}

	task, err := h.factory.CreateTask(capsuleID)
	if err != nil {
		h.logger.Error("failed to create delivery task",
			"error", err,
			"capsule_id", capsuleID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create delivery task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit delivery task",
			"error", err,
			"task_id", task.ID(),
			"capsule_id", capsuleID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit delivery task: %w", err)
	}

	h.logger.Info("delivery task submitted",
		"task_id", task.ID(),
		"capsule_id", capsuleID,
		"event_id", event.ID)
	return nil
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
