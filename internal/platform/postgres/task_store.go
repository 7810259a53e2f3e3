package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/platform/logger"
	"github.com/phrazzld/capsule-api/internal/store"
	"github.com/phrazzld/capsule-api/internal/task"
)

// TaskReconstructor rebuilds an executable task from its persisted form.
// Recovery after a restart needs this because the database only stores the
// task's type and payload, not its wired dependencies.
type TaskReconstructor interface {
	Reconstruct(id uuid.UUID, taskType string, payload []byte, status task.TaskStatus) (task.Task, error)
}

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db      store.DBTX
	factory TaskReconstructor
	logger  *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore. factory may be nil,
// in which case recovered tasks are inert and fail on execution.
func NewPostgresTaskStore(db store.DBTX, factory TaskReconstructor) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresTaskStore{
		db:      db,
		factory: factory,
		logger:  slog.Default().With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask persists a task to the database.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save task to database: %w", err)
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database.
// A missing task is treated as a no-op.
func (s *PostgresTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status task.TaskStatus, errorMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		status,
		nullString(errorMsg),
		time.Now().UTC(),
		taskID,
	)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Warn("no task found with ID to update status",
			slog.String("task_id", taskID.String()))
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status.
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status, optionally
// filtered to those untouched for longer than olderThan.
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

// WithTx implements task.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{
		db:      tx,
		factory: s.factory,
		logger:  s.logger,
	}
}

func (s *PostgresTaskStore) getTasksByStatus(ctx context.Context, status task.TaskStatus, olderThan time.Duration) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var query string
	var args []any

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []any{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status
			FROM tasks
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []any{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query tasks by status: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []task.Task
	for rows.Next() {
		var id uuid.UUID
		var taskType string
		var payload []byte
		var taskStatus task.TaskStatus

		if err := rows.Scan(&id, &taskType, &payload, &taskStatus); err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		if s.factory != nil {
			t, err := s.factory.Reconstruct(id, taskType, payload, taskStatus)
			if err == nil {
				tasks = append(tasks, t)
				continue
			}
			log.Error("failed to reconstruct task, keeping inert record",
				slog.String("task_id", id.String()),
				slog.String("task_type", taskType),
				slog.String("error", err.Error()))
		}

		tasks = append(tasks, &inertTask{
			id:       id,
			taskType: taskType,
			payload:  payload,
			status:   taskStatus,
		})
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// inertTask carries persisted task data that could not be rebuilt into an
// executable task. Executing it always fails so the runner marks it failed
// instead of silently dropping it.
type inertTask struct {
	id       uuid.UUID
	taskType string
	payload  []byte
	status   task.TaskStatus
}

func (t *inertTask) ID() uuid.UUID { return t.id }

func (t *inertTask) Type() string { return t.taskType }

func (t *inertTask) Payload() []byte { return t.payload }

func (t *inertTask) Status() task.TaskStatus { return t.status }

func (t *inertTask) Execute(ctx context.Context) error {
	return fmt.Errorf("task type %q cannot be executed after recovery", t.taskType)
}
