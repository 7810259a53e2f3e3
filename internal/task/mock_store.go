package task

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTaskStore implements the TaskStore interface for testing. Default
// behavior keeps tasks in memory; override the Fn fields to customize.
type MockTaskStore struct {
	mutex           sync.RWMutex
	tasks           map[uuid.UUID]Task
	taskStatusTimes map[uuid.UUID]time.Time
	SaveFn          func(ctx context.Context, task Task) error
	UpdateStatusFn  func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// NewMockTaskStore creates a MockTaskStore with in-memory defaults.
func NewMockTaskStore() *MockTaskStore {
	store := &MockTaskStore{
		tasks:           make(map[uuid.UUID]Task),
		taskStatusTimes: make(map[uuid.UUID]time.Time),
	}

	store.SaveFn = func(ctx context.Context, task Task) error {
		store.mutex.Lock()
		defer store.mutex.Unlock()

		mockTask, ok := task.(*MockTask)
		if !ok {
			mockTask = NewMockTask(task.ID(), task.Type(), task.Payload())
			mockTask.TaskStatus = task.Status()
		}

		store.tasks[task.ID()] = mockTask
		store.taskStatusTimes[task.ID()] = time.Now()
		return nil
	}

	store.UpdateStatusFn = func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
		store.mutex.Lock()
		defer store.mutex.Unlock()

		task, exists := store.tasks[taskID]
		if !exists {
			return nil
		}

		mockTask := task.(*MockTask)
		mockTask.TaskStatus = status
		store.taskStatusTimes[taskID] = time.Now()
		return nil
	}

	return store
}

func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	return s.SaveFn(ctx, task)
}

func (s *MockTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
}

func (s *MockTaskStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var pending []Task
	for _, task := range s.tasks {
		if task.Status() == TaskStatusPending {
			pending = append(pending, task)
		}
	}
	return pending, nil
}

func (s *MockTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var processing []Task
	now := time.Now()
	for _, task := range s.tasks {
		if task.Status() != TaskStatusProcessing {
			continue
		}
		statusTime, exists := s.taskStatusTimes[task.ID()]
		if olderThan == 0 || (exists && now.Sub(statusTime) > olderThan) {
			processing = append(processing, task)
		}
	}
	return processing, nil
}

// WithTx returns the same store; the mock has no transaction semantics.
func (s *MockTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}

// TaskStatusFor reports the stored status of a task, for assertions.
func (s *MockTaskStore) TaskStatusFor(taskID uuid.UUID) (TaskStatus, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	task, exists := s.tasks[taskID]
	if !exists {
		return "", false
	}
	return task.Status(), true
}
