package mocks

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/store"
)

// MockDeliveryLogStore implements store.DeliveryLogStore for testing.
type MockDeliveryLogStore struct {
	CreateFn        func(ctx context.Context, log *domain.DeliveryLog) error
	ListByCapsuleFn func(ctx context.Context, capsuleID uuid.UUID) ([]*domain.DeliveryLog, error)

	// Logs backs the default in-memory behavior.
	Logs []*domain.DeliveryLog
}

// NewMockDeliveryLogStore creates an empty mock store.
func NewMockDeliveryLogStore() *MockDeliveryLogStore {
	return &MockDeliveryLogStore{}
}

func (m *MockDeliveryLogStore) Create(ctx context.Context, log *domain.DeliveryLog) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, log)
	}
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *MockDeliveryLogStore) ListByCapsule(ctx context.Context, capsuleID uuid.UUID) ([]*domain.DeliveryLog, error) {
	if m.ListByCapsuleFn != nil {
		return m.ListByCapsuleFn(ctx, capsuleID)
	}
	var logs []*domain.DeliveryLog
	for _, log := range m.Logs {
		if log.CapsuleID == capsuleID {
			logs = append(logs, log)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].AttemptedAt.After(logs[j].AttemptedAt)
	})
	return logs, nil
}

// WithTx returns the same mock; transactions are not simulated.
func (m *MockDeliveryLogStore) WithTx(tx *sql.Tx) store.DeliveryLogStore {
	return m
}

var _ store.DeliveryLogStore = (*MockDeliveryLogStore)(nil)
