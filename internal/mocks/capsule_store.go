package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/store"
)

// MockCapsuleStore implements store.CapsuleStore for testing.
type MockCapsuleStore struct {
	CreateFn      func(ctx context.Context, capsule *domain.Capsule) error
	GetByIDFn     func(ctx context.Context, id uuid.UUID) (*domain.Capsule, error)
	ListByOwnerFn func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Capsule, error)
	ListDueFn     func(ctx context.Context, due time.Time, limit int) ([]*domain.Capsule, error)
	UpdateFn      func(ctx context.Context, capsule *domain.Capsule) error
	DeleteFn      func(ctx context.Context, id uuid.UUID) error

	// Capsules backs the default in-memory behavior, keyed by ID.
	Capsules map[uuid.UUID]*domain.Capsule
}

// NewMockCapsuleStore creates a mock store with an empty capsule map.
func NewMockCapsuleStore() *MockCapsuleStore {
	return &MockCapsuleStore{Capsules: make(map[uuid.UUID]*domain.Capsule)}
}

func (m *MockCapsuleStore) Create(ctx context.Context, capsule *domain.Capsule) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, capsule)
	}
	m.Capsules[capsule.ID] = capsule
	return nil
}

func (m *MockCapsuleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Capsule, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	capsule, exists := m.Capsules[id]
	if !exists {
		return nil, store.ErrCapsuleNotFound
	}
	return capsule, nil
}

func (m *MockCapsuleStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Capsule, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, ownerID)
	}
	var capsules []*domain.Capsule
	for _, capsule := range m.Capsules {
		if capsule.OwnerID == ownerID && !capsule.Archived {
			capsules = append(capsules, capsule)
		}
	}
	sort.Slice(capsules, func(i, j int) bool {
		return capsules[i].CreatedAt.After(capsules[j].CreatedAt)
	})
	return capsules, nil
}

func (m *MockCapsuleStore) ListDue(ctx context.Context, due time.Time, limit int) ([]*domain.Capsule, error) {
	if m.ListDueFn != nil {
		return m.ListDueFn(ctx, due, limit)
	}
	var capsules []*domain.Capsule
	for _, capsule := range m.Capsules {
		if !capsule.Delivered && !capsule.DeliveryAt.After(due) {
			capsules = append(capsules, capsule)
		}
	}
	sort.Slice(capsules, func(i, j int) bool {
		return capsules[i].DeliveryAt.Before(capsules[j].DeliveryAt)
	})
	if limit > 0 && len(capsules) > limit {
		capsules = capsules[:limit]
	}
	return capsules, nil
}

func (m *MockCapsuleStore) Update(ctx context.Context, capsule *domain.Capsule) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, capsule)
	}
	if _, exists := m.Capsules[capsule.ID]; !exists {
		return store.ErrCapsuleNotFound
	}
	m.Capsules[capsule.ID] = capsule
	return nil
}

func (m *MockCapsuleStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if _, exists := m.Capsules[id]; !exists {
		return store.ErrCapsuleNotFound
	}
	delete(m.Capsules, id)
	return nil
}

// WithTx returns the same mock; transactions are not simulated.
func (m *MockCapsuleStore) WithTx(tx *sql.Tx) store.CapsuleStore {
	return m
}

var _ store.CapsuleStore = (*MockCapsuleStore)(nil)
