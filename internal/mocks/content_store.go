package mocks

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/store"
)

// MockContentStore implements store.ContentStore for testing.
type MockContentStore struct {
	CreateMultipleFn func(ctx context.Context, contents []*domain.CapsuleContent) error
	ListByCapsuleFn  func(ctx context.Context, capsuleID uuid.UUID) ([]*domain.CapsuleContent, error)
	DeleteFn         func(ctx context.Context, id uuid.UUID) error

	// Contents backs the default in-memory behavior, keyed by ID.
	Contents map[uuid.UUID]*domain.CapsuleContent
}

// NewMockContentStore creates a mock store with an empty content map.
func NewMockContentStore() *MockContentStore {
	return &MockContentStore{Contents: make(map[uuid.UUID]*domain.CapsuleContent)}
}

func (m *MockContentStore) CreateMultiple(ctx context.Context, contents []*domain.CapsuleContent) error {
	if m.CreateMultipleFn != nil {
		return m.CreateMultipleFn(ctx, contents)
	}
	for _, content := range contents {
		m.Contents[content.ID] = content
	}
	return nil
}

func (m *MockContentStore) ListByCapsule(ctx context.Context, capsuleID uuid.UUID) ([]*domain.CapsuleContent, error) {
	if m.ListByCapsuleFn != nil {
		return m.ListByCapsuleFn(ctx, capsuleID)
	}
	var contents []*domain.CapsuleContent
	for _, content := range m.Contents {
		if content.CapsuleID == capsuleID {
			contents = append(contents, content)
		}
	}
	sort.Slice(contents, func(i, j int) bool {
		return contents[i].Position < contents[j].Position
	})
	return contents, nil
}

func (m *MockContentStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if _, exists := m.Contents[id]; !exists {
		return store.ErrContentNotFound
	}
	delete(m.Contents, id)
	return nil
}

// WithTx returns the same mock; transactions are not simulated.
func (m *MockContentStore) WithTx(tx *sql.Tx) store.ContentStore {
	return m
}

var _ store.ContentStore = (*MockContentStore)(nil)
