package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/store"
)

// MockRecipientStore implements store.RecipientStore for testing.
type MockRecipientStore struct {
	CreateFn           func(ctx context.Context, recipient *domain.Recipient) error
	GetByAccessTokenFn func(ctx context.Context, token uuid.UUID) (*domain.Recipient, error)
	ListByCapsuleFn    func(ctx context.Context, capsuleID uuid.UUID) ([]*domain.Recipient, error)
	UpdateFn           func(ctx context.Context, recipient *domain.Recipient) error

	// Recipients backs the default in-memory behavior, keyed by ID.
	Recipients map[uuid.UUID]*domain.Recipient
}

// NewMockRecipientStore creates a mock store with an empty recipient map.
func NewMockRecipientStore() *MockRecipientStore {
	return &MockRecipientStore{Recipients: make(map[uuid.UUID]*domain.Recipient)}
}

func (m *MockRecipientStore) Create(ctx context.Context, recipient *domain.Recipient) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, recipient)
	}
	for _, existing := range m.Recipients {
		if existing.CapsuleID == recipient.CapsuleID && existing.Email == recipient.Email {
			return store.ErrRecipientExists
		}
	}
	m.Recipients[recipient.ID] = recipient
	return nil
}

func (m *MockRecipientStore) GetByAccessToken(ctx context.Context, token uuid.UUID) (*domain.Recipient, error) {
	if m.GetByAccessTokenFn != nil {
		return m.GetByAccessTokenFn(ctx, token)
	}
	for _, recipient := range m.Recipients {
		if recipient.AccessToken == token {
			return recipient, nil
		}
	}
	return nil, store.ErrRecipientNotFound
}

func (m *MockRecipientStore) ListByCapsule(ctx context.Context, capsuleID uuid.UUID) ([]*domain.Recipient, error) {
	if m.ListByCapsuleFn != nil {
		return m.ListByCapsuleFn(ctx, capsuleID)
	}
	var recipients []*domain.Recipient
	for _, recipient := range m.Recipients {
		if recipient.CapsuleID == capsuleID {
			recipients = append(recipients, recipient)
		}
	}
	return recipients, nil
}

func (m *MockRecipientStore) Update(ctx context.Context, recipient *domain.Recipient) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, recipient)
	}
	if _, exists := m.Recipients[recipient.ID]; !exists {
		return store.ErrRecipientNotFound
	}
	m.Recipients[recipient.ID] = recipient
	return nil
}

// WithTx returns the same mock; transactions are not simulated.
func (m *MockRecipientStore) WithTx(tx *sql.Tx) store.RecipientStore {
	return m
}

var _ store.RecipientStore = (*MockRecipientStore)(nil)
