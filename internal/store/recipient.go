package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
)

// RecipientStore defines the interface for recipient data persistence.
type RecipientStore interface {
	// Create saves a new recipient to the store.
	// Returns ErrRecipientExists if the capsule already has a recipient
	// with the same email.
	Create(ctx context.Context, recipient *domain.Recipient) error

	// GetByAccessToken retrieves a recipient by their access token.
	// Returns ErrRecipientNotFound if no recipient holds the token.
	GetByAccessToken(ctx context.Context, token uuid.UUID) (*domain.Recipient, error)

	// ListByCapsule retrieves all recipients of a capsule.
	ListByCapsule(ctx context.Context, capsuleID uuid.UUID) ([]*domain.Recipient, error)

	// Update modifies an existing recipient's status and send metadata.
	// Returns ErrRecipientNotFound if the recipient does not exist.
	Update(ctx context.Context, recipient *domain.Recipient) error

	// WithTx returns a new RecipientStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) RecipientStore
}
