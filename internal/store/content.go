package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
)

// ContentStore defines the interface for capsule content persistence.
type ContentStore interface {
	// CreateMultiple saves multiple content items to the store.
	// This method MUST be run within a transaction for atomicity.
	// Use WithTx together with store.RunInTransaction so a failing
	// insert does not leave a partially populated capsule.
	CreateMultiple(ctx context.Context, contents []*domain.CapsuleContent) error

	// ListByCapsule retrieves all content items for a capsule ordered
	// by position.
	ListByCapsule(ctx context.Context, capsuleID uuid.UUID) ([]*domain.CapsuleContent, error)

	// Delete removes a content item from the store by its ID.
	// Returns ErrContentNotFound if the item does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new ContentStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ContentStore
}
