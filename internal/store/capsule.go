package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
)

// CapsuleStore defines the interface for capsule data persistence.
type CapsuleStore interface {
	// Create saves a new capsule to the store.
	// Returns validation errors from the domain Capsule if data is invalid.
	Create(ctx context.Context, capsule *domain.Capsule) error

	// GetByID retrieves a capsule by its unique ID.
	// Returns ErrCapsuleNotFound if the capsule does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Capsule, error)

	// ListByOwner retrieves the given user's non-archived capsules,
	// newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Capsule, error)

	// ListDue retrieves capsules whose scheduled delivery time is at or
	// before the given instant and that have not been delivered yet,
	// oldest schedule first, capped at limit.
	ListDue(ctx context.Context, due time.Time, limit int) ([]*domain.Capsule, error)

	// Update modifies an existing capsule's details and lifecycle flags.
	// Returns ErrCapsuleNotFound if the capsule does not exist.
	Update(ctx context.Context, capsule *domain.Capsule) error

	// Delete removes a capsule from the store by its ID.
	// Returns ErrCapsuleNotFound if the capsule does not exist.
	//
	// Associated contents, recipients, and delivery logs are removed by
	// ON DELETE CASCADE constraints in the schema. Media objects in
	// storage are the service layer's responsibility.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CapsuleStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) CapsuleStore
}
