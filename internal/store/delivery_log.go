package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
)

// DeliveryLogStore defines the interface for delivery log persistence.
// Logs are append-only; there are no update or delete operations.
type DeliveryLogStore interface {
	// Create saves a delivery attempt record.
	Create(ctx context.Context, log *domain.DeliveryLog) error

	// ListByCapsule retrieves all delivery attempts for a capsule,
	// newest first.
	ListByCapsule(ctx context.Context, capsuleID uuid.UUID) ([]*domain.DeliveryLog, error)

	// WithTx returns a new DeliveryLogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) DeliveryLogStore
}
