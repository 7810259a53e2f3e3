package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/platform/logger"
	"github.com/phrazzld/capsule-api/internal/store"
)

// PostgresDeliveryLogStore implements the store.DeliveryLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeliveryLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeliveryLogStore creates a new PostgreSQL implementation of the DeliveryLogStore interface.
func NewPostgresDeliveryLogStore(db store.DBTX) *PostgresDeliveryLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresDeliveryLogStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "delivery_log_store")),
	}
}

// Ensure PostgresDeliveryLogStore implements store.DeliveryLogStore interface
var _ store.DeliveryLogStore = (*PostgresDeliveryLogStore)(nil)

// Create implements store.DeliveryLogStore.Create
func (s *PostgresDeliveryLogStore) Create(ctx context.Context, deliveryLog *domain.DeliveryLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO delivery_logs (id, capsule_id, recipient_email, method,
			status, error_message, details, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		deliveryLog.ID,
		deliveryLog.CapsuleID,
		deliveryLog.RecipientEmail,
		deliveryLog.Method,
		deliveryLog.Status,
		nullString(deliveryLog.ErrorMessage),
		nullString(deliveryLog.Details),
		deliveryLog.AttemptedAt,
	)
	if err != nil {
		log.Error("failed to create delivery log",
			slog.String("error", err.Error()),
			slog.String("capsule_id", deliveryLog.CapsuleID.String()))
		return MapError(err)
	}

	return nil
}

// ListByCapsule implements store.DeliveryLogStore.ListByCapsule
func (s *PostgresDeliveryLogStore) ListByCapsule(ctx context.Context, capsuleID uuid.UUID) ([]*domain.DeliveryLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, capsule_id, recipient_email, method, status,
			error_message, details, attempted_at
		FROM delivery_logs
		WHERE capsule_id = $1
		ORDER BY attempted_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, capsuleID)
	if err != nil {
		log.Error("failed to query delivery logs",
			slog.String("error", err.Error()),
			slog.String("capsule_id", capsuleID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	logs := []*domain.DeliveryLog{}
	for rows.Next() {
		var entry domain.DeliveryLog
		var method, status string
		var errorMessage, details sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.CapsuleID,
			&entry.RecipientEmail,
			&method,
			&status,
			&errorMessage,
			&details,
			&entry.AttemptedAt,
		)
		if err != nil {
			log.Error("failed to scan delivery log row", slog.String("error", err.Error()))
			return nil, err
		}

		entry.Method = domain.DeliveryMethod(method)
		entry.Status = domain.DeliveryStatus(status)
		entry.ErrorMessage = errorMessage.String
		entry.Details = details.String
		logs = append(logs, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return logs, nil
}

// WithTx implements store.DeliveryLogStore.WithTx
func (s *PostgresDeliveryLogStore) WithTx(tx *sql.Tx) store.DeliveryLogStore {
	return &PostgresDeliveryLogStore{
		db:     tx,
		logger: s.logger,
	}
}
