package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/platform/logger"
	"github.com/phrazzld/capsule-api/internal/store"
)

// PostgresCapsuleStore implements the store.CapsuleStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCapsuleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCapsuleStore creates a new PostgreSQL implementation of the CapsuleStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
func NewPostgresCapsuleStore(db store.DBTX) *PostgresCapsuleStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresCapsuleStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "capsule_store")),
	}
}

// Ensure PostgresCapsuleStore implements store.CapsuleStore interface
var _ store.CapsuleStore = (*PostgresCapsuleStore)(nil)

const capsuleColumns = `id, owner_id, title, description, delivery_at, delivered,
	unlocked, archived, delivery_method, privacy, created_at, updated_at`

// Create implements store.CapsuleStore.Create
func (s *PostgresCapsuleStore) Create(ctx context.Context, capsule *domain.Capsule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := capsule.Validate(); err != nil {
		log.Warn("capsule validation failed during create",
			slog.String("error", err.Error()),
			slog.String("capsule_id", capsule.ID.String()))
		return err
	}

	query := `
		INSERT INTO capsules (` + capsuleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		capsule.ID,
		capsule.OwnerID,
		capsule.Title,
		capsule.Description,
		capsule.DeliveryAt,
		capsule.Delivered,
		capsule.Unlocked,
		capsule.Archived,
		capsule.DeliveryMethod,
		capsule.Privacy,
		capsule.CreatedAt,
		capsule.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create capsule",
			slog.String("error", err.Error()),
			slog.String("capsule_id", capsule.ID.String()),
			slog.String("owner_id", capsule.OwnerID.String()))
		return MapError(err)
	}

	log.Info("capsule created successfully",
		slog.String("capsule_id", capsule.ID.String()),
		slog.String("owner_id", capsule.OwnerID.String()),
		slog.Time("delivery_at", capsule.DeliveryAt))
	return nil
}

// GetByID implements store.CapsuleStore.GetByID
func (s *PostgresCapsuleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Capsule, error) {
	query := `SELECT ` + capsuleColumns + ` FROM capsules WHERE id = $1`

	capsule, err := scanCapsule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCapsuleNotFound
		}
		return nil, MapError(err)
	}
	return capsule, nil
}

// ListByOwner implements store.CapsuleStore.ListByOwner
// Archived capsules are excluded from the listing.
func (s *PostgresCapsuleStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Capsule, error) {
	query := `
		SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE owner_id = $1 AND archived = FALSE
		ORDER BY created_at DESC
	`
	return s.queryCapsules(ctx, query, ownerID)
}

// ListDue implements store.CapsuleStore.ListDue
func (s *PostgresCapsuleStore) ListDue(ctx context.Context, due time.Time, limit int) ([]*domain.Capsule, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE delivered = FALSE AND delivery_at <= $1
		ORDER BY delivery_at ASC
		LIMIT $2
	`
	return s.queryCapsules(ctx, query, due, limit)
}

// Update implements store.CapsuleStore.Update
func (s *PostgresCapsuleStore) Update(ctx context.Context, capsule *domain.Capsule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := capsule.Validate(); err != nil {
		log.Warn("capsule validation failed during update",
			slog.String("error", err.Error()),
			slog.String("capsule_id", capsule.ID.String()))
		return err
	}

	capsule.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE capsules
		SET title = $1, description = $2, delivery_at = $3, delivered = $4,
		    unlocked = $5, archived = $6, delivery_method = $7, privacy = $8,
		    updated_at = $9
		WHERE id = $10
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		capsule.Title,
		capsule.Description,
		capsule.DeliveryAt,
		capsule.Delivered,
		capsule.Unlocked,
		capsule.Archived,
		capsule.DeliveryMethod,
		capsule.Privacy,
		capsule.UpdatedAt,
		capsule.ID,
	)
	if err != nil {
		log.Error("failed to update capsule",
			slog.String("error", err.Error()),
			slog.String("capsule_id", capsule.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrCapsuleNotFound
	}

	return nil
}

// Delete implements store.CapsuleStore.Delete
func (s *PostgresCapsuleStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM capsules WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete capsule",
			slog.String("error", err.Error()),
			slog.String("capsule_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrCapsuleNotFound
	}

	log.Info("capsule deleted", slog.String("capsule_id", id.String()))
	return nil
}

// WithTx implements store.CapsuleStore.WithTx
func (s *PostgresCapsuleStore) WithTx(tx *sql.Tx) store.CapsuleStore {
	return &PostgresCapsuleStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresCapsuleStore) queryCapsules(ctx context.Context, query string, args ...any) ([]*domain.Capsule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query capsules", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	capsules := []*domain.Capsule{}
	for rows.Next() {
		capsule, err := scanCapsule(rows)
		if err != nil {
			log.Error("failed to scan capsule row", slog.String("error", err.Error()))
			return nil, err
		}
		capsules = append(capsules, capsule)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return capsules, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapsule(row rowScanner) (*domain.Capsule, error) {
	var capsule domain.Capsule
	var method, privacy string

	err := row.Scan(
		&capsule.ID,
		&capsule.OwnerID,
		&capsule.Title,
		&capsule.Description,
		&capsule.DeliveryAt,
		&capsule.Delivered,
		&capsule.Unlocked,
		&capsule.Archived,
		&method,
		&privacy,
		&capsule.CreatedAt,
		&capsule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	capsule.DeliveryMethod = domain.DeliveryMethod(method)
	capsule.Privacy = domain.PrivacyStatus(privacy)
	return &capsule, nil
}
