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

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the NotificationStore interface.
func NewPostgresNotificationStore(db store.DBTX) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

const notificationColumns = `id, user_id, capsule_id, message, kind, read, read_at, created_at`

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, notification *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := notification.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
		return err
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		notification.ID,
		notification.UserID,
		notification.CapsuleID,
		notification.Message,
		notification.Kind,
		notification.Read,
		notification.ReadAt,
		notification.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()),
			slog.String("user_id", notification.UserID.String()))
		return MapError(err)
	}

	log.Debug("notification created",
		slog.String("notification_id", notification.ID.String()),
		slog.String("kind", string(notification.Kind)))
	return nil
}

// GetByID implements store.NotificationStore.GetByID
func (s *PostgresNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	notification, err := scanNotification(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotificationNotFound
		}
		return nil, MapError(err)
	}
	return notification, nil
}

// ListByUser implements store.NotificationStore.ListByUser
func (s *PostgresNotificationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	notifications := []*domain.Notification{}
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			log.Error("failed to scan notification row", slog.String("error", err.Error()))
			return nil, err
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return notifications, nil
}

// CountUnread implements store.NotificationStore.CountUnread
func (s *PostgresNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`

	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// Update implements store.NotificationStore.Update
func (s *PostgresNotificationStore) Update(ctx context.Context, notification *domain.Notification) error {
	query := `
		UPDATE notifications
		SET read = $1, read_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		notification.Read,
		notification.ReadAt,
		notification.ID,
	)
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrNotificationNotFound
	}

	return nil
}

// MarkAllRead implements store.NotificationStore.MarkAllRead
func (s *PostgresNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE notifications
		SET read = TRUE, read_at = $1
		WHERE user_id = $2 AND read = FALSE
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		log.Error("failed to mark notifications read",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rowsAffected), nil
}

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var notification domain.Notification
	var capsuleID *uuid.UUID
	var kind string

	err := row.Scan(
		&notification.ID,
		&notification.UserID,
		&capsuleID,
		&notification.Message,
		&kind,
		&notification.Read,
		&notification.ReadAt,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	notification.CapsuleID = capsuleID
	notification.Kind = domain.NotificationKind(kind)
	return &notification, nil
}
