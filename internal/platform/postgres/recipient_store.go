package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/platform/logger"
	"github.com/phrazzld/capsule-api/internal/store"
)

// PostgresRecipientStore implements the store.RecipientStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRecipientStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRecipientStore creates a new PostgreSQL implementation of the RecipientStore interface.
func NewPostgresRecipientStore(db store.DBTX) *PostgresRecipientStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresRecipientStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "recipient_store")),
	}
}

// Ensure PostgresRecipientStore implements store.RecipientStore interface
var _ store.RecipientStore = (*PostgresRecipientStore)(nil)

const recipientColumns = `id, capsule_id, email, user_id, status, sent_at,
	access_token, token_generated_at`

// Create implements store.RecipientStore.Create
func (s *PostgresRecipientStore) Create(ctx context.Context, recipient *domain.Recipient) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := recipient.Validate(); err != nil {
		log.Warn("recipient validation failed during create",
			slog.String("error", err.Error()),
			slog.String("recipient_id", recipient.ID.String()))
		return err
	}

	query := `
		INSERT INTO capsule_recipients (` + recipientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		recipient.ID,
		recipient.CapsuleID,
		recipient.Email,
		recipient.UserID,
		recipient.Status,
		recipient.SentAt,
		recipient.AccessToken,
		recipient.TokenGeneratedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("recipient already exists for capsule",
				slog.String("capsule_id", recipient.CapsuleID.String()))
			return MapUniqueViolation(err, store.ErrRecipientExists)
		}
		log.Error("failed to create recipient",
			slog.String("error", err.Error()),
			slog.String("recipient_id", recipient.ID.String()),
			slog.String("capsule_id", recipient.CapsuleID.String()))
		return MapError(err)
	}

	log.Info("recipient created successfully",
		slog.String("recipient_id", recipient.ID.String()),
		slog.String("capsule_id", recipient.CapsuleID.String()))
	return nil
}

// GetByAccessToken implements store.RecipientStore.GetByAccessToken
func (s *PostgresRecipientStore) GetByAccessToken(ctx context.Context, token uuid.UUID) (*domain.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM capsule_recipients WHERE access_token = $1`

	recipient, err := scanRecipient(s.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRecipientNotFound
		}
		return nil, MapError(err)
	}
	return recipient, nil
}

// ListByCapsule implements store.RecipientStore.ListByCapsule
func (s *PostgresRecipientStore) ListByCapsule(ctx context.Context, capsuleID uuid.UUID) ([]*domain.Recipient, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + recipientColumns + ` FROM capsule_recipients WHERE capsule_id = $1`

	rows, err := s.db.QueryContext(ctx, query, capsuleID)
	if err != nil {
		log.Error("failed to query recipients",
			slog.String("error", err.Error()),
			slog.String("capsule_id", capsuleID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	recipients := []*domain.Recipient{}
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			log.Error("failed to scan recipient row", slog.String("error", err.Error()))
			return nil, err
		}
		recipients = append(recipients, recipient)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return recipients, nil
}

// Update implements store.RecipientStore.Update
func (s *PostgresRecipientStore) Update(ctx context.Context, recipient *domain.Recipient) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := recipient.Validate(); err != nil {
		log.Warn("recipient validation failed during update",
			slog.String("error", err.Error()),
			slog.String("recipient_id", recipient.ID.String()))
		return err
	}

	query := `
		UPDATE capsule_recipients
		SET email = $1, user_id = $2, status = $3, sent_at = $4,
		    access_token = $5, token_generated_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		recipient.Email,
		recipient.UserID,
		recipient.Status,
		recipient.SentAt,
		recipient.AccessToken,
		recipient.TokenGeneratedAt,
		recipient.ID,
	)
	if err != nil {
		log.Error("failed to update recipient",
			slog.String("error", err.Error()),
			slog.String("recipient_id", recipient.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrRecipientNotFound
	}

	return nil
}

// WithTx implements store.RecipientStore.WithTx
func (s *PostgresRecipientStore) WithTx(tx *sql.Tx) store.RecipientStore {
	return &PostgresRecipientStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanRecipient(row rowScanner) (*domain.Recipient, error) {
	var recipient domain.Recipient
	var status string

	err := row.Scan(
		&recipient.ID,
		&recipient.CapsuleID,
		&recipient.Email,
		&recipient.UserID,
		&status,
		&recipient.SentAt,
		&recipient.AccessToken,
		&recipient.TokenGeneratedAt,
	)
	if err != nil {
		return nil, err
	}

	recipient.Status = domain.RecipientStatus(status)
	return &recipient, nil
}
