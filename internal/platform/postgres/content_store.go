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

// PostgresContentStore implements the store.ContentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresContentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresContentStore creates a new PostgreSQL implementation of the ContentStore interface.
func NewPostgresContentStore(db store.DBTX) *PostgresContentStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresContentStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "content_store")),
	}
}

// Ensure PostgresContentStore implements store.ContentStore interface
var _ store.ContentStore = (*PostgresContentStore)(nil)

const contentColumns = `id, capsule_id, kind, text_content, object_key,
	file_name, content_type, position, created_at`

// CreateMultiple implements store.ContentStore.CreateMultiple
// Run this within a transaction via WithTx and store.RunInTransaction so a
// failing insert does not leave a partially populated capsule.
func (s *PostgresContentStore) CreateMultiple(ctx context.Context, contents []*domain.CapsuleContent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, content := range contents {
		if err := content.Validate(); err != nil {
			log.Warn("content validation failed during create",
				slog.String("error", err.Error()),
				slog.String("content_id", content.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO capsule_contents (` + contentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, content := range contents {
		_, err := s.db.ExecContext(
			ctx,
			query,
			content.ID,
			content.CapsuleID,
			content.Kind,
			nullString(content.Text),
			nullString(content.ObjectKey),
			nullString(content.FileName),
			nullString(content.ContentType),
			content.Position,
			content.CreatedAt,
		)
		if err != nil {
			log.Error("failed to create capsule content",
				slog.String("error", err.Error()),
				slog.String("content_id", content.ID.String()),
				slog.String("capsule_id", content.CapsuleID.String()))
			return MapError(err)
		}
	}

	log.Debug("capsule contents created",
		slog.Int("count", len(contents)))
	return nil
}

// ListByCapsule implements store.ContentStore.ListByCapsule
func (s *PostgresContentStore) ListByCapsule(ctx context.Context, capsuleID uuid.UUID) ([]*domain.CapsuleContent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + contentColumns + `
		FROM capsule_contents
		WHERE capsule_id = $1
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, capsuleID)
	if err != nil {
		log.Error("failed to query capsule contents",
			slog.String("error", err.Error()),
			slog.String("capsule_id", capsuleID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	contents := []*domain.CapsuleContent{}
	for rows.Next() {
		var content domain.CapsuleContent
		var kind string
		var text, objectKey, fileName, contentType sql.NullString

		err := rows.Scan(
			&content.ID,
			&content.CapsuleID,
			&kind,
			&text,
			&objectKey,
			&fileName,
			&contentType,
			&content.Position,
			&content.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan content row", slog.String("error", err.Error()))
			return nil, err
		}

		content.Kind = domain.ContentKind(kind)
		content.Text = text.String
		content.ObjectKey = objectKey.String
		content.FileName = fileName.String
		content.ContentType = contentType.String
		contents = append(contents, &content)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return contents, nil
}

// Delete implements store.ContentStore.Delete
func (s *PostgresContentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM capsule_contents WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrContentNotFound
	}

	return nil
}

// WithTx implements store.ContentStore.WithTx
func (s *PostgresContentStore) WithTx(tx *sql.Tx) store.ContentStore {
	return &PostgresContentStore{
		db:     tx,
		logger: s.logger,
	}
}
