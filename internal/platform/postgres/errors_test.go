package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/capsule-api/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{
			name:    "nil error",
			err:     nil,
			wantErr: nil,
		},
		{
			name:    "no rows maps to not found",
			err:     sql.ErrNoRows,
			wantErr: store.ErrNotFound,
		},
		{
			name:    "unique violation maps to duplicate",
			err:     &pgconn.PgError{Code: uniqueViolationCode},
			wantErr: store.ErrDuplicate,
		},
		{
			name:    "foreign key violation maps to invalid entity",
			err:     &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "fk_owner"},
			wantErr: store.ErrInvalidEntity,
		},
		{
			name:    "check violation maps to invalid entity",
			err:     &pgconn.PgError{Code: checkViolationCode},
			wantErr: store.ErrInvalidEntity,
		},
		{
			name:    "not null violation maps to invalid entity",
			err:     &pgconn.PgError{Code: notNullViolationCode, ColumnName: "title"},
			wantErr: store.ErrInvalidEntity,
		},
		{
			name:    "unknown error passes through",
			err:     errors.New("connection refused"),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapError(tt.err)

			if tt.err == nil {
				assert.NoError(t, mapped)
				return
			}
			if tt.wantErr == nil {
				assert.Equal(t, tt.err, mapped)
				return
			}
			assert.ErrorIs(t, mapped, tt.wantErr)
		})
	}
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	uniqueErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "users_email_key"}

	mapped := MapUniqueViolation(uniqueErr, store.ErrEmailExists)
	assert.ErrorIs(t, mapped, store.ErrEmailExists)
	assert.ErrorIs(t, mapped, store.ErrDuplicate)

	// Non-unique errors pass through untouched.
	plain := fmt.Errorf("some other failure")
	assert.Equal(t, plain, MapUniqueViolation(plain, store.ErrEmailExists))
}
