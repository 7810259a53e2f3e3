package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
)

// UserStore defines the interface for user account persistence.
type UserStore interface {
	// Create saves a new user. A plaintext Password, when set, is hashed
	// before the row is written and never stored. Returns ErrEmailExists
	// if the email is already taken, or a domain validation error.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID, including the OTP fields used for
	// verification and password reset. Returns ErrUserNotFound if no such
	// user exists. The plaintext password is never populated.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	// Returns ErrUserNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update writes the full user row. Callers must pass a complete user
	// including HashedPassword; if a plaintext Password is set it is hashed
	// and replaces the stored hash. Returns ErrUserNotFound for unknown IDs
	// and ErrEmailExists when changing to an email already in use.
	Update(ctx context.Context, user *domain.User) error

	// Delete permanently removes a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to the given transaction. The
	// transaction is created and managed by the caller, typically a service
	// running several writes atomically.
	WithTx(tx *sql.Tx) UserStore
}
