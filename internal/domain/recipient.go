package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RecipientStatus tracks delivery progress per recipient.
type RecipientStatus string

// Possible recipient status values
const (
	RecipientStatusPending RecipientStatus = "pending"
	RecipientStatusSent    RecipientStatus = "sent"
	RecipientStatusFailed  RecipientStatus = "failed"
	RecipientStatusOpened  RecipientStatus = "opened"
)

// Recipient-specific validation errors
var (
	ErrEmptyRecipientID        = errors.New("recipient ID cannot be empty")
	ErrEmptyRecipientCapsuleID = errors.New("recipient capsule ID cannot be empty")
	ErrEmptyRecipientEmail     = errors.New("recipient email cannot be empty")
	ErrInvalidRecipientStatus  = errors.New("invalid recipient status")
)

// Recipient identifies who will receive a capsule. The access token is a
// bearer capability: anyone holding it can open the recipient's view of
// the capsule once the delivery time has passed.
type Recipient struct {
	ID               uuid.UUID       `json:"id"`
	CapsuleID        uuid.UUID       `json:"capsule_id"`
	Email            string          `json:"email"`
	UserID           *uuid.UUID      `json:"user_id,omitempty"` // Set when the recipient is also a registered user
	Status           RecipientStatus `json:"status"`
	SentAt           *time.Time      `json:"sent_at,omitempty"`
	AccessToken      uuid.UUID       `json:"-"` // Never exposed in owner-facing responses
	TokenGeneratedAt time.Time       `json:"-"`
}

// NewRecipient creates a pending Recipient for the given capsule with a
// fresh access token. Returns an error if validation fails.
func NewRecipient(capsuleID uuid.UUID, email string) (*Recipient, error) {
	recipient := &Recipient{
		ID:               uuid.New(),
		CapsuleID:        capsuleID,
		Email:            NormalizeEmail(email),
		Status:           RecipientStatusPending,
		AccessToken:      uuid.New(),
		TokenGeneratedAt: time.Now().UTC(),
	}

	if err := recipient.Validate(); err != nil {
		return nil, err
	}

	return recipient, nil
}

// Validate checks if the Recipient has valid data.
// Returns an error if any field fails validation.
func (r *Recipient) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRecipientID
	}

	if r.CapsuleID == uuid.Nil {
		return ErrEmptyRecipientCapsuleID
	}

	if r.Email == "" {
		return ErrEmptyRecipientEmail
	}

	if !validateEmailFormat(r.Email) {
		return ErrInvalidEmail
	}

	if !isValidRecipientStatus(r.Status) {
		return ErrInvalidRecipientStatus
	}

	return nil
}

// MarkSent transitions the recipient to sent and records the send time.
func (r *Recipient) MarkSent(at time.Time) {
	r.Status = RecipientStatusSent
	t := at.UTC()
	r.SentAt = &t
}

// isValidRecipientStatus checks if the given status is a valid RecipientStatus.
func isValidRecipientStatus(s RecipientStatus) bool {
	switch s {
	case RecipientStatusPending, RecipientStatusSent,
		RecipientStatusFailed, RecipientStatusOpened:
		return true
	default:
		return false
	}
}
