package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DeliveryMethod determines how a capsule reaches its recipients.
type DeliveryMethod string

// Possible delivery method values
const (
	DeliveryMethodEmail DeliveryMethod = "email"
	DeliveryMethodInApp DeliveryMethod = "in_app"
	// DeliveryMethodSMS is recorded in the data model but not yet
	// supported by any delivery pipeline.
	DeliveryMethodSMS DeliveryMethod = "sms"
)

// PrivacyStatus determines who can access a capsule's contents.
type PrivacyStatus string

// Possible privacy status values
const (
	PrivacyPrivate PrivacyStatus = "private"
	PrivacyShared  PrivacyStatus = "shared"
)

// Capsule-specific validation errors
var (
	ErrEmptyCapsuleID    = errors.New("capsule ID cannot be empty")
	ErrEmptyCapsuleOwner = errors.New("capsule owner ID cannot be empty")
	ErrEmptyCapsuleTitle = errors.New("capsule title cannot be empty")
	ErrZeroDeliveryTime  = errors.New("capsule delivery time must be set")
	ErrInvalidDelivery   = errors.New("invalid delivery method")
	ErrInvalidPrivacy    = errors.New("invalid privacy status")
)

// Capsule represents a time capsule: metadata, delivery schedule, and
// lifecycle flags. Contents and recipients are stored separately and
// reference the capsule by ID.
type Capsule struct {
	ID             uuid.UUID      `json:"id"`
	OwnerID        uuid.UUID      `json:"owner_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	DeliveryAt     time.Time      `json:"delivery_at"`
	Delivered      bool           `json:"delivered"`
	Unlocked       bool           `json:"unlocked"`
	Archived       bool           `json:"archived"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Privacy        PrivacyStatus  `json:"privacy"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewCapsule creates a new Capsule owned by the given user, scheduled for
// delivery at deliveryAt. It generates a new UUID for the capsule ID and
// sets the creation/update timestamps. Returns an error if validation fails.
func NewCapsule(
	ownerID uuid.UUID,
	title, description string,
	deliveryAt time.Time,
	method DeliveryMethod,
	privacy PrivacyStatus,
) (*Capsule, error) {
	if method == "" {
		method = DeliveryMethodEmail
	}
	if privacy == "" {
		privacy = PrivacyPrivate
	}

	capsule := &Capsule{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Title:          title,
		Description:    description,
		DeliveryAt:     deliveryAt.UTC(),
		DeliveryMethod: method,
		Privacy:        privacy,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := capsule.Validate(); err != nil {
		return nil, err
	}

	return capsule, nil
}

// Validate checks if the Capsule has valid data.
// Returns an error if any field fails validation.
func (c *Capsule) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCapsuleID
	}

	if c.OwnerID == uuid.Nil {
		return ErrEmptyCapsuleOwner
	}

	if c.Title == "" {
		return ErrEmptyCapsuleTitle
	}

	if c.DeliveryAt.IsZero() {
		return ErrZeroDeliveryTime
	}

	if !isValidDeliveryMethod(c.DeliveryMethod) {
		return ErrInvalidDelivery
	}

	if !isValidPrivacyStatus(c.Privacy) {
		return ErrInvalidPrivacy
	}

	return nil
}

// DueForDelivery reports whether the capsule should be dispatched at the
// given reference time: scheduled time reached and not yet delivered.
func (c *Capsule) DueForDelivery(now time.Time) bool {
	return !c.Delivered && !c.DeliveryAt.After(now)
}

// isValidDeliveryMethod checks if the given method is a valid DeliveryMethod.
func isValidDeliveryMethod(m DeliveryMethod) bool {
	switch m {
	case DeliveryMethodEmail, DeliveryMethodInApp, DeliveryMethodSMS:
		return true
	default:
		return false
	}
}

// isValidPrivacyStatus checks if the given status is a valid PrivacyStatus.
func isValidPrivacyStatus(p PrivacyStatus) bool {
	switch p {
	case PrivacyPrivate, PrivacyShared:
		return true
	default:
		return false
	}
}
