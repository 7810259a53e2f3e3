package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the outcome of a single delivery attempt.
type DeliveryStatus string

// Possible delivery status values
const (
	DeliveryStatusSuccess DeliveryStatus = "success"
	DeliveryStatusFailure DeliveryStatus = "failure"
	DeliveryStatusPending DeliveryStatus = "pending"
)

// DeliveryLog records one delivery attempt for a capsule: who it was sent
// to, how, and what happened. Logs are append-only.
type DeliveryLog struct {
	ID             uuid.UUID      `json:"id"`
	CapsuleID      uuid.UUID      `json:"capsule_id"`
	RecipientEmail string         `json:"recipient_email"`
	Method         DeliveryMethod `json:"method"`
	Status         DeliveryStatus `json:"status"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	Details        string         `json:"details,omitempty"`
	AttemptedAt    time.Time      `json:"attempted_at"`
}

// NewDeliveryLog creates a DeliveryLog entry for a capsule delivery attempt.
func NewDeliveryLog(
	capsuleID uuid.UUID,
	recipientEmail string,
	method DeliveryMethod,
	status DeliveryStatus,
	errorMessage, details string,
) *DeliveryLog {
	return &DeliveryLog{
		ID:             uuid.New(),
		CapsuleID:      capsuleID,
		RecipientEmail: recipientEmail,
		Method:         method,
		Status:         status,
		ErrorMessage:   errorMessage,
		Details:        details,
		AttemptedAt:    time.Now().UTC(),
	}
}
