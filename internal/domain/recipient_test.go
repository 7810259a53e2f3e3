package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecipient(t *testing.T) {
	t.Parallel()

	capsuleID := uuid.New()

	tests := []struct {
		name      string
		capsuleID uuid.UUID
		email     string
		wantErr   error
	}{
		{
			name:      "valid recipient",
			capsuleID: capsuleID,
			email:     "friend@example.com",
			wantErr:   nil,
		},
		{
			name:      "empty capsule ID",
			capsuleID: uuid.Nil,
			email:     "friend@example.com",
			wantErr:   ErrEmptyRecipientCapsuleID,
		},
		{
			name:      "empty email",
			capsuleID: capsuleID,
			email:     "",
			wantErr:   ErrEmptyRecipientEmail,
		},
		{
			name:      "invalid email",
			capsuleID: capsuleID,
			email:     "not-an-email",
			wantErr:   ErrInvalidEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipient, err := NewRecipient(tt.capsuleID, tt.email)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, recipient)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, RecipientStatusPending, recipient.Status)
			assert.NotEqual(t, uuid.Nil, recipient.AccessToken)
			assert.Nil(t, recipient.SentAt)
		})
	}
}

func TestRecipientMarkSent(t *testing.T) {
	t.Parallel()

	recipient, err := NewRecipient(uuid.New(), "friend@example.com")
	require.NoError(t, err)

	sentAt := time.Now()
	recipient.MarkSent(sentAt)

	assert.Equal(t, RecipientStatusSent, recipient.Status)
	require.NotNil(t, recipient.SentAt)
	assert.Equal(t, sentAt.UTC(), *recipient.SentAt)
}
