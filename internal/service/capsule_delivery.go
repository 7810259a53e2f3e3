package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/store"
)

// DeliverCapsule delivers a capsule to all of its recipients. It is
// idempotent: recipients already marked sent or opened are skipped, so a
// retry after a partial failure only touches the remaining ones. The
// capsule is marked delivered and unlocked only when every recipient has
// been reached; otherwise an error is returned so the caller retries.
func (s *CapsuleServiceImpl) DeliverCapsule(ctx context.Context, capsuleID uuid.UUID) error {
	capsule, err := s.capsules.GetByID(ctx, capsuleID)
	if err != nil {
		return fmt.Errorf("failed to retrieve capsule: %w", err)
	}
	if capsule.Delivered {
		s.logger.Debug("capsule already delivered", "capsule_id", capsuleID)
		return nil
	}

	owner, err := s.users.GetByID(ctx, capsule.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to retrieve capsule owner: %w", err)
	}

	recipients, err := s.recipients.ListByCapsule(ctx, capsuleID)
	if err != nil {
		return fmt.Errorf("failed to list recipients: %w", err)
	}

	message, err := s.leadingTextContent(ctx, capsuleID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var logs []*domain.DeliveryLog
	var touched []*domain.Recipient
	var inAppNotifications []*domain.Notification
	var failed int

	for _, recipient := range recipients {
		if recipient.Status == domain.RecipientStatusSent ||
			recipient.Status == domain.RecipientStatusOpened {
			continue
		}

		notification, sendErr := s.sendToRecipient(ctx, capsule, owner, recipient, message)
		if sendErr != nil {
			failed++
			recipient.Status = domain.RecipientStatusFailed
			logs = append(logs, domain.NewDeliveryLog(capsuleID, recipient.Email,
				capsule.DeliveryMethod, domain.DeliveryStatusFailure, sendErr.Error(), ""))
			s.logger.Error("failed to deliver to recipient",
				"capsule_id", capsuleID,
				"recipient_id", recipient.ID,
				"error", sendErr)
		} else {
			recipient.MarkSent(now)
			logs = append(logs, domain.NewDeliveryLog(capsuleID, recipient.Email,
				capsule.DeliveryMethod, domain.DeliveryStatusSuccess, "",
				fmt.Sprintf("delivered via %s", capsule.DeliveryMethod)))
			if notification != nil {
				inAppNotifications = append(inAppNotifications, notification)
			}
		}
		touched = append(touched, recipient)
	}

	delivered := failed == 0
	if delivered {
		capsule.Delivered = true
		capsule.Unlocked = true
		capsule.UpdatedAt = now
	}

	ownerNotification, err := s.deliveryOutcomeNotification(capsule, delivered, failed)
	if err != nil {
		return err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		recipientStore := s.recipients.WithTx(tx)
		for _, recipient := range touched {
			if err := recipientStore.Update(ctx, recipient); err != nil {
				return err
			}
		}

		logStore := s.deliveryLogs.WithTx(tx)
		for _, log := range logs {
			if err := logStore.Create(ctx, log); err != nil {
				return err
			}
		}

		notificationStore := s.notifications.WithTx(tx)
		for _, notification := range inAppNotifications {
			if err := notificationStore.Create(ctx, notification); err != nil {
				return err
			}
		}
		if err := notificationStore.Create(ctx, ownerNotification); err != nil {
			return err
		}

		if delivered {
			return s.capsules.WithTx(tx).Update(ctx, capsule)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record delivery outcome: %w", err)
	}

	if !delivered {
		return fmt.Errorf("delivery incomplete: %d recipient(s) failed", failed)
	}

	s.logger.Info("capsule delivered",
		"capsule_id", capsuleID,
		"recipient_count", len(recipients))
	return nil
}

// leadingTextContent returns the capsule's first text content in display
// order, or an empty string when the capsule has none. It is inlined into
// the delivery email body.
func (s *CapsuleServiceImpl) leadingTextContent(ctx context.Context, capsuleID uuid.UUID) (string, error) {
	contents, err := s.contents.ListByCapsule(ctx, capsuleID)
	if err != nil {
		return "", fmt.Errorf("failed to list capsule contents: %w", err)
	}
	for _, item := range contents {
		if item.Kind == domain.ContentKindText {
			return item.Text, nil
		}
	}
	return "", nil
}

// sendToRecipient performs one delivery. For in-app delivery it returns the
// notification to persist alongside the recipient update.
func (s *CapsuleServiceImpl) sendToRecipient(
	ctx context.Context,
	capsule *domain.Capsule,
	owner *domain.User,
	recipient *domain.Recipient,
	message string,
) (*domain.Notification, error) {
	switch capsule.DeliveryMethod {
	case domain.DeliveryMethodEmail:
		if err := s.mailer.SendCapsuleLink(recipient.Email, owner.Email,
			capsule.Title, message, recipient.AccessToken.String()); err != nil {
			return nil, fmt.Errorf("failed to send capsule email: %w", err)
		}
		return nil, nil

	case domain.DeliveryMethodInApp:
		userID, err := s.resolveRecipientUser(ctx, recipient)
		if err != nil {
			return nil, err
		}
		return domain.NewNotification(userID, &capsule.ID,
			fmt.Sprintf("A time capsule %q from %s has arrived for you.", capsule.Title, owner.Email),
			domain.NotificationNewSharedCapsule)

	default:
		return nil, fmt.Errorf("%s delivery: %w", capsule.DeliveryMethod, domain.ErrNotSupported)
	}
}

// resolveRecipientUser finds the account an in-app delivery should notify.
func (s *CapsuleServiceImpl) resolveRecipientUser(ctx context.Context, recipient *domain.Recipient) (uuid.UUID, error) {
	if recipient.UserID != nil {
		return *recipient.UserID, nil
	}
	user, err := s.users.GetByEmail(ctx, recipient.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return uuid.Nil, fmt.Errorf("recipient %s has no account for in-app delivery", recipient.Email)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve recipient account: %w", err)
	}
	return user.ID, nil
}

func (s *CapsuleServiceImpl) deliveryOutcomeNotification(capsule *domain.Capsule, delivered bool, failed int) (*domain.Notification, error) {
	if delivered {
		notification, err := domain.NewNotification(capsule.OwnerID, &capsule.ID,
			fmt.Sprintf("Your capsule %q has been delivered.", capsule.Title),
			domain.NotificationDeliverySuccess)
		if err != nil {
			return nil, fmt.Errorf("failed to create delivery notification: %w", err)
		}
		return notification, nil
	}

	notification, err := domain.NewNotification(capsule.OwnerID, &capsule.ID,
		fmt.Sprintf("Delivery of capsule %q failed for %d recipient(s); it will be retried.", capsule.Title, failed),
		domain.NotificationDeliveryFail)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery notification: %w", err)
	}
	return notification, nil
}
