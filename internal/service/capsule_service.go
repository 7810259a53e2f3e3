package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/platform/storage"
	"github.com/phrazzld/capsule-api/internal/store"
)

// MediaStorage stores uploaded capsule media and produces presigned read
// URLs. Implemented by the storage package.
type MediaStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PresignedURL(key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// CapsuleMailer sends recipient-facing capsule emails. Implemented by the
// mail package.
type CapsuleMailer interface {
	SendCapsuleLink(to, senderEmail, title, message, accessToken string) error
}

// FileUpload is one media file attached to a capsule at creation time.
type FileUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// CreateCapsuleInput carries everything needed to author a capsule.
type CreateCapsuleInput struct {
	Title          string
	Description    string
	DeliveryAt     time.Time
	Method         domain.DeliveryMethod
	Privacy        domain.PrivacyStatus
	Text           string
	RecipientEmail string
	Files          []FileUpload
}

// ContentView is a content item prepared for API responses. File-backed
// items carry a presigned URL instead of the raw storage key.
type ContentView struct {
	ID          uuid.UUID          `json:"id"`
	Kind        domain.ContentKind `json:"kind"`
	Text        string             `json:"text,omitempty"`
	FileName    string             `json:"file_name,omitempty"`
	ContentType string             `json:"content_type,omitempty"`
	Position    int                `json:"position"`
	URL         string             `json:"url,omitempty"`
}

// CapsuleView is a capsule with its contents and recipients resolved.
type CapsuleView struct {
	Capsule    *domain.Capsule     `json:"capsule"`
	Contents   []ContentView       `json:"contents"`
	Recipients []*domain.Recipient `json:"recipients,omitempty"`
}

// CapsuleService provides capsule authoring, retrieval, delivery, and the
// recipient-facing open operation.
type CapsuleService interface {
	// Create authors a new capsule with its contents and recipient,
	// uploading media files to storage.
	Create(ctx context.Context, ownerID uuid.UUID, input CreateCapsuleInput) (*CapsuleView, error)

	// List retrieves the user's capsules, newest first.
	List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Capsule, error)

	// Get retrieves a capsule with contents and recipients. Returns
	// ErrNotOwned if the capsule belongs to another user.
	Get(ctx context.Context, ownerID, capsuleID uuid.UUID) (*CapsuleView, error)

	// Delete removes a capsule, its stored media, and any scheduled
	// delivery. Returns ErrNotOwned if the capsule belongs to another user.
	Delete(ctx context.Context, ownerID, capsuleID uuid.UUID) error

	// Open resolves a recipient access token into the capsule view. It is
	// unauthenticated; the token is the capability. Returns
	// ErrCapsuleLocked before the delivery time.
	Open(ctx context.Context, accessToken uuid.UUID) (*CapsuleView, error)

	// DeliverCapsule performs the scheduled delivery of a capsule to all
	// of its recipients. Called by the background delivery task.
	DeliverCapsule(ctx context.Context, capsuleID uuid.UUID) error
}

// CapsuleServiceImpl implements the CapsuleService interface.
type CapsuleServiceImpl struct {
	db            *sql.DB
	capsules      store.CapsuleStore
	contents      store.ContentStore
	recipients    store.RecipientStore
	notifications store.NotificationStore
	deliveryLogs  store.DeliveryLogStore
	users         store.UserStore
	media         MediaStorage
	mailer        CapsuleMailer
	logger        *slog.Logger
}

// NewCapsuleService creates a new CapsuleService.
func NewCapsuleService(
	db *sql.DB,
	capsules store.CapsuleStore,
	contents store.ContentStore,
	recipients store.RecipientStore,
	notifications store.NotificationStore,
	deliveryLogs store.DeliveryLogStore,
	users store.UserStore,
	media MediaStorage,
	mailer CapsuleMailer,
	logger *slog.Logger,
) *CapsuleServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &CapsuleServiceImpl{
		db:            db,
		capsules:      capsules,
		contents:      contents,
		recipients:    recipients,
		notifications: notifications,
		deliveryLogs:  deliveryLogs,
		users:         users,
		media:         media,
		mailer:        mailer,
		logger:        logger.With(slog.String("component", "capsule_service")),
	}
}

// Create authors a new capsule. Media files are uploaded to storage before
// the database transaction; if the transaction fails the uploads are
// removed best-effort.
func (s *CapsuleServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, input CreateCapsuleInput) (*CapsuleView, error) {
	if input.Method == domain.DeliveryMethodSMS {
		return nil, fmt.Errorf("sms delivery: %w", domain.ErrNotSupported)
	}
	if input.RecipientEmail == "" {
		return nil, ErrMissingRecipient
	}

	capsule, err := domain.NewCapsule(ownerID, input.Title, input.Description,
		input.DeliveryAt, input.Method, input.Privacy)
	if err != nil {
		return nil, fmt.Errorf("failed to create capsule: %w", err)
	}

	contentItems, uploadedKeys, err := s.buildContents(ctx, capsule.ID, input)
	if err != nil {
		s.cleanupUploads(ctx, uploadedKeys)
		return nil, err
	}

	recipient, err := domain.NewRecipient(capsule.ID, input.RecipientEmail)
	if err != nil {
		s.cleanupUploads(ctx, uploadedKeys)
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	notification, err := domain.NewNotification(ownerID, &capsule.ID,
		fmt.Sprintf("Capsule %q sealed until %s.", capsule.Title, capsule.DeliveryAt.Format(time.RFC1123)),
		domain.NotificationCapsuleCreated)
	if err != nil {
		s.cleanupUploads(ctx, uploadedKeys)
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.capsules.WithTx(tx).Create(ctx, capsule); err != nil {
			return err
		}
		if len(contentItems) > 0 {
			if err := s.contents.WithTx(tx).CreateMultiple(ctx, contentItems); err != nil {
				return err
			}
		}
		if err := s.recipients.WithTx(tx).Create(ctx, recipient); err != nil {
			return err
		}
		return s.notifications.WithTx(tx).Create(ctx, notification)
	})
	if err != nil {
		s.cleanupUploads(ctx, uploadedKeys)
		s.logger.Error("failed to save capsule", "error", err, "owner_id", ownerID)
		return nil, fmt.Errorf("failed to save capsule: %w", err)
	}

	s.logger.Info("capsule created",
		"capsule_id", capsule.ID,
		"owner_id", ownerID,
		"delivery_at", capsule.DeliveryAt,
		"content_count", len(contentItems))

	return &CapsuleView{
		Capsule:    capsule,
		Contents:   s.contentViews(contentItems, false),
		Recipients: []*domain.Recipient{recipient},
	}, nil
}

// buildContents assembles the content items for a new capsule: text at
// position 0, then the uploaded files in order. It returns the storage keys
// uploaded so far so the caller can clean up on failure.
func (s *CapsuleServiceImpl) buildContents(ctx context.Context, capsuleID uuid.UUID, input CreateCapsuleInput) ([]*domain.CapsuleContent, []string, error) {
	var items []*domain.CapsuleContent
	var uploaded []string

	position := 0
	if input.Text != "" {
		text, err := domain.NewTextContent(capsuleID, input.Text, position)
		if err != nil {
			return nil, uploaded, fmt.Errorf("invalid text content: %w", err)
		}
		items = append(items, text)
		position++
	}

	for _, file := range input.Files {
		// Reject unsupported types before paying for an upload.
		if _, err := domain.KindForFileName(file.FileName); err != nil {
			return nil, uploaded, err
		}

		key := storage.ObjectKey(capsuleID, file.FileName)
		if err := s.media.Upload(ctx, key, file.ContentType, file.Body); err != nil {
			return nil, uploaded, fmt.Errorf("failed to upload %s: %w", file.FileName, err)
		}
		uploaded = append(uploaded, key)

		item, err := domain.NewFileContent(capsuleID, file.FileName, key, file.ContentType, position)
		if err != nil {
			return nil, uploaded, err
		}
		items = append(items, item)
		position++
	}

	return items, uploaded, nil
}

func (s *CapsuleServiceImpl) cleanupUploads(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.media.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to remove orphaned upload", "key", key, "error", err)
		}
	}
}

// List retrieves the user's capsules, newest first.
func (s *CapsuleServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Capsule, error) {
	capsules, err := s.capsules.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list capsules: %w", err)
	}
	return capsules, nil
}

// Get retrieves a capsule with its contents and recipients.
func (s *CapsuleServiceImpl) Get(ctx context.Context, ownerID, capsuleID uuid.UUID) (*CapsuleView, error) {
	capsule, err := s.capsules.GetByID(ctx, capsuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve capsule: %w", err)
	}
	if capsule.OwnerID != ownerID {
		return nil, ErrNotOwned
	}

	return s.assembleView(ctx, capsule, true)
}

// Delete removes a capsule. Stored media is cleaned up after the database
// delete commits; the delivery task treats a missing capsule as a
// cancelled delivery.
func (s *CapsuleServiceImpl) Delete(ctx context.Context, ownerID, capsuleID uuid.UUID) error {
	capsule, err := s.capsules.GetByID(ctx, capsuleID)
	if err != nil {
		return fmt.Errorf("failed to retrieve capsule: %w", err)
	}
	if capsule.OwnerID != ownerID {
		return ErrNotOwned
	}

	contentItems, err := s.contents.ListByCapsule(ctx, capsuleID)
	if err != nil {
		return fmt.Errorf("failed to list capsule contents: %w", err)
	}

	notification, err := domain.NewNotification(ownerID, nil,
		fmt.Sprintf("Capsule %q was deleted; its scheduled delivery is cancelled.", capsule.Title),
		domain.NotificationSystemAlert)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.capsules.WithTx(tx).Delete(ctx, capsuleID); err != nil {
			return err
		}
		return s.notifications.WithTx(tx).Create(ctx, notification)
	})
	if err != nil {
		s.logger.Error("failed to delete capsule", "error", err, "capsule_id", capsuleID)
		return fmt.Errorf("failed to delete capsule: %w", err)
	}

	for _, item := range contentItems {
		if item.ObjectKey == "" {
			continue
		}
		if err := s.media.Delete(ctx, item.ObjectKey); err != nil {
			s.logger.Warn("failed to remove stored media",
				"key", item.ObjectKey,
				"capsule_id", capsuleID,
				"error", err)
		}
	}

	s.logger.Info("capsule deleted", "capsule_id", capsuleID, "owner_id", ownerID)
	return nil
}

// Open resolves a recipient access token into the capsule view. The first
// successful open flips the recipient to opened and notifies the owner.
func (s *CapsuleServiceImpl) Open(ctx context.Context, accessToken uuid.UUID) (*CapsuleView, error) {
	recipient, err := s.recipients.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve access token: %w", err)
	}

	capsule, err := s.capsules.GetByID(ctx, recipient.CapsuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve capsule: %w", err)
	}

	if time.Now().Before(capsule.DeliveryAt) || !capsule.Unlocked {
		return nil, ErrCapsuleLocked
	}

	if recipient.Status != domain.RecipientStatusOpened {
		recipient.Status = domain.RecipientStatusOpened
		if err := s.recipients.Update(ctx, recipient); err != nil {
			s.logger.Error("failed to mark recipient opened",
				"error", err,
				"recipient_id", recipient.ID)
		} else if notification, nErr := domain.NewNotification(capsule.OwnerID, &capsule.ID,
			fmt.Sprintf("Your capsule %q was opened by %s.", capsule.Title, recipient.Email),
			domain.NotificationCapsuleOpened); nErr == nil {
			if err := s.notifications.Create(ctx, notification); err != nil {
				s.logger.Error("failed to create opened notification",
					"error", err,
					"capsule_id", capsule.ID)
			}
		}
	}

	view, err := s.assembleView(ctx, capsule, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("capsule opened",
		"capsule_id", capsule.ID,
		"recipient_id", recipient.ID)
	return view, nil
}

// assembleView loads contents (with presigned URLs) and, for owner-facing
// views, recipients.
func (s *CapsuleServiceImpl) assembleView(ctx context.Context, capsule *domain.Capsule, includeRecipients bool) (*CapsuleView, error) {
	contentItems, err := s.contents.ListByCapsule(ctx, capsule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list capsule contents: %w", err)
	}

	view := &CapsuleView{
		Capsule:  capsule,
		Contents: s.contentViews(contentItems, true),
	}

	if includeRecipients {
		recipients, err := s.recipients.ListByCapsule(ctx, capsule.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list recipients: %w", err)
		}
		view.Recipients = recipients
	}

	return view, nil
}

// contentViews converts content items for API responses, minting presigned
// URLs for file-backed items when requested.
func (s *CapsuleServiceImpl) contentViews(items []*domain.CapsuleContent, presign bool) []ContentView {
	views := make([]ContentView, 0, len(items))
	for _, item := range items {
		view := ContentView{
			ID:          item.ID,
			Kind:        item.Kind,
			Text:        item.Text,
			FileName:    item.FileName,
			ContentType: item.ContentType,
			Position:    item.Position,
		}
		if presign && item.ObjectKey != "" {
			url, err := s.media.PresignedURL(item.ObjectKey)
			if err != nil {
				s.logger.Error("failed to presign media URL",
					"key", item.ObjectKey,
					"error", err)
			} else {
				view.URL = url
			}
		}
		views = append(views, view)
	}
	return views
}

var _ CapsuleService = (*CapsuleServiceImpl)(nil)
