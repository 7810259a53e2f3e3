package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/mocks"
	"github.com/phrazzld/capsule-api/internal/store"
)

type capsuleServiceFixture struct {
	db            *sql.DB
	dbMock        sqlmock.Sqlmock
	capsules      *mocks.MockCapsuleStore
	contents      *mocks.MockContentStore
	recipients    *mocks.MockRecipientStore
	notifications *mocks.MockNotificationStore
	deliveryLogs  *mocks.MockDeliveryLogStore
	users         *mocks.MockUserStore
	media         *mocks.MockMediaStorage
	mailer        *mocks.MockMailer
	service       *CapsuleServiceImpl
}

func newCapsuleServiceFixture(t *testing.T) *capsuleServiceFixture {
	t.Helper()
	db, dbMock := newTxDB(t)

	f := &capsuleServiceFixture{
		db:            db,
		dbMock:        dbMock,
		capsules:      mocks.NewMockCapsuleStore(),
		contents:      mocks.NewMockContentStore(),
		recipients:    mocks.NewMockRecipientStore(),
		notifications: mocks.NewMockNotificationStore(),
		deliveryLogs:  mocks.NewMockDeliveryLogStore(),
		users:         mocks.NewMockUserStore(),
		media:         mocks.NewMockMediaStorage(),
		mailer:        &mocks.MockMailer{},
	}
	f.service = NewCapsuleService(db, f.capsules, f.contents, f.recipients,
		f.notifications, f.deliveryLogs, f.users, f.media, f.mailer, nil)
	return f
}

func (f *capsuleServiceFixture) owner(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewSSOUser("owner@example.com", "Owner")
	require.NoError(t, err)
	f.users.Users[user.Email] = user
	return user
}

func validInput() CreateCapsuleInput {
	return CreateCapsuleInput{
		Title:          "for future me",
		Description:    "open in a year",
		DeliveryAt:     time.Now().Add(24 * time.Hour),
		Method:         domain.DeliveryMethodEmail,
		Privacy:        domain.PrivacyPrivate,
		Text:           "dear future self",
		RecipientEmail: "friend@example.com",
	}
}

func TestCapsuleCreate(t *testing.T) {
	t.Parallel()

	t.Run("creates capsule with text, file, recipient, and notification", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		owner := f.owner(t)
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		input := validInput()
		input.Files = []FileUpload{{
			FileName:    "beach.jpg",
			ContentType: "image/jpeg",
			Body:        strings.NewReader("jpeg-bytes"),
		}}

		view, err := f.service.Create(context.Background(), owner.ID, input)
		require.NoError(t, err)

		assert.Equal(t, owner.ID, view.Capsule.OwnerID)
		assert.False(t, view.Capsule.Delivered)
		require.Len(t, view.Contents, 2)
		assert.Equal(t, domain.ContentKindText, view.Contents[0].Kind)
		assert.Equal(t, 0, view.Contents[0].Position)
		assert.Equal(t, domain.ContentKindImage, view.Contents[1].Kind)
		require.Len(t, view.Recipients, 1)
		assert.Equal(t, "friend@example.com", view.Recipients[0].Email)

		// The file landed in storage and the owner got a creation notice.
		assert.Len(t, f.media.Objects, 1)
		assert.Len(t, f.notifications.Notifications, 1)
		for _, n := range f.notifications.Notifications {
			assert.Equal(t, domain.NotificationCapsuleCreated, n.Kind)
		}
	})

	t.Run("accepts past delivery time for immediate dispatch", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()
		input := validInput()
		input.DeliveryAt = time.Now().Add(-time.Hour)

		view, err := f.service.Create(context.Background(), uuid.New(), input)
		require.NoError(t, err)
		assert.False(t, view.Capsule.Delivered)
	})

	t.Run("rejects sms delivery", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		input := validInput()
		input.Method = domain.DeliveryMethodSMS

		_, err := f.service.Create(context.Background(), uuid.New(), input)
		assert.ErrorIs(t, err, domain.ErrNotSupported)
	})

	t.Run("requires a recipient", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		input := validInput()
		input.RecipientEmail = ""

		_, err := f.service.Create(context.Background(), uuid.New(), input)
		assert.ErrorIs(t, err, ErrMissingRecipient)
	})

	t.Run("rejects unsupported file types before uploading", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		input := validInput()
		input.Files = []FileUpload{{
			FileName:    "malware.exe",
			ContentType: "application/octet-stream",
			Body:        strings.NewReader("nope"),
		}}

		_, err := f.service.Create(context.Background(), uuid.New(), input)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
		assert.Empty(t, f.media.Objects)
	})

	t.Run("cleans up uploads when the transaction fails", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		f.capsules.CreateFn = func(ctx context.Context, capsule *domain.Capsule) error {
			return errors.New("insert failed")
		}
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		input := validInput()
		input.Files = []FileUpload{{
			FileName:    "beach.jpg",
			ContentType: "image/jpeg",
			Body:        strings.NewReader("jpeg-bytes"),
		}}

		_, err := f.service.Create(context.Background(), uuid.New(), input)
		require.Error(t, err)
		assert.Empty(t, f.media.Objects)
		assert.Len(t, f.media.Deleted, 1)
	})
}

func TestCapsuleGet(t *testing.T) {
	t.Parallel()

	t.Run("returns contents with presigned URLs and recipients", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		owner := f.owner(t)
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		input := validInput()
		input.Files = []FileUpload{{
			FileName:    "song.mp3",
			ContentType: "audio/mpeg",
			Body:        strings.NewReader("mp3-bytes"),
		}}
		created, err := f.service.Create(context.Background(), owner.ID, input)
		require.NoError(t, err)

		view, err := f.service.Get(context.Background(), owner.ID, created.Capsule.ID)
		require.NoError(t, err)
		require.Len(t, view.Contents, 2)
		assert.Empty(t, view.Contents[0].URL)
		assert.True(t, strings.HasPrefix(view.Contents[1].URL, "https://media.test/"))
		assert.Len(t, view.Recipients, 1)
	})

	t.Run("other user's capsule", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		owner := f.owner(t)
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		created, err := f.service.Create(context.Background(), owner.ID, validInput())
		require.NoError(t, err)

		_, err = f.service.Get(context.Background(), uuid.New(), created.Capsule.ID)
		assert.ErrorIs(t, err, ErrNotOwned)
	})

	t.Run("unknown capsule", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		_, err := f.service.Get(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, store.ErrCapsuleNotFound)
	})
}

func TestCapsuleDelete(t *testing.T) {
	t.Parallel()

	t.Run("removes capsule, media, and notifies the owner", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		owner := f.owner(t)
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		input := validInput()
		input.Files = []FileUpload{{
			FileName:    "beach.jpg",
			ContentType: "image/jpeg",
			Body:        strings.NewReader("jpeg-bytes"),
		}}
		created, err := f.service.Create(context.Background(), owner.ID, input)
		require.NoError(t, err)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()
		require.NoError(t, f.service.Delete(context.Background(), owner.ID, created.Capsule.ID))

		assert.Empty(t, f.capsules.Capsules)
		assert.Empty(t, f.media.Objects)

		alerts := 0
		for _, n := range f.notifications.Notifications {
			if n.Kind == domain.NotificationSystemAlert {
				alerts++
				assert.Nil(t, n.CapsuleID)
			}
		}
		assert.Equal(t, 1, alerts)
	})

	t.Run("other user's capsule", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		owner := f.owner(t)
		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		created, err := f.service.Create(context.Background(), owner.ID, validInput())
		require.NoError(t, err)

		err = f.service.Delete(context.Background(), uuid.New(), created.Capsule.ID)
		assert.ErrorIs(t, err, ErrNotOwned)
	})
}

func TestCapsuleOpen(t *testing.T) {
	t.Parallel()

	// seedDelivered creates an unlocked capsule in the past with one
	// pending-sent recipient and returns the recipient's access token.
	seedDelivered := func(t *testing.T, f *capsuleServiceFixture) (*domain.Capsule, *domain.Recipient) {
		t.Helper()
		owner := f.owner(t)
		capsule, err := domain.NewCapsule(owner.ID, "old letters", "",
			time.Now().Add(time.Hour), domain.DeliveryMethodEmail, domain.PrivacyPrivate)
		require.NoError(t, err)
		capsule.DeliveryAt = time.Now().Add(-time.Hour)
		capsule.Delivered = true
		capsule.Unlocked = true
		f.capsules.Capsules[capsule.ID] = capsule

		recipient, err := domain.NewRecipient(capsule.ID, "friend@example.com")
		require.NoError(t, err)
		recipient.MarkSent(time.Now())
		f.recipients.Recipients[recipient.ID] = recipient

		text, err := domain.NewTextContent(capsule.ID, "hello from the past", 0)
		require.NoError(t, err)
		f.contents.Contents[text.ID] = text

		return capsule, recipient
	}

	t.Run("opens an unlocked capsule and notifies the owner", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		capsule, recipient := seedDelivered(t, f)

		view, err := f.service.Open(context.Background(), recipient.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, capsule.ID, view.Capsule.ID)
		require.Len(t, view.Contents, 1)
		assert.Equal(t, "hello from the past", view.Contents[0].Text)
		assert.Nil(t, view.Recipients)

		assert.Equal(t, domain.RecipientStatusOpened, recipient.Status)
		opened := 0
		for _, n := range f.notifications.Notifications {
			if n.Kind == domain.NotificationCapsuleOpened {
				opened++
			}
		}
		assert.Equal(t, 1, opened)
	})

	t.Run("second open does not re-notify", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		_, recipient := seedDelivered(t, f)

		_, err := f.service.Open(context.Background(), recipient.AccessToken)
		require.NoError(t, err)
		_, err = f.service.Open(context.Background(), recipient.AccessToken)
		require.NoError(t, err)

		assert.Len(t, f.notifications.Notifications, 1)
	})

	t.Run("locked before delivery time", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		capsule, recipient := seedDelivered(t, f)
		capsule.DeliveryAt = time.Now().Add(time.Hour)
		capsule.Unlocked = false
		capsule.Delivered = false

		_, err := f.service.Open(context.Background(), recipient.AccessToken)
		assert.ErrorIs(t, err, ErrCapsuleLocked)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		f := newCapsuleServiceFixture(t)
		_, err := f.service.Open(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrRecipientNotFound)
	})
}
