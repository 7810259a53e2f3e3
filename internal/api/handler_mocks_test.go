package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/api/shared"
	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/service"
)

// mockUserService implements service.UserService with overridable behavior.
type mockUserService struct {
	RegisterFn             func(ctx context.Context, email, name, password string, dob *time.Time) (*domain.User, error)
	VerifyOTPFn            func(ctx context.Context, email, code string) (*domain.User, error)
	ResendOTPFn            func(ctx context.Context, email string) error
	LoginFn                func(ctx context.Context, email, password string) (*service.TokenPair, *domain.User, error)
	GoogleLoginFn          func(ctx context.Context, idToken string) (*service.TokenPair, *domain.User, error)
	RefreshTokensFn        func(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	GetProfileFn           func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateProfileFn        func(ctx context.Context, userID uuid.UUID, update service.ProfileUpdate) (*domain.User, error)
	ChangePasswordFn       func(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	RequestPasswordResetFn func(ctx context.Context, email string) error
	VerifyPasswordResetFn  func(ctx context.Context, email, code string) error
	ConfirmPasswordResetFn func(ctx context.Context, email, code, newPassword string) error
}

func (m *mockUserService) Register(ctx context.Context, email, name, password string, dob *time.Time) (*domain.User, error) {
	return m.RegisterFn(ctx, email, name, password, dob)
}

func (m *mockUserService) VerifyOTP(ctx context.Context, email, code string) (*domain.User, error) {
	return m.VerifyOTPFn(ctx, email, code)
}

func (m *mockUserService) ResendOTP(ctx context.Context, email string) error {
	return m.ResendOTPFn(ctx, email)
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*service.TokenPair, *domain.User, error) {
	return m.LoginFn(ctx, email, password)
}

func (m *mockUserService) GoogleLogin(ctx context.Context, idToken string) (*service.TokenPair, *domain.User, error) {
	return m.GoogleLoginFn(ctx, idToken)
}

func (m *mockUserService) RefreshTokens(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	return m.RefreshTokensFn(ctx, refreshToken)
}

func (m *mockUserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return m.GetProfileFn(ctx, userID)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update service.ProfileUpdate) (*domain.User, error) {
	return m.UpdateProfileFn(ctx, userID, update)
}

func (m *mockUserService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	return m.ChangePasswordFn(ctx, userID, oldPassword, newPassword)
}

func (m *mockUserService) RequestPasswordReset(ctx context.Context, email string) error {
	return m.RequestPasswordResetFn(ctx, email)
}

func (m *mockUserService) VerifyPasswordResetOTP(ctx context.Context, email, code string) error {
	return m.VerifyPasswordResetFn(ctx, email, code)
}

func (m *mockUserService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	return m.ConfirmPasswordResetFn(ctx, email, code, newPassword)
}

var _ service.UserService = (*mockUserService)(nil)

// mockCapsuleService implements service.CapsuleService with overridable
// behavior.
type mockCapsuleService struct {
	CreateFn  func(ctx context.Context, ownerID uuid.UUID, input service.CreateCapsuleInput) (*service.CapsuleView, error)
	ListFn    func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Capsule, error)
	GetFn     func(ctx context.Context, ownerID, capsuleID uuid.UUID) (*service.CapsuleView, error)
	DeleteFn  func(ctx context.Context, ownerID, capsuleID uuid.UUID) error
	OpenFn    func(ctx context.Context, accessToken uuid.UUID) (*service.CapsuleView, error)
	DeliverFn func(ctx context.Context, capsuleID uuid.UUID) error
}

func (m *mockCapsuleService) Create(ctx context.Context, ownerID uuid.UUID, input service.CreateCapsuleInput) (*service.CapsuleView, error) {
	return m.CreateFn(ctx, ownerID, input)
}

func (m *mockCapsuleService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Capsule, error) {
	return m.ListFn(ctx, ownerID)
}

func (m *mockCapsuleService) Get(ctx context.Context, ownerID, capsuleID uuid.UUID) (*service.CapsuleView, error) {
	return m.GetFn(ctx, ownerID, capsuleID)
}

func (m *mockCapsuleService) Delete(ctx context.Context, ownerID, capsuleID uuid.UUID) error {
	return m.DeleteFn(ctx, ownerID, capsuleID)
}

func (m *mockCapsuleService) Open(ctx context.Context, accessToken uuid.UUID) (*service.CapsuleView, error) {
	return m.OpenFn(ctx, accessToken)
}

func (m *mockCapsuleService) DeliverCapsule(ctx context.Context, capsuleID uuid.UUID) error {
	return m.DeliverFn(ctx, capsuleID)
}

var _ service.CapsuleService = (*mockCapsuleService)(nil)

// mockNotificationService implements service.NotificationService with
// overridable behavior.
type mockNotificationService struct {
	ListFn        func(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	UnreadCountFn func(ctx context.Context, userID uuid.UUID) (int, error)
	MarkReadFn    func(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)
	MarkAllReadFn func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockNotificationService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	return m.ListFn(ctx, userID)
}

func (m *mockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.UnreadCountFn(ctx, userID)
}

func (m *mockNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error) {
	return m.MarkReadFn(ctx, userID, notificationID)
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.MarkAllReadFn(ctx, userID)
}

var _ service.NotificationService = (*mockNotificationService)(nil)

// authenticatedRequest stamps the request context with a user ID the way
// the auth middleware does.
func authenticatedRequest(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

// testUser builds a verified user for handler tests.
func testUser(email string) *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      "Test User",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}
