package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// OTPLength is the number of digits in a one-time password.
const OTPLength = 6

// User represents a registered user of the time capsule application.
// It contains profile information, authentication details, and the
// transient OTP state used for email verification and password resets.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Bio            string     `json:"bio"`
	DOB            *time.Time `json:"dob,omitempty"`
	Password       string     `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string     `json:"-"` // Never expose password hash in JSON
	IsActive       bool       `json:"is_active"`
	OTPCode        string     `json:"-"` // Pending one-time password, cleared on use
	OTPCreatedAt   *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewUser creates a new User with the given email, name, and password.
// It generates a new UUID for the user ID and sets the creation/update
// timestamps. New users start inactive until their email is verified.
// Returns an error if validation fails.
//
// NOTE: This function only sets up the user structure with the plaintext
// password. The caller is responsible for hashing the password before
// storing the user.
func NewUser(email, name, password string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     NormalizeEmail(email),
		Name:      name,
		Password:  password, // Plaintext password - must be hashed before storage
		IsActive:  false,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// NewSSOUser creates a new User provisioned through an identity provider.
// SSO users have no local password and are active immediately, since the
// provider has already verified the email address.
func NewSSOUser(email, name string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     NormalizeEmail(email),
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if user.Email == "" {
		return nil, ErrEmptyEmail
	}
	if !validateEmailFormat(user.Email) {
		return nil, ErrInvalidEmail
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	// During user creation/update we need to validate the provided password
	if u.Password != "" {
		if !validatePasswordLength(u.Password) {
			if len(u.Password) < 12 {
				return ErrPasswordTooShort
			}
			return ErrPasswordTooLong
		}
	} else {
		// When no plaintext password is provided, the user must have a hashed
		// password unless the account was provisioned through SSO.
		if u.HashedPassword == "" && !u.IsActive {
			return ErrEmptyPassword
		}
	}

	return nil
}

// SetOTP records a freshly generated one-time password and its creation time.
func (u *User) SetOTP(code string, at time.Time) {
	u.OTPCode = code
	t := at.UTC()
	u.OTPCreatedAt = &t
}

// ClearOTP removes any pending one-time password state.
func (u *User) ClearOTP() {
	u.OTPCode = ""
	u.OTPCreatedAt = nil
}

// OTPExpired reports whether the pending OTP is older than the given
// validity window at the supplied reference time. A user with no pending
// OTP is treated as expired.
func (u *User) OTPExpired(now time.Time, validity time.Duration) bool {
	if u.OTPCreatedAt == nil {
		return true
	}
	return now.Sub(*u.OTPCreatedAt) > validity
}

// NormalizeEmail lowercases and trims an email address. Emails are stored
// and looked up in this form so addresses differing only in case resolve
// to the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmailFormat performs basic validation of email format.
// Returns true if the email appears to be in a valid format.
func validateEmailFormat(email string) bool {
	// Simple check: must have @ and at least one . after @.
	// Request-level validation uses the validator library's email rule;
	// this is a last line of defense at the domain boundary.
	atIndex := -1
	for i, char := range email {
		if char == '@' {
			atIndex = i
			break
		}
	}

	if atIndex == -1 || atIndex == 0 || atIndex == len(email)-1 {
		return false
	}

	domainPart := email[atIndex+1:]
	if len(domainPart) < 3 { // minimum would be "a.b"
		return false
	}

	dotIndex := -1
	for i, char := range domainPart {
		if char == '.' {
			dotIndex = i
			break
		}
	}

	return dotIndex > 0 && dotIndex < len(domainPart)-1
}

// validatePasswordLength checks if a password meets length requirements:
// - Minimum length: 12 characters
// - Maximum length: 72 characters (bcrypt's practical limit)
func validatePasswordLength(password string) bool {
	passLen := len(password)
	return passLen >= 12 && passLen <= 72
}
