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
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User represents a registered user of the taskboard application.
// It contains essential user information and authentication details.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given email and password.
// It generates a new UUID for the user ID and sets the creation/update timestamps.
// Returns an error if validation fails.
//
// NOTE: This function only sets up the user structure with the plaintext password.
// The caller is responsible for hashing the password before storing the user.
func NewUser(email, password string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Password:  password, // Plaintext password, must be hashed before storage
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
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

	if u.Password != "" {
		// When a plaintext password is provided, validate its length.
		// 72 bytes is bcrypt's practical limit.
		if len(u.Password) < 8 {
			return ErrPasswordTooShort
		}
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		// Existing users loaded from the database carry only the hash.
		return ErrEmptyPassword
	}

	return nil
}

// validateEmailFormat performs basic validation of email format.
// Returns true if the email appears to be in a valid format. Full RFC 5322
// validation happens at the API layer via the validator package; this check
// only guards against obviously broken values reaching the store.
func validateEmailFormat(email string) bool {
	atIndex := strings.Index(email, "@")
	if atIndex <= 0 || atIndex == len(email)-1 {
		return false
	}

	domainPart := email[atIndex+1:]
	dotIndex := strings.Index(domainPart, ".")
	return dotIndex > 0 && dotIndex < len(domainPart)-1
}
