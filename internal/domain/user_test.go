package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	t.Parallel() // Enable parallel execution
	user, err := NewUser("user@example.com", "correct horse battery")

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if user.Email != "user@example.com" {
		t.Errorf("Expected email user@example.com, got %s", user.Email)
	}

	if user.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Test invalid email
	_, err = NewUser("not-an-email", "correct horse battery")
	if err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}

	// Test empty email
	_, err = NewUser("", "correct horse battery")
	if err != ErrEmptyEmail {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}

	// Test short password
	_, err = NewUser("user@example.com", "short")
	if err != ErrPasswordTooShort {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooShort, err)
	}

	// Test overlong password (beyond bcrypt's 72-byte limit)
	_, err = NewUser("user@example.com", strings.Repeat("x", 73))
	if err != ErrPasswordTooLong {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooLong, err)
	}
}

func TestUserValidateLoadedFromStore(t *testing.T) {
	t.Parallel() // Enable parallel execution
	// Users loaded from the database carry only the hash.
	user := User{
		ID:             uuid.New(),
		Email:          "user@example.com",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
	}

	if err := user.Validate(); err != nil {
		t.Errorf("Expected stored user to be valid, got %v", err)
	}

	user.HashedPassword = ""
	if err := user.Validate(); err != ErrEmptyPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}
}

func TestValidateEmailFormat(t *testing.T) {
	t.Parallel() // Enable parallel execution
	tests := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"a@b.co", true},
		{"user@example", false},
		{"@example.com", false},
		{"user@", false},
		{"user@.com", false},
		{"user@example.", false},
		{"plainaddress", false},
	}

	for _, tt := range tests {
		if got := validateEmailFormat(tt.email); got != tt.valid {
			t.Errorf("validateEmailFormat(%q) = %v, want %v", tt.email, got, tt.valid)
		}
	}
}
