package domain

import (
	"net/mail"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const minSecretLength = 6

type UserID string

type User struct {
	ID          UserID
	Email       string
	DisplayName string
	// SecretRef points to the credential-store entry holding the secret digest.
	SecretRef string
	CreatedAt time.Time
}

// Credentials are the sign-in input: ID is the account email.
type Credentials struct {
	ID     string
	Secret string
}

// Profile is the registration input.
type Profile struct {
	Email       string
	DisplayName string
	Secret      string
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func NormalizeDisplayName(raw string) string {
	return strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return NewValidationError("email", "is required")
	}
	if err := validateEmail(c.ID); err != nil {
		return err
	}
	if c.Secret == "" {
		return NewValidationError("secret", "is required")
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Email) == "" {
		return NewValidationError("email", "is required")
	}
	if err := validateEmail(p.Email); err != nil {
		return err
	}
	if NormalizeDisplayName(p.DisplayName) == "" {
		return NewValidationError("display name", "is required")
	}
	if p.Secret == "" {
		return NewValidationError("secret", "is required")
	}
	if len([]rune(p.Secret)) < minSecretLength {
		return NewValidationError("secret", "must be at least 6 characters")
	}
	return nil
}

func validateEmail(raw string) error {
	email := NormalizeEmail(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return NewValidationError("email", "is malformed")
	}
	return nil
}
