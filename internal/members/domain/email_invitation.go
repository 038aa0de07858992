package domain

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/roster/internal/platform/errors"
)

var (
	// ErrEmptyEmail indicates a missing email address.
	ErrEmptyEmail = apperrors.New(apperrors.CodeValidationEmailEmpty, "email is required")
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = apperrors.New(apperrors.CodeValidationEmailInvalid, "email is not valid")
	// ErrEmptyCode indicates a missing invitation code.
	ErrEmptyCode = apperrors.New(apperrors.CodeValidationCodeEmpty, "invitation code is required")
)

// EmailInvitation represents an invite sent to an address with no known
// account. The unguessable code is the aggregate key and the primary lookup
// path for redemption.
type EmailInvitation struct {
	Code      string
	From      string
	Email     string
	ListType  string
	List      string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail lowercases and validates an email address. Validation is
// deliberately shallow: the address only needs to be routable enough to
// carry an invitation code.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmptyEmail
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", ErrInvalidEmail
	}
	return email, nil
}
