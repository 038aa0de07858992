package domain

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/roster/internal/platform/errors"
)

// Well-known membership roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

var (
	// ErrEmptyUser indicates a missing user id.
	ErrEmptyUser = apperrors.New(apperrors.CodeValidationUserEmpty, "user is required")
	// ErrEmptyListType indicates a missing list type.
	ErrEmptyListType = apperrors.New(apperrors.CodeValidationListTypeEmpty, "list type is required")
	// ErrEmptyList indicates a missing list id.
	ErrEmptyList = apperrors.New(apperrors.CodeValidationListEmpty, "list is required")
)

// Membership represents one user's seat on a list. There is at most one
// Membership per (user, listType, list).
type Membership struct {
	ID       string
	User     string
	ListType string
	List     string
	Role     string
	// Time is an optional externally supplied timestamp (e.g. the start of
	// the event the membership refers to). Distinct from CreatedAt.
	Time      *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MembershipID derives the deterministic aggregate key for a membership.
func MembershipID(user, listType, list string) string {
	return user + "_" + listType + "_" + list
}

// ListKey describes the (listType, list) pair a membership row belongs to.
type ListKey struct {
	ListType string
	List     string
}

// NormalizeListKey trims and validates a list key.
func NormalizeListKey(listType, list string) (ListKey, error) {
	listType = strings.TrimSpace(listType)
	if listType == "" {
		return ListKey{}, ErrEmptyListType
	}
	list = strings.TrimSpace(list)
	if list == "" {
		return ListKey{}, ErrEmptyList
	}
	return ListKey{ListType: listType, List: list}, nil
}
