package domain

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/roster/internal/platform/errors"
)

// ErrEmptySession indicates a missing session id.
var ErrEmptySession = apperrors.New(apperrors.CodeValidationSessionEmpty, "session is required")

// PendingInvitation is one invite captured for an anonymous session. It is
// the full invitation value; session accumulation unions on this value, and
// consumers dedupe by (ListType, List) when materializing invitations.
type PendingInvitation struct {
	From     string `json:"from"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
	Role     string `json:"role"`
}

// SessionInvitations accumulates pending invites while a visitor is
// anonymous. The session id is the aggregate key.
type SessionInvitations struct {
	Session     string
	Invitations []PendingInvitation
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizeSession trims a session id and validates it is present.
func NormalizeSession(session string) (string, error) {
	session = strings.TrimSpace(session)
	if session == "" {
		return "", ErrEmptySession
	}
	return session, nil
}

// DedupePendingByList returns the invitations that survive (listType, list)
// value deduplication, preserving first-seen order. Two pending invites for
// the same list are one pending invite, regardless of issuer.
func DedupePendingByList(invitations []PendingInvitation) []PendingInvitation {
	seen := make(map[ListKey]bool, len(invitations))
	result := make([]PendingInvitation, 0, len(invitations))
	for _, inv := range invitations {
		key := ListKey{ListType: inv.ListType, List: inv.List}
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, inv)
	}
	return result
}
