package domain

import (
	"strings"
	"time"
)

// InvitationState is the lifecycle state of an invitation or join request.
type InvitationState string

const (
	// StateNew indicates a pending invitation awaiting a decision.
	StateNew InvitationState = "new"
	// StateAccepted is a terminal state.
	StateAccepted InvitationState = "accepted"
	// StateDeclined is a terminal state.
	StateDeclined InvitationState = "declined"
)

// IsTerminal reports whether the state permits no further transitions.
func (s InvitationState) IsTerminal() bool {
	return s == StateAccepted || s == StateDeclined
}

// CanTransitionTo reports whether the state machine permits the transition.
// Transitions are monotone: new -> {accepted, declined} only.
func (s InvitationState) CanTransitionTo(target InvitationState) bool {
	return s == StateNew && target.IsTerminal()
}

// Invitation represents a direct user-to-user invite to a list.
type Invitation struct {
	ID        string
	From      string
	To        string
	ListType  string
	List      string
	Role      string
	State     InvitationState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvitationID derives the deterministic aggregate key for an invitation.
func InvitationID(from, to, listType, list string) string {
	return from + "_" + to + "_" + listType + "_" + list
}

// JoinRequest represents a member-initiated request to join a list. To is
// the list owner the request is implicitly addressed to.
type JoinRequest struct {
	ID        string
	From      string
	To        string
	ListType  string
	List      string
	Role      string
	State     InvitationState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JoinRequestID derives the deterministic aggregate key for a join request.
func JoinRequestID(from, to, listType, list string) string {
	return from + "_" + to + "_" + listType + "_" + list
}

// NormalizeUser trims a user id and validates it is present.
func NormalizeUser(user string) (string, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return "", ErrEmptyUser
	}
	return user, nil
}
