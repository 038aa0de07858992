package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/louisbranch/roster/internal/members/domain"
)

// MembershipAddedPayload holds data for membership.added events.
type MembershipAddedPayload struct {
	User     string     `json:"user"`
	ListType string     `json:"list_type"`
	List     string     `json:"list"`
	Role     string     `json:"role"`
	Time     *time.Time `json:"time,omitempty"`
}

// MembershipRemovedPayload holds data for membership.removed events.
type MembershipRemovedPayload struct {
	User     string `json:"user"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
}

// MembershipRoleChangedPayload holds data for membership.role_changed events.
type MembershipRoleChangedPayload struct {
	User     string `json:"user"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
	Role     string `json:"role"`
}

// MembershipTimeChangedPayload holds data for membership.time_changed events.
type MembershipTimeChangedPayload struct {
	User     string     `json:"user"`
	ListType string     `json:"list_type"`
	List     string     `json:"list"`
	Time     *time.Time `json:"time"`
}

// MembersListDeletedPayload holds data for membership.list_deleted events.
type MembersListDeletedPayload struct {
	ListType string `json:"list_type"`
	List     string `json:"list"`
}

// ListTimeChangedPayload holds data for membership.list_time_changed events.
type ListTimeChangedPayload struct {
	ListType string     `json:"list_type"`
	List     string     `json:"list"`
	Time     *time.Time `json:"time"`
}

// InvitationAddedPayload holds data for invitation.added events.
type InvitationAddedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
	Role     string `json:"role"`
}

// InvitationStateChangedPayload holds data for invitation.accepted and
// invitation.declined events.
type InvitationStateChangedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
}

// InvitationRemovedPayload holds data for invitation.removed events.
type InvitationRemovedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
}

// InvitationRoleChangedPayload holds data for invitation.role_changed events.
type InvitationRoleChangedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
	Role     string `json:"role"`
}

// EmailInvitationAddedPayload holds data for email_invitation.added events.
type EmailInvitationAddedPayload struct {
	Code     string `json:"code"`
	From     string `json:"from"`
	Email    string `json:"email"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
	Role     string `json:"role"`
}

// EmailInvitationRemovedPayload holds data for email_invitation.removed events.
type EmailInvitationRemovedPayload struct {
	Code string `json:"code"`
}

// EmailInvitationRoleChangedPayload holds data for
// email_invitation.role_changed events.
type EmailInvitationRoleChangedPayload struct {
	Code string `json:"code"`
	Role string `json:"role"`
}

// JoinRequestAddedPayload holds data for join_request.added events.
type JoinRequestAddedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
	Role     string `json:"role"`
}

// JoinRequestStateChangedPayload holds data for join_request.accepted and
// join_request.declined events.
type JoinRequestStateChangedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
}

// JoinRequestRemovedPayload holds data for join_request.removed events.
type JoinRequestRemovedPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ListType string `json:"list_type"`
	List     string `json:"list"`
}

// SessionInvitationAddedPayload holds data for session_invitation.added events.
type SessionInvitationAddedPayload struct {
	Session    string                   `json:"session"`
	Invitation domain.PendingInvitation `json:"invitation"`
}

// SessionInvitationRemovedPayload holds data for session_invitation.removed
// events.
type SessionInvitationRemovedPayload struct {
	Session    string                   `json:"session"`
	Invitation domain.PendingInvitation `json:"invitation"`
}

// SessionInvitationsRemovedPayload holds data for session_invitations.removed
// events.
type SessionInvitationsRemovedPayload struct {
	Session string `json:"session"`
}

// New builds an event of the given type at the given time, marshaling the
// payload to JSON. The Seq field is zero until storage assigns it.
func New(t Type, actorType ActorType, actorID string, payload any, now time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{
		Type:        t,
		Timestamp:   now,
		ActorType:   actorType,
		ActorID:     actorID,
		PayloadJSON: data,
	}, nil
}

// Payload unmarshals the event payload into dst.
func (e Event) Payload(dst any) error {
	if err := json.Unmarshal(e.PayloadJSON, dst); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}
