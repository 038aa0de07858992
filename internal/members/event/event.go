// Package event defines the members event journal vocabulary.
//
// Events are facts that have occurred, not commands. Command handlers emit
// ordered batches of them; projection appliers are the only code path that
// mutates aggregate state from them.
package event

import (
	"strings"
	"time"
)

// Type identifies the type of a members event.
type Type string

// Membership events.
const (
	// TypeMembershipAdded records a membership creation (upsert on retry).
	TypeMembershipAdded Type = "membership.added"
	// TypeMembershipRemoved records a membership deletion.
	TypeMembershipRemoved Type = "membership.removed"
	// TypeMembershipRoleChanged records a membership role change.
	TypeMembershipRoleChanged Type = "membership.role_changed"
	// TypeMembershipTimeChanged records a membership time change.
	TypeMembershipTimeChanged Type = "membership.time_changed"
	// TypeMembersListDeleted records the cascading removal of every
	// membership on a list.
	TypeMembersListDeleted Type = "membership.list_deleted"
	// TypeListTimeChanged records a time change across all memberships of a list.
	TypeListTimeChanged Type = "membership.list_time_changed"
)

// Invitation events.
const (
	// TypeInvitationAdded records a direct invitation creation.
	TypeInvitationAdded Type = "invitation.added"
	// TypeInvitationAccepted records an invitation acceptance.
	TypeInvitationAccepted Type = "invitation.accepted"
	// TypeInvitationDeclined records an invitation decline.
	TypeInvitationDeclined Type = "invitation.declined"
	// TypeInvitationRemoved records an invitation deletion.
	TypeInvitationRemoved Type = "invitation.removed"
	// TypeInvitationRoleChanged records an invitation role change.
	TypeInvitationRoleChanged Type = "invitation.role_changed"
)

// Email invitation events.
const (
	// TypeEmailInvitationAdded records an email invitation creation.
	TypeEmailInvitationAdded Type = "email_invitation.added"
	// TypeEmailInvitationRemoved records an email invitation deletion.
	TypeEmailInvitationRemoved Type = "email_invitation.removed"
	// TypeEmailInvitationRoleChanged records an email invitation role change.
	TypeEmailInvitationRoleChanged Type = "email_invitation.role_changed"
)

// Join request events.
const (
	// TypeJoinRequestAdded records a join request creation.
	TypeJoinRequestAdded Type = "join_request.added"
	// TypeJoinRequestAccepted records a join request acceptance.
	TypeJoinRequestAccepted Type = "join_request.accepted"
	// TypeJoinRequestDeclined records a join request decline.
	TypeJoinRequestDeclined Type = "join_request.declined"
	// TypeJoinRequestRemoved records a join request deletion.
	TypeJoinRequestRemoved Type = "join_request.removed"
)

// Session invitation events.
const (
	// TypeSessionInvitationAdded records a pending invite bound to an
	// anonymous session.
	TypeSessionInvitationAdded Type = "session_invitation.added"
	// TypeSessionInvitationRemoved records the removal of one pending invite.
	TypeSessionInvitationRemoved Type = "session_invitation.removed"
	// TypeSessionInvitationsRemoved records the removal of a session's
	// entire pending set.
	TypeSessionInvitationsRemoved Type = "session_invitations.removed"
)

// ActorType identifies who or what triggered an event.
type ActorType string

const (
	// ActorTypeSystem indicates the event was triggered by the system.
	ActorTypeSystem ActorType = "system"
	// ActorTypeUser indicates the event was triggered by an identified user.
	ActorTypeUser ActorType = "user"
	// ActorTypeSession indicates the event was triggered by an anonymous session.
	ActorTypeSession ActorType = "session"
)

// Event represents an immutable entry in the members event journal.
type Event struct {
	// Seq is the journal sequence number. Assigned by storage on append.
	Seq uint64
	// Type identifies the kind of event.
	Type Type
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// ActorType identifies who triggered the event.
	ActorType ActorType
	// ActorID is the user id or session id of the actor.
	ActorID string
	// SessionID is set when the event was produced on behalf of an
	// anonymous session.
	SessionID string
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g., "membership").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}
