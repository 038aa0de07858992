// Package storage defines the persistence contracts for the members service.
//
// Every contract is a narrow interface so that SQLite adapters and test fakes
// stay interchangeable. Stores return ErrNotFound for missing records instead
// of zero values so callers can distinguish "absent" from "broken".
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/roster/internal/platform/errors"
	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// MembershipFilter narrows membership list queries. Zero-value fields match
// everything.
type MembershipFilter struct {
	User     string
	ListType string
	List     string
	Role     string
}

// MembershipStore owns the membership projection read and write state.
type MembershipStore interface {
	PutMembership(ctx context.Context, m domain.Membership) error
	GetMembership(ctx context.Context, id string) (domain.Membership, error)
	DeleteMembership(ctx context.Context, id string) error
	// ListMemberships returns a page of memberships matching the filter
	// starting after the page token, ordered by id ascending.
	ListMemberships(ctx context.Context, filter MembershipFilter, pageSize int, pageToken string) (MembershipPage, error)
	// DeleteListMemberships removes every membership on a list and returns
	// the removed records.
	DeleteListMemberships(ctx context.Context, listType, list string) ([]domain.Membership, error)
	// UpdateListMembershipTimes sets the time field on every membership of a
	// list and returns the number of rows changed.
	UpdateListMembershipTimes(ctx context.Context, listType, list string, t *time.Time, updatedAt time.Time) (int, error)
}

// MembershipPage describes a page of memberships.
type MembershipPage struct {
	Memberships   []domain.Membership
	NextPageToken string
}

// InvitationFilter narrows invitation list queries. Zero-value fields match
// everything.
type InvitationFilter struct {
	From     string
	To       string
	ListType string
	List     string
	State    domain.InvitationState
}

// InvitationStore owns direct invitation lifecycle state.
type InvitationStore interface {
	PutInvitation(ctx context.Context, inv domain.Invitation) error
	GetInvitation(ctx context.Context, id string) (domain.Invitation, error)
	DeleteInvitation(ctx context.Context, id string) error
	// ListInvitations returns a page of invitations matching the filter
	// starting after the page token, ordered by id ascending.
	ListInvitations(ctx context.Context, filter InvitationFilter, pageSize int, pageToken string) (InvitationPage, error)
	// UpdateInvitationState transitions an invitation and returns the stored
	// record after the update.
	UpdateInvitationState(ctx context.Context, id string, state domain.InvitationState, updatedAt time.Time) (domain.Invitation, error)
}

// InvitationPage describes a page of invitations.
type InvitationPage struct {
	Invitations   []domain.Invitation
	NextPageToken string
}

// EmailInvitationFilter narrows email invitation list queries. Zero-value
// fields match everything.
type EmailInvitationFilter struct {
	From     string
	Email    string
	ListType string
	List     string
}

// EmailInvitationStore owns code-addressed email invitation state.
type EmailInvitationStore interface {
	PutEmailInvitation(ctx context.Context, inv domain.EmailInvitation) error
	GetEmailInvitation(ctx context.Context, code string) (domain.EmailInvitation, error)
	DeleteEmailInvitation(ctx context.Context, code string) error
	// ListEmailInvitations returns a page of email invitations matching the
	// filter starting after the page token, ordered by code ascending.
	ListEmailInvitations(ctx context.Context, filter EmailInvitationFilter, pageSize int, pageToken string) (EmailInvitationPage, error)
}

// EmailInvitationPage describes a page of email invitations.
type EmailInvitationPage struct {
	Invitations   []domain.EmailInvitation
	NextPageToken string
}

// JoinRequestFilter narrows join request list queries. Zero-value fields
// match everything.
type JoinRequestFilter struct {
	From     string
	To       string
	ListType string
	List     string
	State    domain.InvitationState
}

// JoinRequestStore owns join request lifecycle state.
type JoinRequestStore interface {
	PutJoinRequest(ctx context.Context, req domain.JoinRequest) error
	GetJoinRequest(ctx context.Context, id string) (domain.JoinRequest, error)
	DeleteJoinRequest(ctx context.Context, id string) error
	// ListJoinRequests returns a page of join requests matching the filter
	// starting after the page token, ordered by id ascending.
	ListJoinRequests(ctx context.Context, filter JoinRequestFilter, pageSize int, pageToken string) (JoinRequestPage, error)
	// UpdateJoinRequestState transitions a join request and returns the
	// stored record after the update.
	UpdateJoinRequestState(ctx context.Context, id string, state domain.InvitationState, updatedAt time.Time) (domain.JoinRequest, error)
}

// JoinRequestPage describes a page of join requests.
type JoinRequestPage struct {
	Requests      []domain.JoinRequest
	NextPageToken string
}

// SessionInvitationStore owns pending invitations bound to anonymous
// sessions. AddSessionInvitations unions values, so replays and repeated
// email redemptions stay idempotent.
type SessionInvitationStore interface {
	// AddSessionInvitations merges the given invitations into the session's
	// pending set. Duplicate values are ignored.
	AddSessionInvitations(ctx context.Context, session string, invs []domain.PendingInvitation, now time.Time) error
	// GetSessionInvitations retrieves the pending set for a session.
	GetSessionInvitations(ctx context.Context, session string) (domain.SessionInvitations, error)
	// RemoveSessionInvitation removes a single pending invitation by value.
	RemoveSessionInvitation(ctx context.Context, session string, inv domain.PendingInvitation, now time.Time) error
	// DeleteSessionInvitations removes a session's entire pending set.
	DeleteSessionInvitations(ctx context.Context, session string) error
}

// EventStore owns the append-only members event journal. The journal is an
// audit record; projections are updated in the same request, not replayed
// from it on the hot path.
type EventStore interface {
	// AppendEvent atomically appends an event and returns it with its
	// sequence number set.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// ListEvents returns events ordered by sequence ascending, starting
	// after afterSeq, up to limit.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	// GetLatestEventSeq returns the latest sequence number, or 0 when the
	// journal is empty.
	GetLatestEventSeq(ctx context.Context) (uint64, error)
}

// NotificationRecord captures an inbox notification for a user.
type NotificationRecord struct {
	ID        string
	User      string
	Kind      string
	Payload   []byte
	ReadAt    *time.Time
	CreatedAt time.Time
}

// NotificationStore persists per-user inbox notifications.
type NotificationStore interface {
	PutNotification(ctx context.Context, n NotificationRecord) error
	GetNotification(ctx context.Context, id string) (NotificationRecord, error)
	// ListNotifications returns a page of a user's notifications starting
	// after the page token, newest first.
	ListNotifications(ctx context.Context, user string, pageSize int, pageToken string) (NotificationPage, error)
	// MarkNotificationRead stamps a notification as read. Marking an already
	// read notification is a no-op.
	MarkNotificationRead(ctx context.Context, id string, readAt time.Time) error
}

// NotificationPage describes a page of notifications.
type NotificationPage struct {
	Notifications []NotificationRecord
	NextPageToken string
}
