// Package notify delivers membership lifecycle notifications to user inboxes.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/louisbranch/roster/internal/members/storage"
	"github.com/louisbranch/roster/internal/platform/pagination"
)

var (
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("notification store is not configured")
	// ErrUserRequired indicates recipient identity is required.
	ErrUserRequired = errors.New("notification user is required")
	// ErrKindRequired indicates a notification kind is required.
	ErrKindRequired = errors.New("notification kind is required")
	// ErrNotificationIDRequired indicates a notification id is required.
	ErrNotificationIDRequired = errors.New("notification id is required")
)

// Notification kinds produced by the members lifecycle.
const (
	KindInvitationReceived  = "invitation.received"
	KindInvitationAccepted  = "invitation.accepted"
	KindInvitationDeclined  = "invitation.declined"
	KindInvitationRedeemed  = "invitation.redeemed"
	KindJoinRequestReceived = "join_request.received"
	KindJoinRequestAccepted = "join_request.accepted"
	KindJoinRequestDeclined = "join_request.declined"
	KindMemberLeft          = "member.left"
)

// Intent describes one notification to deliver.
type Intent struct {
	// User is the recipient.
	User string
	// Kind classifies the notification.
	Kind string
	// Ref identifies the aggregate the notification is about, and doubles as
	// the dedupe key: repeated intents for the same (user, kind, ref) keep a
	// single inbox entry.
	Ref string
	// Payload holds kind-specific JSON for rendering.
	Payload []byte
}

// Notifier is the outbound notification port used by command handlers.
// Implementations must tolerate repeated delivery of the same intent.
type Notifier interface {
	Notify(ctx context.Context, intent Intent) error
}

var pageSizes = pagination.PageSizeConfig{Default: 50, Max: 200}

// Service stores notifications in per-user inboxes.
type Service struct {
	store storage.NotificationStore
	clock func() time.Time
}

// NewService constructs the inbox notification service.
func NewService(store storage.NotificationStore, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock}
}

// Notify stores one notification, deduplicating by (user, kind, ref).
func (s *Service) Notify(ctx context.Context, intent Intent) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	user := strings.TrimSpace(intent.User)
	if user == "" {
		return ErrUserRequired
	}
	kind := strings.TrimSpace(intent.Kind)
	if kind == "" {
		return ErrKindRequired
	}
	ref := strings.TrimSpace(intent.Ref)

	now := s.clock().UTC()
	return s.store.PutNotification(ctx, storage.NotificationRecord{
		ID:        notificationID(user, kind, ref),
		User:      user,
		Kind:      kind,
		Payload:   intent.Payload,
		CreatedAt: now,
	})
}

// ListInbox lists a user's notifications newest first.
func (s *Service) ListInbox(ctx context.Context, user string, pageSize int, pageToken string) (storage.NotificationPage, error) {
	if s == nil || s.store == nil {
		return storage.NotificationPage{}, ErrStoreNotConfigured
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return storage.NotificationPage{}, ErrUserRequired
	}
	return s.store.ListNotifications(ctx, user, pagination.ClampPageSize(pageSize, pageSizes), strings.TrimSpace(pageToken))
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotificationIDRequired
	}
	return s.store.MarkNotificationRead(ctx, id, s.clock().UTC())
}

// notificationID derives the deterministic inbox key so repeated intents for
// the same fact collapse into one entry.
func notificationID(user, kind, ref string) string {
	if ref == "" {
		return user + "_" + kind
	}
	return user + "_" + kind + "_" + ref
}

var _ Notifier = (*Service)(nil)
