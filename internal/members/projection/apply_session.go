package projection

import (
	"context"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
)

func (a Applier) applySessionInvitationAdded(ctx context.Context, evt event.Event, payload event.SessionInvitationAddedPayload) error {
	return a.SessionInvitations.AddSessionInvitations(ctx, payload.Session, []domain.PendingInvitation{payload.Invitation}, ensureTimestamp(evt.Timestamp))
}

func (a Applier) applySessionInvitationRemoved(ctx context.Context, evt event.Event, payload event.SessionInvitationRemovedPayload) error {
	return a.SessionInvitations.RemoveSessionInvitation(ctx, payload.Session, payload.Invitation, ensureTimestamp(evt.Timestamp))
}

func (a Applier) applySessionInvitationsRemoved(ctx context.Context, evt event.Event, payload event.SessionInvitationsRemovedPayload) error {
	return a.SessionInvitations.DeleteSessionInvitations(ctx, payload.Session)
}
