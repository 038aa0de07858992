package projection

import (
	"context"
	"errors"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/storage"
)

func (a Applier) applyInvitationAdded(ctx context.Context, evt event.Event, payload event.InvitationAddedPayload) error {
	ts := ensureTimestamp(evt.Timestamp)
	return a.Invitations.PutInvitation(ctx, domain.Invitation{
		ID:        domain.InvitationID(payload.From, payload.To, payload.ListType, payload.List),
		From:      payload.From,
		To:        payload.To,
		ListType:  payload.ListType,
		List:      payload.List,
		Role:      payload.Role,
		State:     domain.StateNew,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
}

func (a Applier) applyInvitationAccepted(ctx context.Context, evt event.Event, payload event.InvitationStateChangedPayload) error {
	id := domain.InvitationID(payload.From, payload.To, payload.ListType, payload.List)
	_, err := a.Invitations.UpdateInvitationState(ctx, id, domain.StateAccepted, ensureTimestamp(evt.Timestamp))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (a Applier) applyInvitationDeclined(ctx context.Context, evt event.Event, payload event.InvitationStateChangedPayload) error {
	id := domain.InvitationID(payload.From, payload.To, payload.ListType, payload.List)
	_, err := a.Invitations.UpdateInvitationState(ctx, id, domain.StateDeclined, ensureTimestamp(evt.Timestamp))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (a Applier) applyInvitationRemoved(ctx context.Context, evt event.Event, payload event.InvitationRemovedPayload) error {
	return a.Invitations.DeleteInvitation(ctx, domain.InvitationID(payload.From, payload.To, payload.ListType, payload.List))
}

func (a Applier) applyInvitationRoleChanged(ctx context.Context, evt event.Event, payload event.InvitationRoleChangedPayload) error {
	id := domain.InvitationID(payload.From, payload.To, payload.ListType, payload.List)
	inv, err := a.Invitations.GetInvitation(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	inv.Role = payload.Role
	inv.UpdatedAt = ensureTimestamp(evt.Timestamp)
	return a.Invitations.PutInvitation(ctx, inv)
}
