package projection

import (
	"context"
	"errors"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/storage"
)

func (a Applier) applyEmailInvitationAdded(ctx context.Context, evt event.Event, payload event.EmailInvitationAddedPayload) error {
	ts := ensureTimestamp(evt.Timestamp)
	return a.EmailInvitations.PutEmailInvitation(ctx, domain.EmailInvitation{
		Code:      payload.Code,
		From:      payload.From,
		Email:     payload.Email,
		ListType:  payload.ListType,
		List:      payload.List,
		Role:      payload.Role,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
}

func (a Applier) applyEmailInvitationRemoved(ctx context.Context, evt event.Event, payload event.EmailInvitationRemovedPayload) error {
	return a.EmailInvitations.DeleteEmailInvitation(ctx, payload.Code)
}

func (a Applier) applyEmailInvitationRoleChanged(ctx context.Context, evt event.Event, payload event.EmailInvitationRoleChangedPayload) error {
	inv, err := a.EmailInvitations.GetEmailInvitation(ctx, payload.Code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	inv.Role = payload.Role
	inv.UpdatedAt = ensureTimestamp(evt.Timestamp)
	return a.EmailInvitations.PutEmailInvitation(ctx, inv)
}
