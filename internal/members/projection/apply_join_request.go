package projection

import (
	"context"
	"errors"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/storage"
)

func (a Applier) applyJoinRequestAdded(ctx context.Context, evt event.Event, payload event.JoinRequestAddedPayload) error {
	ts := ensureTimestamp(evt.Timestamp)
	return a.JoinRequests.PutJoinRequest(ctx, domain.JoinRequest{
		ID:        domain.JoinRequestID(payload.From, payload.To, payload.ListType, payload.List),
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

func (a Applier) applyJoinRequestAccepted(ctx context.Context, evt event.Event, payload event.JoinRequestStateChangedPayload) error {
	id := domain.JoinRequestID(payload.From, payload.To, payload.ListType, payload.List)
	_, err := a.JoinRequests.UpdateJoinRequestState(ctx, id, domain.StateAccepted, ensureTimestamp(evt.Timestamp))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (a Applier) applyJoinRequestDeclined(ctx context.Context, evt event.Event, payload event.JoinRequestStateChangedPayload) error {
	id := domain.JoinRequestID(payload.From, payload.To, payload.ListType, payload.List)
	_, err := a.JoinRequests.UpdateJoinRequestState(ctx, id, domain.StateDeclined, ensureTimestamp(evt.Timestamp))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (a Applier) applyJoinRequestRemoved(ctx context.Context, evt event.Event, payload event.JoinRequestRemovedPayload) error {
	return a.JoinRequests.DeleteJoinRequest(ctx, domain.JoinRequestID(payload.From, payload.To, payload.ListType, payload.List))
}
