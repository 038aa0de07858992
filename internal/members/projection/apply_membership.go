package projection

import (
	"context"
	"errors"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/storage"
)

func (a Applier) applyMembershipAdded(ctx context.Context, evt event.Event, payload event.MembershipAddedPayload) error {
	ts := ensureTimestamp(evt.Timestamp)
	return a.Memberships.PutMembership(ctx, domain.Membership{
		ID:        domain.MembershipID(payload.User, payload.ListType, payload.List),
		User:      payload.User,
		ListType:  payload.ListType,
		List:      payload.List,
		Role:      payload.Role,
		Time:      payload.Time,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
}

func (a Applier) applyMembershipRemoved(ctx context.Context, evt event.Event, payload event.MembershipRemovedPayload) error {
	return a.Memberships.DeleteMembership(ctx, domain.MembershipID(payload.User, payload.ListType, payload.List))
}

func (a Applier) applyMembershipRoleChanged(ctx context.Context, evt event.Event, payload event.MembershipRoleChangedPayload) error {
	id := domain.MembershipID(payload.User, payload.ListType, payload.List)
	m, err := a.Memberships.GetMembership(ctx, id)
	if err != nil {
		// Role changes on a membership that is already gone are no-ops.
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	m.Role = payload.Role
	m.UpdatedAt = ensureTimestamp(evt.Timestamp)
	return a.Memberships.PutMembership(ctx, m)
}

func (a Applier) applyMembershipTimeChanged(ctx context.Context, evt event.Event, payload event.MembershipTimeChangedPayload) error {
	id := domain.MembershipID(payload.User, payload.ListType, payload.List)
	m, err := a.Memberships.GetMembership(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	m.Time = payload.Time
	m.UpdatedAt = ensureTimestamp(evt.Timestamp)
	return a.Memberships.PutMembership(ctx, m)
}

func (a Applier) applyMembersListDeleted(ctx context.Context, evt event.Event, payload event.MembersListDeletedPayload) error {
	_, err := a.Memberships.DeleteListMemberships(ctx, payload.ListType, payload.List)
	return err
}

func (a Applier) applyListTimeChanged(ctx context.Context, evt event.Event, payload event.ListTimeChangedPayload) error {
	_, err := a.Memberships.UpdateListMembershipTimes(ctx, payload.ListType, payload.List, payload.Time, ensureTimestamp(evt.Timestamp))
	return err
}
