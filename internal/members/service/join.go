package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/notify"
	"github.com/louisbranch/roster/internal/members/storage"
	apperrors "github.com/louisbranch/roster/internal/platform/errors"
)

const ownerPageSize = 100

// listOwners walks every owner-role membership of a list.
func (s *Service) listOwners(ctx context.Context, key domain.ListKey) ([]domain.Membership, error) {
	var owners []domain.Membership
	pageToken := ""
	for {
		page, err := s.stores.Memberships.ListMemberships(ctx, storage.MembershipFilter{
			ListType: key.ListType,
			List:     key.List,
			Role:     domain.RoleOwner,
		}, ownerPageSize, pageToken)
		if err != nil {
			return nil, fmt.Errorf("list owners: %w", err)
		}
		owners = append(owners, page.Memberships...)
		if page.NextPageToken == "" {
			return owners, nil
		}
		pageToken = page.NextPageToken
	}
}

// RequestToJoinParams describe a join request to a list.
type RequestToJoinParams struct {
	ListType string
	List     string
}

// RequestToJoin creates one join request per list owner. A list with no
// owners produces no rows and an advisory warning instead of an error.
func (s *Service) RequestToJoin(ctx context.Context, caller Caller, params RequestToJoinParams) (Result, error) {
	if err := requireUser(caller); err != nil {
		return Result{}, err
	}
	key, err := domain.NormalizeListKey(params.ListType, params.List)
	if err != nil {
		return Result{}, err
	}

	owners, err := s.listOwners(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if len(owners) == 0 {
		s.logger.Printf("members: join request for %s %s: no owners", key.ListType, key.List)
		return Result{Kind: ResultOK, Warning: NoOwnerWarning}, nil
	}

	events := make([]event.Event, 0, len(owners))
	for _, owner := range owners {
		evt, err := s.newEvent(caller, event.TypeJoinRequestAdded, event.JoinRequestAddedPayload{
			From:     caller.UserID,
			To:       owner.User,
			ListType: key.ListType,
			List:     key.List,
			Role:     domain.RoleMember,
		})
		if err != nil {
			return Result{}, err
		}
		events = append(events, evt)
	}
	if err := s.apply(ctx, events); err != nil {
		return Result{}, err
	}

	for _, owner := range owners {
		s.notifyIntent(ctx, notify.Intent{
			User: owner.User,
			Kind: notify.KindJoinRequestReceived,
			Ref:  domain.JoinRequestID(caller.UserID, owner.User, key.ListType, key.List),
		})
	}
	return Result{Kind: ResultOK}, nil
}

// RemoveSelf removes the caller's own membership. List types with external
// lifecycle coupling additionally get a leave notice so the owning service
// can run its own departure workflow.
func (s *Service) RemoveSelf(ctx context.Context, caller Caller, membershipID string) (Result, error) {
	if err := requireUser(caller); err != nil {
		return Result{}, err
	}
	m, err := s.stores.Memberships.GetMembership(ctx, membershipID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, "membership not found")
		}
		return Result{}, fmt.Errorf("load membership: %w", err)
	}
	if m.User != caller.UserID {
		return Result{}, apperrors.New(apperrors.CodeUnauthorized, "membership belongs to another user")
	}

	removed, err := s.newEvent(caller, event.TypeMembershipRemoved, event.MembershipRemovedPayload{
		User:     m.User,
		ListType: m.ListType,
		List:     m.List,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{removed}); err != nil {
		return Result{}, err
	}

	if s.coupled[m.ListType] && s.lifecycle != nil {
		if err := s.lifecycle.MemberLeft(ctx, m.ListType, m.List, m.User); err != nil {
			s.logger.Printf("members: leave notice for %s %s: %v", m.ListType, m.List, err)
		}
	}
	return Result{Kind: ResultOK}, nil
}

// MembersListDeleted cascades a list deletion to every membership on the
// list. Triggered by the owning service when it deletes the list itself.
func (s *Service) MembersListDeleted(ctx context.Context, caller Caller, listType, list string) (Result, error) {
	key, err := domain.NormalizeListKey(listType, list)
	if err != nil {
		return Result{}, err
	}
	evt, err := s.newEvent(caller, event.TypeMembersListDeleted, event.MembersListDeletedPayload{
		ListType: key.ListType,
		List:     key.List,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}

// MemberLeftList removes a user's membership when the departure originated
// in the owning service. Unknown memberships are a no-op.
func (s *Service) MemberLeftList(ctx context.Context, caller Caller, listType, list, user string) (Result, error) {
	key, err := domain.NormalizeListKey(listType, list)
	if err != nil {
		return Result{}, err
	}
	user, err = domain.NormalizeUser(user)
	if err != nil {
		return Result{}, err
	}

	if _, err := s.stores.Memberships.GetMembership(ctx, domain.MembershipID(user, key.ListType, key.List)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{Kind: ResultNone}, nil
		}
		return Result{}, fmt.Errorf("load membership: %w", err)
	}

	removed, err := s.newEvent(caller, event.TypeMembershipRemoved, event.MembershipRemovedPayload{
		User:     user,
		ListType: key.ListType,
		List:     key.List,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{removed}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}
