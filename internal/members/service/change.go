package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/storage"
	apperrors "github.com/louisbranch/roster/internal/platform/errors"
)

// ChangeMembershipRole updates a membership's role. Admin-scoped.
func (s *Service) ChangeMembershipRole(ctx context.Context, caller Caller, membershipID, role string) (Result, error) {
	if err := requireAdmin(caller); err != nil {
		return Result{}, err
	}
	m, err := s.stores.Memberships.GetMembership(ctx, membershipID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, "membership not found")
		}
		return Result{}, fmt.Errorf("load membership: %w", err)
	}

	evt, err := s.newEvent(caller, event.TypeMembershipRoleChanged, event.MembershipRoleChangedPayload{
		User:     m.User,
		ListType: m.ListType,
		List:     m.List,
		Role:     normalizeRole(role),
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}

// ChangeInvitationRole updates a pending invitation's role. Admin-scoped.
func (s *Service) ChangeInvitationRole(ctx context.Context, caller Caller, invitationID, role string) (Result, error) {
	if err := requireAdmin(caller); err != nil {
		return Result{}, err
	}
	inv, err := s.stores.Invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, "invitation not found")
		}
		return Result{}, fmt.Errorf("load invitation: %w", err)
	}

	evt, err := s.newEvent(caller, event.TypeInvitationRoleChanged, event.InvitationRoleChangedPayload{
		From:     inv.From,
		To:       inv.To,
		ListType: inv.ListType,
		List:     inv.List,
		Role:     normalizeRole(role),
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}

// ChangeEmailInvitationRole updates an email invitation's role. Admin-scoped.
func (s *Service) ChangeEmailInvitationRole(ctx context.Context, caller Caller, code, role string) (Result, error) {
	if err := requireAdmin(caller); err != nil {
		return Result{}, err
	}
	if _, err := s.stores.EmailInvitations.GetEmailInvitation(ctx, code); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, "email invitation not found")
		}
		return Result{}, fmt.Errorf("load email invitation: %w", err)
	}

	evt, err := s.newEvent(caller, event.TypeEmailInvitationRoleChanged, event.EmailInvitationRoleChangedPayload{
		Code: code,
		Role: normalizeRole(role),
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}

// ChangeMembershipTime updates a membership's time field. Admin-scoped.
func (s *Service) ChangeMembershipTime(ctx context.Context, caller Caller, membershipID string, t *time.Time) (Result, error) {
	if err := requireAdmin(caller); err != nil {
		return Result{}, err
	}
	m, err := s.stores.Memberships.GetMembership(ctx, membershipID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, "membership not found")
		}
		return Result{}, fmt.Errorf("load membership: %w", err)
	}

	evt, err := s.newEvent(caller, event.TypeMembershipTimeChanged, event.MembershipTimeChangedPayload{
		User:     m.User,
		ListType: m.ListType,
		List:     m.List,
		Time:     t,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}

// ChangeListTime updates the time field on every membership of a list.
// Triggered by the owning service when the list's scheduled time changes.
func (s *Service) ChangeListTime(ctx context.Context, caller Caller, listType, list string, t *time.Time) (Result, error) {
	key, err := domain.NormalizeListKey(listType, list)
	if err != nil {
		return Result{}, err
	}

	evt, err := s.newEvent(caller, event.TypeListTimeChanged, event.ListTimeChangedPayload{
		ListType: key.ListType,
		List:     key.List,
		Time:     t,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}
