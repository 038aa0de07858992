package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/storage"
	apperrors "github.com/louisbranch/roster/internal/platform/errors"
)

// CancelInvitation withdraws a pending invitation. Only the issuer or an
// admin may withdraw.
func (s *Service) CancelInvitation(ctx context.Context, caller Caller, invitationID string) (Result, error) {
	if err := requireUser(caller); err != nil {
		return Result{}, err
	}
	inv, err := s.stores.Invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, "invitation not found")
		}
		return Result{}, fmt.Errorf("load invitation: %w", err)
	}
	if inv.From != caller.UserID && !caller.Admin {
		return Result{}, apperrors.New(apperrors.CodeUnauthorized, "invitation belongs to another issuer")
	}

	evt, err := s.newEvent(caller, event.TypeInvitationRemoved, event.InvitationRemovedPayload{
		From:     inv.From,
		To:       inv.To,
		ListType: inv.ListType,
		List:     inv.List,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}

// CancelEmailInvitation revokes a redemption code. Only the issuer or an
// admin may revoke; outstanding copies of the code stop resolving.
func (s *Service) CancelEmailInvitation(ctx context.Context, caller Caller, code string) (Result, error) {
	if err := requireUser(caller); err != nil {
		return Result{}, err
	}
	inv, err := s.stores.EmailInvitations.GetEmailInvitation(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, "email invitation not found")
		}
		return Result{}, fmt.Errorf("load email invitation: %w", err)
	}
	if inv.From != caller.UserID && !caller.Admin {
		return Result{}, apperrors.New(apperrors.CodeUnauthorized, "email invitation belongs to another issuer")
	}

	evt, err := s.newEvent(caller, event.TypeEmailInvitationRemoved, event.EmailInvitationRemovedPayload{
		Code: inv.Code,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}

// CancelJoinRequest withdraws a pending join request. Only the requester or
// an admin may withdraw.
func (s *Service) CancelJoinRequest(ctx context.Context, caller Caller, requestID string) (Result, error) {
	if err := requireUser(caller); err != nil {
		return Result{}, err
	}
	req, err := s.stores.JoinRequests.GetJoinRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, "join request not found")
		}
		return Result{}, fmt.Errorf("load join request: %w", err)
	}
	if req.From != caller.UserID && !caller.Admin {
		return Result{}, apperrors.New(apperrors.CodeUnauthorized, "join request belongs to another requester")
	}

	evt, err := s.newEvent(caller, event.TypeJoinRequestRemoved, event.JoinRequestRemovedPayload{
		From:     req.From,
		To:       req.To,
		ListType: req.ListType,
		List:     req.List,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}

// DismissSessionInvitation drops one invite parked on the caller's session.
func (s *Service) DismissSessionInvitation(ctx context.Context, caller Caller, pending domain.PendingInvitation) (Result, error) {
	session, err := domain.NormalizeSession(caller.SessionID)
	if err != nil {
		return Result{}, err
	}

	evt, err := s.newEvent(caller, event.TypeSessionInvitationRemoved, event.SessionInvitationRemovedPayload{
		Session:    session,
		Invitation: pending,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultOK}, nil
}
