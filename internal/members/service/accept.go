package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/notify"
	"github.com/louisbranch/roster/internal/members/saga"
	"github.com/louisbranch/roster/internal/members/storage"
	apperrors "github.com/louisbranch/roster/internal/platform/errors"
)

func (s *Service) loadInvitationFor(ctx context.Context, caller Caller, invitationID string) (domain.Invitation, error) {
	if err := requireUser(caller); err != nil {
		return domain.Invitation{}, err
	}
	inv, err := s.stores.Invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Invitation{}, apperrors.New(apperrors.CodeNotFound, "invitation not found")
		}
		return domain.Invitation{}, fmt.Errorf("load invitation: %w", err)
	}
	if inv.To != caller.UserID {
		return domain.Invitation{}, apperrors.New(apperrors.CodeUnauthorized, "invitation belongs to another user")
	}
	return inv, nil
}

// AcceptInvitation accepts a direct invitation addressed to the caller. The
// list type's saga handler may claim the membership workflow; otherwise a
// default membership is created. Accepting a settled invitation is a no-op.
func (s *Service) AcceptInvitation(ctx context.Context, caller Caller, invitationID string) (Result, error) {
	inv, err := s.loadInvitationFor(ctx, caller, invitationID)
	if err != nil {
		return Result{}, err
	}
	if inv.State.IsTerminal() {
		return Result{Kind: ResultNone, Invitation: inv}, nil
	}

	var events []event.Event

	outcome, sagaErr := s.sagas.InvitationAccepted(ctx, saga.Acceptance{
		From:     inv.From,
		To:       inv.To,
		ListType: inv.ListType,
		List:     inv.List,
		Role:     inv.Role,
	})
	if sagaErr != nil {
		// Failed delegation falls back to the default membership; the upsert
		// absorbs a double-create if the handler partially ran.
		s.logger.Printf("members: invitation saga for %s: %v", inv.ListType, sagaErr)
	}
	if !outcome.Claimed {
		added, err := s.newEvent(caller, event.TypeMembershipAdded, event.MembershipAddedPayload{
			User:     inv.To,
			ListType: inv.ListType,
			List:     inv.List,
			Role:     inv.Role,
		})
		if err != nil {
			return Result{}, err
		}
		events = append(events, added)
	}

	accepted, err := s.newEvent(caller, event.TypeInvitationAccepted, event.InvitationStateChangedPayload{
		From:     inv.From,
		To:       inv.To,
		ListType: inv.ListType,
		List:     inv.List,
	})
	if err != nil {
		return Result{}, err
	}
	events = append(events, accepted)

	if err := s.apply(ctx, events); err != nil {
		return Result{}, err
	}

	s.notifyIntent(ctx, notify.Intent{
		User: inv.From,
		Kind: notify.KindInvitationAccepted,
		Ref:  inv.ID,
	})

	inv, err = s.stores.Invitations.GetInvitation(ctx, inv.ID)
	if err != nil {
		return Result{}, fmt.Errorf("load invitation: %w", err)
	}
	return Result{Kind: ResultOK, Invitation: inv}, nil
}

// DeclineInvitation declines a direct invitation addressed to the caller.
// Declining a settled invitation is a no-op.
func (s *Service) DeclineInvitation(ctx context.Context, caller Caller, invitationID string) (Result, error) {
	inv, err := s.loadInvitationFor(ctx, caller, invitationID)
	if err != nil {
		return Result{}, err
	}
	if inv.State.IsTerminal() {
		return Result{Kind: ResultNone, Invitation: inv}, nil
	}

	declined, err := s.newEvent(caller, event.TypeInvitationDeclined, event.InvitationStateChangedPayload{
		From:     inv.From,
		To:       inv.To,
		ListType: inv.ListType,
		List:     inv.List,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{declined}); err != nil {
		return Result{}, err
	}

	s.notifyIntent(ctx, notify.Intent{
		User: inv.From,
		Kind: notify.KindInvitationDeclined,
		Ref:  inv.ID,
	})

	inv, err = s.stores.Invitations.GetInvitation(ctx, inv.ID)
	if err != nil {
		return Result{}, fmt.Errorf("load invitation: %w", err)
	}
	return Result{Kind: ResultOK, Invitation: inv}, nil
}

func (s *Service) loadJoinRequestFor(ctx context.Context, caller Caller, requestID string) (domain.JoinRequest, error) {
	if err := requireUser(caller); err != nil {
		return domain.JoinRequest{}, err
	}
	req, err := s.stores.JoinRequests.GetJoinRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.JoinRequest{}, apperrors.New(apperrors.CodeNotFound, "join request not found")
		}
		return domain.JoinRequest{}, fmt.Errorf("load join request: %w", err)
	}
	if req.To != caller.UserID {
		return domain.JoinRequest{}, apperrors.New(apperrors.CodeUnauthorized, "join request belongs to another owner")
	}
	return req, nil
}

// AcceptJoinRequest accepts a join request addressed to the caller. The
// requester joins with the role recorded on the request; the list type's
// saga handler may claim the membership workflow.
func (s *Service) AcceptJoinRequest(ctx context.Context, caller Caller, requestID string) (Result, error) {
	req, err := s.loadJoinRequestFor(ctx, caller, requestID)
	if err != nil {
		return Result{}, err
	}
	if req.State.IsTerminal() {
		return Result{Kind: ResultNone}, nil
	}

	var events []event.Event

	outcome, sagaErr := s.sagas.JoinRequestAccepted(ctx, saga.Acceptance{
		From:     req.From,
		To:       req.To,
		ListType: req.ListType,
		List:     req.List,
		Role:     req.Role,
	})
	if sagaErr != nil {
		s.logger.Printf("members: join request saga for %s: %v", req.ListType, sagaErr)
	}
	if !outcome.Claimed {
		added, err := s.newEvent(caller, event.TypeMembershipAdded, event.MembershipAddedPayload{
			User:     req.From,
			ListType: req.ListType,
			List:     req.List,
			Role:     req.Role,
		})
		if err != nil {
			return Result{}, err
		}
		events = append(events, added)
	}

	accepted, err := s.newEvent(caller, event.TypeJoinRequestAccepted, event.JoinRequestStateChangedPayload{
		From:     req.From,
		To:       req.To,
		ListType: req.ListType,
		List:     req.List,
	})
	if err != nil {
		return Result{}, err
	}
	events = append(events, accepted)

	if err := s.apply(ctx, events); err != nil {
		return Result{}, err
	}

	s.notifyIntent(ctx, notify.Intent{
		User: req.From,
		Kind: notify.KindJoinRequestAccepted,
		Ref:  req.ID,
	})
	return Result{Kind: ResultOK}, nil
}

// DeclineJoinRequest declines a join request addressed to the caller.
func (s *Service) DeclineJoinRequest(ctx context.Context, caller Caller, requestID string) (Result, error) {
	req, err := s.loadJoinRequestFor(ctx, caller, requestID)
	if err != nil {
		return Result{}, err
	}
	if req.State.IsTerminal() {
		return Result{Kind: ResultNone}, nil
	}

	declined, err := s.newEvent(caller, event.TypeJoinRequestDeclined, event.JoinRequestStateChangedPayload{
		From:     req.From,
		To:       req.To,
		ListType: req.ListType,
		List:     req.List,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{declined}); err != nil {
		return Result{}, err
	}

	s.notifyIntent(ctx, notify.Intent{
		User: req.From,
		Kind: notify.KindJoinRequestDeclined,
		Ref:  req.ID,
	})
	return Result{Kind: ResultOK}, nil
}
