package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/notify"
	"github.com/louisbranch/roster/internal/members/storage"
)

// OnLogin converts a session's pending invitations into direct invitations
// for the user who just signed in, then clears the session set. Entries that
// target the same (listType, list) collapse into one invitation.
func (s *Service) OnLogin(ctx context.Context, user, session string) error {
	user, err := domain.NormalizeUser(user)
	if err != nil {
		return err
	}
	session, err = domain.NormalizeSession(session)
	if err != nil {
		return err
	}

	record, err := s.stores.SessionInvitations.GetSessionInvitations(ctx, session)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load session invitations: %w", err)
	}

	caller := Caller{UserID: user, SessionID: session}
	pending := domain.DedupePendingByList(record.Invitations)
	events := make([]event.Event, 0, len(pending)+1)
	for _, inv := range pending {
		added, err := s.newEvent(caller, event.TypeInvitationAdded, event.InvitationAddedPayload{
			From:     inv.From,
			To:       user,
			ListType: inv.ListType,
			List:     inv.List,
			Role:     inv.Role,
		})
		if err != nil {
			return err
		}
		events = append(events, added)
	}
	cleared, err := s.newEvent(caller, event.TypeSessionInvitationsRemoved, event.SessionInvitationsRemovedPayload{
		Session: session,
	})
	if err != nil {
		return err
	}
	events = append(events, cleared)

	if err := s.apply(ctx, events); err != nil {
		return err
	}

	for _, inv := range pending {
		s.notifyIntent(ctx, notify.Intent{
			User: user,
			Kind: notify.KindInvitationReceived,
			Ref:  domain.InvitationID(inv.From, user, inv.ListType, inv.List),
		})
	}
	return nil
}

// OnRegister converts email invitations addressed to a newly registered
// account into direct invitations, then drains any invites parked on the
// registration session. The email invitation rows are retained so
// outstanding codes keep resolving.
func (s *Service) OnRegister(ctx context.Context, user, session, email string) error {
	user, err := domain.NormalizeUser(user)
	if err != nil {
		return err
	}
	email, err = domain.NormalizeEmail(email)
	if err != nil {
		return err
	}

	var pending []domain.PendingInvitation
	pageToken := ""
	for {
		page, err := s.stores.EmailInvitations.ListEmailInvitations(ctx, storage.EmailInvitationFilter{Email: email}, ownerPageSize, pageToken)
		if err != nil {
			return fmt.Errorf("list email invitations: %w", err)
		}
		for _, inv := range page.Invitations {
			pending = append(pending, domain.PendingInvitation{
				From:     inv.From,
				ListType: inv.ListType,
				List:     inv.List,
				Role:     inv.Role,
			})
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	pending = domain.DedupePendingByList(pending)
	if len(pending) == 0 {
		return s.drainSession(ctx, user, session)
	}

	caller := Caller{UserID: user}
	events := make([]event.Event, 0, len(pending))
	for _, inv := range pending {
		added, err := s.newEvent(caller, event.TypeInvitationAdded, event.InvitationAddedPayload{
			From:     inv.From,
			To:       user,
			ListType: inv.ListType,
			List:     inv.List,
			Role:     inv.Role,
		})
		if err != nil {
			return err
		}
		events = append(events, added)
	}
	if err := s.apply(ctx, events); err != nil {
		return err
	}

	for _, inv := range pending {
		s.notifyIntent(ctx, notify.Intent{
			User: user,
			Kind: notify.KindInvitationReceived,
			Ref:  domain.InvitationID(inv.From, user, inv.ListType, inv.List),
		})
	}
	return s.drainSession(ctx, user, session)
}

// drainSession runs the login conversion when registration carries a
// session. Registrations without a session skip it.
func (s *Service) drainSession(ctx context.Context, user, session string) error {
	if session == "" {
		return nil
	}
	return s.OnLogin(ctx, user, session)
}
