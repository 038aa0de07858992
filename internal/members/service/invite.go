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

// InviteDirectParams describe a direct invitation to a known user.
type InviteDirectParams struct {
	To       string
	ListType string
	List     string
	Role     string
}

// InviteDirect invites a known user to a list. The target must resolve in
// the user directory.
func (s *Service) InviteDirect(ctx context.Context, caller Caller, params InviteDirectParams) (Result, error) {
	if err := requireUser(caller); err != nil {
		return Result{}, err
	}
	to, err := domain.NormalizeUser(params.To)
	if err != nil {
		return Result{}, err
	}
	key, err := domain.NormalizeListKey(params.ListType, params.List)
	if err != nil {
		return Result{}, err
	}
	role := normalizeRole(params.Role)

	if _, err := s.directory.GetUser(ctx, to); err != nil {
		if isNotFound(err) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("user %s not found", to))
		}
		return Result{}, fmt.Errorf("resolve user: %w", err)
	}

	evt, err := s.newEvent(caller, event.TypeInvitationAdded, event.InvitationAddedPayload{
		From:     caller.UserID,
		To:       to,
		ListType: key.ListType,
		List:     key.List,
		Role:     role,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}

	invID := domain.InvitationID(caller.UserID, to, key.ListType, key.List)
	s.notifyIntent(ctx, notify.Intent{
		User: to,
		Kind: notify.KindInvitationReceived,
		Ref:  invID,
	})

	inv, err := s.stores.Invitations.GetInvitation(ctx, invID)
	if err != nil {
		return Result{}, fmt.Errorf("load invitation: %w", err)
	}
	return Result{Kind: ResultInvitation, User: to, Invitation: inv}, nil
}

// InviteByEmailParams describe an invitation addressed by email.
type InviteByEmailParams struct {
	Email    string
	ListType string
	List     string
	Role     string
}

// InviteByEmail invites by email address. Addresses that resolve to an
// account get a direct invitation; unknown addresses get a code-addressed
// email invitation for later redemption.
func (s *Service) InviteByEmail(ctx context.Context, caller Caller, params InviteByEmailParams) (Result, error) {
	if err := requireUser(caller); err != nil {
		return Result{}, err
	}
	email, err := domain.NormalizeEmail(params.Email)
	if err != nil {
		return Result{}, err
	}
	key, err := domain.NormalizeListKey(params.ListType, params.List)
	if err != nil {
		return Result{}, err
	}
	role := normalizeRole(params.Role)

	target, err := s.directory.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return s.inviteResolvedUser(ctx, caller, target, email, key, role)
	case isNotFound(err):
		return s.inviteUnknownEmail(ctx, caller, email, key, role)
	default:
		return Result{}, fmt.Errorf("resolve email: %w", err)
	}
}

// inviteResolvedUser handles the known-account branch: the address owner must
// not already be a member of or invited to the list.
func (s *Service) inviteResolvedUser(ctx context.Context, caller Caller, target User, email string, key domain.ListKey, role string) (Result, error) {
	if _, err := s.stores.Memberships.GetMembership(ctx, domain.MembershipID(target.ID, key.ListType, key.List)); err == nil {
		return Result{}, apperrors.WithMetadata(apperrors.CodeAlreadyMember,
			fmt.Sprintf("%s is already a member of %s", email, key.List),
			map[string]string{"field": "email"})
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("check membership: %w", err)
	}

	// Any existing invitation blocks a re-invite, decided ones included.
	invID := domain.InvitationID(caller.UserID, target.ID, key.ListType, key.List)
	if _, err := s.stores.Invitations.GetInvitation(ctx, invID); err == nil {
		return Result{}, apperrors.WithMetadata(apperrors.CodeAlreadyInvited,
			fmt.Sprintf("%s is already invited to %s", email, key.List),
			map[string]string{"field": "email"})
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("check invitation: %w", err)
	}

	evt, err := s.newEvent(caller, event.TypeInvitationAdded, event.InvitationAddedPayload{
		From:     caller.UserID,
		To:       target.ID,
		ListType: key.ListType,
		List:     key.List,
		Role:     role,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}

	s.notifyIntent(ctx, notify.Intent{
		User: target.ID,
		Kind: notify.KindInvitationReceived,
		Ref:  invID,
	})

	inv, err := s.stores.Invitations.GetInvitation(ctx, invID)
	if err != nil {
		return Result{}, fmt.Errorf("load invitation: %w", err)
	}
	return Result{Kind: ResultUser, User: target.ID, Invitation: inv}, nil
}

// inviteUnknownEmail handles the no-account branch: mint an unguessable code
// and park the invitation until the address registers or redeems.
func (s *Service) inviteUnknownEmail(ctx context.Context, caller Caller, email string, key domain.ListKey, role string) (Result, error) {
	existing, err := s.stores.EmailInvitations.ListEmailInvitations(ctx, storage.EmailInvitationFilter{
		Email:    email,
		ListType: key.ListType,
		List:     key.List,
	}, 1, "")
	if err != nil {
		return Result{}, fmt.Errorf("check email invitations: %w", err)
	}
	if len(existing.Invitations) > 0 {
		return Result{}, apperrors.WithMetadata(apperrors.CodeAlreadyInvited,
			fmt.Sprintf("%s is already invited to %s", email, key.List),
			map[string]string{"field": "email"})
	}

	code, err := s.newCode()
	if err != nil {
		return Result{}, fmt.Errorf("generate code: %w", err)
	}
	evt, err := s.newEvent(caller, event.TypeEmailInvitationAdded, event.EmailInvitationAddedPayload{
		Code:     code,
		From:     caller.UserID,
		Email:    email,
		ListType: key.ListType,
		List:     key.List,
		Role:     role,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultEmail, Email: email, Code: code}, nil
}

// RedeemInvitationCodeParams describe a code redemption.
type RedeemInvitationCodeParams struct {
	Code string
	// AutoJoin creates the membership immediately instead of a pending
	// invitation.
	AutoJoin bool
}

// RedeemInvitationCode resolves an email invitation code for the caller.
// Anonymous callers park the invite on their session; identified callers get
// a membership (autoJoin) or a direct invitation from the original issuer.
// The email invitation itself is retained so the code stays valid for the
// addressee's other devices.
func (s *Service) RedeemInvitationCode(ctx context.Context, caller Caller, params RedeemInvitationCodeParams) (Result, error) {
	code := params.Code
	if code == "" {
		return Result{}, domain.ErrEmptyCode
	}

	emailInv, err := s.stores.EmailInvitations.GetEmailInvitation(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.New(apperrors.CodeNotFound, "invitation code not found")
		}
		return Result{}, fmt.Errorf("resolve code: %w", err)
	}

	if caller.UserID == "" {
		session, err := domain.NormalizeSession(caller.SessionID)
		if err != nil {
			return Result{}, err
		}
		evt, err := s.newEvent(caller, event.TypeSessionInvitationAdded, event.SessionInvitationAddedPayload{
			Session: session,
			Invitation: domain.PendingInvitation{
				From:     emailInv.From,
				ListType: emailInv.ListType,
				List:     emailInv.List,
				Role:     emailInv.Role,
			},
		})
		if err != nil {
			return Result{}, err
		}
		if err := s.apply(ctx, []event.Event{evt}); err != nil {
			return Result{}, err
		}
		return Result{Kind: ResultSession}, nil
	}

	if _, err := s.stores.Memberships.GetMembership(ctx, domain.MembershipID(caller.UserID, emailInv.ListType, emailInv.List)); err == nil {
		return Result{Kind: ResultNone}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("check membership: %w", err)
	}

	if params.AutoJoin {
		evt, err := s.newEvent(caller, event.TypeMembershipAdded, event.MembershipAddedPayload{
			User:     caller.UserID,
			ListType: emailInv.ListType,
			List:     emailInv.List,
			Role:     emailInv.Role,
		})
		if err != nil {
			return Result{}, err
		}
		if err := s.apply(ctx, []event.Event{evt}); err != nil {
			return Result{}, err
		}
		return Result{Kind: ResultJoined, User: caller.UserID}, nil
	}

	evt, err := s.newEvent(caller, event.TypeInvitationAdded, event.InvitationAddedPayload{
		From:     emailInv.From,
		To:       caller.UserID,
		ListType: emailInv.ListType,
		List:     emailInv.List,
		Role:     emailInv.Role,
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.apply(ctx, []event.Event{evt}); err != nil {
		return Result{}, err
	}

	invID := domain.InvitationID(emailInv.From, caller.UserID, emailInv.ListType, emailInv.List)
	s.notifyIntent(ctx, notify.Intent{
		User: emailInv.From,
		Kind: notify.KindInvitationRedeemed,
		Ref:  invID,
	})

	inv, err := s.stores.Invitations.GetInvitation(ctx, invID)
	if err != nil {
		return Result{}, fmt.Errorf("load invitation: %w", err)
	}
	return Result{Kind: ResultInvitation, Invitation: inv}, nil
}

func normalizeRole(role string) string {
	if role == "" {
		return domain.RoleMember
	}
	return role
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || apperrors.IsCode(err, apperrors.CodeNotFound)
}
