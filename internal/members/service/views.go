package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/storage"
	apperrors "github.com/louisbranch/roster/internal/platform/errors"
	"github.com/louisbranch/roster/internal/platform/pagination"
)

var viewPageSizes = pagination.PageSizeConfig{Default: 50, Max: 200}

// MyMembershipsQuery narrows the caller's membership listing. Zero-value
// fields match everything.
type MyMembershipsQuery struct {
	ListType  string
	Role      string
	PageSize  int
	PageToken string
}

// MyMemberships lists the caller's memberships.
func (s *Service) MyMemberships(ctx context.Context, caller Caller, q MyMembershipsQuery) (storage.MembershipPage, error) {
	if err := requireUser(caller); err != nil {
		return storage.MembershipPage{}, err
	}
	return s.stores.Memberships.ListMemberships(ctx, storage.MembershipFilter{
		User:     caller.UserID,
		ListType: q.ListType,
		Role:     q.Role,
	}, pagination.ClampPageSize(q.PageSize, viewPageSizes), q.PageToken)
}

// MyMembershipsInWindow lists the caller's memberships of a list type whose
// time falls within [from, to). Untimed memberships are excluded.
func (s *Service) MyMembershipsInWindow(ctx context.Context, caller Caller, listType string, from, to time.Time) ([]domain.Membership, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	var matched []domain.Membership
	pageToken := ""
	for {
		page, err := s.stores.Memberships.ListMemberships(ctx, storage.MembershipFilter{
			User:     caller.UserID,
			ListType: listType,
		}, viewPageSizes.Max, pageToken)
		if err != nil {
			return nil, err
		}
		for _, m := range page.Memberships {
			if m.Time == nil {
				continue
			}
			if m.Time.Before(from) || !m.Time.Before(to) {
				continue
			}
			matched = append(matched, m)
		}
		if page.NextPageToken == "" {
			return matched, nil
		}
		pageToken = page.NextPageToken
	}
}

// MyMembership returns the caller's membership for one list.
func (s *Service) MyMembership(ctx context.Context, caller Caller, listType, list string) (domain.Membership, error) {
	if err := requireUser(caller); err != nil {
		return domain.Membership{}, err
	}
	key, err := domain.NormalizeListKey(listType, list)
	if err != nil {
		return domain.Membership{}, err
	}
	return s.stores.Memberships.GetMembership(ctx, domain.MembershipID(caller.UserID, key.ListType, key.List))
}

// requireMember authorizes list-scoped reads: the caller must hold a
// membership on the list.
func (s *Service) requireMember(ctx context.Context, caller Caller, key domain.ListKey) error {
	if err := requireUser(caller); err != nil {
		return err
	}
	if caller.Admin {
		return nil
	}
	if _, err := s.stores.Memberships.GetMembership(ctx, domain.MembershipID(caller.UserID, key.ListType, key.List)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeUnauthorized, "caller is not a member of the list")
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

// ListMembersQuery narrows a list membership view.
type ListMembersQuery struct {
	ListType  string
	List      string
	Role      string
	PageSize  int
	PageToken string
}

// ListMembers lists the members of one list. Caller must be on the list.
func (s *Service) ListMembers(ctx context.Context, caller Caller, q ListMembersQuery) (storage.MembershipPage, error) {
	key, err := domain.NormalizeListKey(q.ListType, q.List)
	if err != nil {
		return storage.MembershipPage{}, err
	}
	if err := s.requireMember(ctx, caller, key); err != nil {
		return storage.MembershipPage{}, err
	}
	return s.stores.Memberships.ListMemberships(ctx, storage.MembershipFilter{
		ListType: key.ListType,
		List:     key.List,
		Role:     q.Role,
	}, pagination.ClampPageSize(q.PageSize, viewPageSizes), q.PageToken)
}

// InvitationsQuery narrows invitation listings.
type InvitationsQuery struct {
	ListType  string
	List      string
	State     domain.InvitationState
	PageSize  int
	PageToken string
}

// ReceivedInvitations lists invitations addressed to the caller.
func (s *Service) ReceivedInvitations(ctx context.Context, caller Caller, q InvitationsQuery) (storage.InvitationPage, error) {
	if err := requireUser(caller); err != nil {
		return storage.InvitationPage{}, err
	}
	return s.stores.Invitations.ListInvitations(ctx, storage.InvitationFilter{
		To:       caller.UserID,
		ListType: q.ListType,
		List:     q.List,
		State:    q.State,
	}, pagination.ClampPageSize(q.PageSize, viewPageSizes), q.PageToken)
}

// SentInvitations lists invitations issued by the caller.
func (s *Service) SentInvitations(ctx context.Context, caller Caller, q InvitationsQuery) (storage.InvitationPage, error) {
	if err := requireUser(caller); err != nil {
		return storage.InvitationPage{}, err
	}
	return s.stores.Invitations.ListInvitations(ctx, storage.InvitationFilter{
		From:     caller.UserID,
		ListType: q.ListType,
		List:     q.List,
		State:    q.State,
	}, pagination.ClampPageSize(q.PageSize, viewPageSizes), q.PageToken)
}

// ReceivedInvitation returns one invitation addressed to the caller.
func (s *Service) ReceivedInvitation(ctx context.Context, caller Caller, invitationID string) (domain.Invitation, error) {
	return s.loadInvitationFor(ctx, caller, invitationID)
}

// SentEmailInvitations lists email invitations issued by the caller.
func (s *Service) SentEmailInvitations(ctx context.Context, caller Caller, listType string, pageSize int, pageToken string) (storage.EmailInvitationPage, error) {
	if err := requireUser(caller); err != nil {
		return storage.EmailInvitationPage{}, err
	}
	return s.stores.EmailInvitations.ListEmailInvitations(ctx, storage.EmailInvitationFilter{
		From:     caller.UserID,
		ListType: listType,
	}, pagination.ClampPageSize(pageSize, viewPageSizes), pageToken)
}

// InvitationByCode resolves an email invitation by its bearer code. The code
// itself is the authorization.
func (s *Service) InvitationByCode(ctx context.Context, code string) (domain.EmailInvitation, error) {
	if code == "" {
		return domain.EmailInvitation{}, domain.ErrEmptyCode
	}
	inv, err := s.stores.EmailInvitations.GetEmailInvitation(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.EmailInvitation{}, apperrors.New(apperrors.CodeNotFound, "invitation code not found")
		}
		return domain.EmailInvitation{}, err
	}
	return inv, nil
}

// JoinRequestsQuery narrows join request listings.
type JoinRequestsQuery struct {
	ListType  string
	List      string
	State     domain.InvitationState
	PageSize  int
	PageToken string
}

// ReceivedJoinRequests lists join requests addressed to the caller.
func (s *Service) ReceivedJoinRequests(ctx context.Context, caller Caller, q JoinRequestsQuery) (storage.JoinRequestPage, error) {
	if err := requireUser(caller); err != nil {
		return storage.JoinRequestPage{}, err
	}
	return s.stores.JoinRequests.ListJoinRequests(ctx, storage.JoinRequestFilter{
		To:       caller.UserID,
		ListType: q.ListType,
		List:     q.List,
		State:    q.State,
	}, pagination.ClampPageSize(q.PageSize, viewPageSizes), q.PageToken)
}

// SentJoinRequests lists join requests issued by the caller.
func (s *Service) SentJoinRequests(ctx context.Context, caller Caller, q JoinRequestsQuery) (storage.JoinRequestPage, error) {
	if err := requireUser(caller); err != nil {
		return storage.JoinRequestPage{}, err
	}
	return s.stores.JoinRequests.ListJoinRequests(ctx, storage.JoinRequestFilter{
		From:     caller.UserID,
		ListType: q.ListType,
		List:     q.List,
		State:    q.State,
	}, pagination.ClampPageSize(q.PageSize, viewPageSizes), q.PageToken)
}
