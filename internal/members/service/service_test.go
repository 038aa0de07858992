package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/notify"
	"github.com/louisbranch/roster/internal/members/saga"
	"github.com/louisbranch/roster/internal/members/storage"
	"github.com/louisbranch/roster/internal/members/storage/sqlite"
	apperrors "github.com/louisbranch/roster/internal/platform/errors"
	"github.com/louisbranch/roster/internal/platform/requestctx"
)

type fakeDirectory struct {
	users   map[string]User
	byEmail map[string]User
}

func (d *fakeDirectory) GetUser(ctx context.Context, userID string) (User, error) {
	if u, ok := d.users[userID]; ok {
		return u, nil
	}
	return User{}, storage.ErrNotFound
}

func (d *fakeDirectory) FindUserByEmail(ctx context.Context, email string) (User, error) {
	if u, ok := d.byEmail[email]; ok {
		return u, nil
	}
	return User{}, storage.ErrNotFound
}

type fakeLifecycle struct {
	left []string
}

func (l *fakeLifecycle) MemberLeft(ctx context.Context, listType, list, user string) error {
	l.left = append(l.left, listType+"/"+list+"/"+user)
	return nil
}

type fakeNotifier struct {
	intents []notify.Intent
}

func (n *fakeNotifier) Notify(ctx context.Context, intent notify.Intent) error {
	n.intents = append(n.intents, intent)
	return nil
}

type testEnv struct {
	svc       *Service
	store     *sqlite.Store
	directory *fakeDirectory
	lifecycle *fakeLifecycle
	notifier  *fakeNotifier
	sagas     *saga.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.Open(t.TempDir() + "/members.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	directory := &fakeDirectory{
		users: map[string]User{
			"alice": {ID: "alice", Email: "alice@example.com"},
			"bob":   {ID: "bob", Email: "bob@example.com"},
			"carol": {ID: "carol", Email: "carol@example.com"},
		},
		byEmail: map[string]User{
			"alice@example.com": {ID: "alice", Email: "alice@example.com"},
			"bob@example.com":   {ID: "bob", Email: "bob@example.com"},
		},
	}
	lifecycle := &fakeLifecycle{}
	notifier := &fakeNotifier{}
	sagas := saga.NewRegistry()

	codeSeq := 0
	clock := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	svc, err := New(Config{
		Stores: Stores{
			Memberships:        store,
			Invitations:        store,
			EmailInvitations:   store,
			JoinRequests:       store,
			SessionInvitations: store,
			Events:             store,
		},
		Sagas:     sagas,
		Directory: directory,
		Lifecycle: lifecycle,
		Notifier:  notifier,
		Clock:     func() time.Time { return clock },
		NewCode: func() (string, error) {
			codeSeq++
			return fmt.Sprintf("code-%d", codeSeq), nil
		},
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testEnv{svc: svc, store: store, directory: directory, lifecycle: lifecycle, notifier: notifier, sagas: sagas}
}

// addMembership seeds a membership directly through the command surface.
func (e *testEnv) addMembership(t *testing.T, user, listType, list, role string) {
	t.Helper()
	now := time.Now().UTC()
	err := e.store.PutMembership(context.Background(), domain.Membership{
		ID:        domain.MembershipID(user, listType, list),
		User:      user,
		ListType:  listType,
		List:      list,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed membership: %v", err)
	}
}

func TestInviteDirectCreatesInvitationAndNotFoundTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.InviteDirect(ctx, Caller{UserID: "alice"}, InviteDirectParams{
		To: "bob", ListType: "Project", List: "p1",
	})
	if err != nil {
		t.Fatalf("invite direct: %v", err)
	}
	if res.Kind != ResultInvitation {
		t.Fatalf("kind = %q, want invitation", res.Kind)
	}
	if res.Invitation.State != domain.StateNew || res.Invitation.Role != domain.RoleMember {
		t.Fatalf("invitation = %+v", res.Invitation)
	}

	_, err = env.svc.InviteDirect(ctx, Caller{UserID: "alice"}, InviteDirectParams{
		To: "nobody", ListType: "Project", List: "p1",
	})
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestInviteByEmailKnownUserPreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Already a member: rejected with a field-scoped error.
	env.addMembership(t, "bob", "Project", "p1", domain.RoleMember)
	_, err := env.svc.InviteByEmail(ctx, Caller{UserID: "alice"}, InviteByEmailParams{
		Email: "bob@example.com", ListType: "Project", List: "p1",
	})
	if !apperrors.IsCode(err, apperrors.CodeAlreadyMember) {
		t.Fatalf("err = %v, want AlreadyMember", err)
	}
	if apperrors.GetMetadata(err)["field"] != "email" {
		t.Fatalf("metadata = %v, want field=email", apperrors.GetMetadata(err))
	}

	// Not a member of p2: first invite works, second is AlreadyInvited.
	res, err := env.svc.InviteByEmail(ctx, Caller{UserID: "alice"}, InviteByEmailParams{
		Email: "bob@example.com", ListType: "Project", List: "p2",
	})
	if err != nil {
		t.Fatalf("invite by email: %v", err)
	}
	if res.Kind != ResultUser || res.User != "bob" {
		t.Fatalf("result = %+v", res)
	}
	_, err = env.svc.InviteByEmail(ctx, Caller{UserID: "alice"}, InviteByEmailParams{
		Email: "bob@example.com", ListType: "Project", List: "p2",
	})
	if !apperrors.IsCode(err, apperrors.CodeAlreadyInvited) {
		t.Fatalf("err = %v, want AlreadyInvited", err)
	}

	// A decided invitation still blocks a re-invite by email.
	invID := domain.InvitationID("alice", "bob", "Project", "p2")
	if _, err := env.svc.DeclineInvitation(ctx, Caller{UserID: "bob"}, invID); err != nil {
		t.Fatalf("decline: %v", err)
	}
	_, err = env.svc.InviteByEmail(ctx, Caller{UserID: "alice"}, InviteByEmailParams{
		Email: "bob@example.com", ListType: "Project", List: "p2",
	})
	if !apperrors.IsCode(err, apperrors.CodeAlreadyInvited) {
		t.Fatalf("err after decline = %v, want AlreadyInvited", err)
	}
	stored, err := env.store.GetInvitation(ctx, invID)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if stored.State != domain.StateDeclined {
		t.Fatalf("state = %q, want declined untouched", stored.State)
	}
}

func TestInviteDirectAfterDeclineResetsState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.InviteDirect(ctx, Caller{UserID: "alice"}, InviteDirectParams{
		To: "bob", ListType: "Project", List: "p1",
	}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	invID := domain.InvitationID("alice", "bob", "Project", "p1")
	if _, err := env.svc.DeclineInvitation(ctx, Caller{UserID: "bob"}, invID); err != nil {
		t.Fatalf("decline: %v", err)
	}

	// A direct re-invite replaces the declined row with a fresh pending one.
	res, err := env.svc.InviteDirect(ctx, Caller{UserID: "alice"}, InviteDirectParams{
		To: "bob", ListType: "Project", List: "p1", Role: domain.RoleOwner,
	})
	if err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	if res.Invitation.State != domain.StateNew {
		t.Fatalf("state = %q, want new", res.Invitation.State)
	}
	stored, err := env.store.GetInvitation(ctx, invID)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if stored.State != domain.StateNew || stored.Role != domain.RoleOwner {
		t.Fatalf("stored = state %q role %q, want new owner", stored.State, stored.Role)
	}

	if _, err := env.svc.AcceptInvitation(ctx, Caller{UserID: "bob"}, invID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.store.GetMembership(ctx, domain.MembershipID("bob", "Project", "p1")); err != nil {
		t.Fatalf("membership after accept: %v", err)
	}
}

func TestInviteByEmailUnknownAddressMintsCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.InviteByEmail(ctx, Caller{UserID: "alice"}, InviteByEmailParams{
		Email: "Newcomer@Example.com", ListType: "Project", List: "p1",
	})
	if err != nil {
		t.Fatalf("invite by email: %v", err)
	}
	if res.Kind != ResultEmail {
		t.Fatalf("kind = %q, want email", res.Kind)
	}
	if res.Email != "newcomer@example.com" {
		t.Fatalf("email = %q, want normalized", res.Email)
	}
	if res.Code == "" {
		t.Fatal("expected redemption code")
	}

	// Exactly one email invitation exists for the address and list.
	page, err := env.store.ListEmailInvitations(ctx, storage.EmailInvitationFilter{
		Email: "newcomer@example.com", ListType: "Project", List: "p1",
	}, 10, "")
	if err != nil {
		t.Fatalf("list email invitations: %v", err)
	}
	if len(page.Invitations) != 1 {
		t.Fatalf("email invitations = %d, want 1", len(page.Invitations))
	}

	// A repeat invite for the same list is rejected.
	_, err = env.svc.InviteByEmail(ctx, Caller{UserID: "alice"}, InviteByEmailParams{
		Email: "newcomer@example.com", ListType: "Project", List: "p1",
	})
	if !apperrors.IsCode(err, apperrors.CodeAlreadyInvited) {
		t.Fatalf("err = %v, want AlreadyInvited", err)
	}
}

func TestRedeemCodeAnonymousParksOnSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invite, err := env.svc.InviteByEmail(ctx, Caller{UserID: "alice"}, InviteByEmailParams{
		Email: "newcomer@example.com", ListType: "Project", List: "p1",
	})
	if err != nil {
		t.Fatalf("invite by email: %v", err)
	}

	res, err := env.svc.RedeemInvitationCode(ctx, Caller{SessionID: "sess-1"}, RedeemInvitationCodeParams{Code: invite.Code})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if res.Kind != ResultSession {
		t.Fatalf("kind = %q, want session", res.Kind)
	}

	pending, err := env.store.GetSessionInvitations(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session invitations: %v", err)
	}
	if len(pending.Invitations) != 1 || pending.Invitations[0].List != "p1" {
		t.Fatalf("pending = %+v", pending.Invitations)
	}

	// The email invitation stays redeemable for other devices.
	if _, err := env.store.GetEmailInvitation(ctx, invite.Code); err != nil {
		t.Fatalf("email invitation should be retained: %v", err)
	}
}

func TestRedeemCodeAutoJoinCreatesMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invite, err := env.svc.InviteByEmail(ctx, Caller{UserID: "alice"}, InviteByEmailParams{
		Email: "newcomer@example.com", ListType: "Project", List: "p1",
	})
	if err != nil {
		t.Fatalf("invite by email: %v", err)
	}

	res, err := env.svc.RedeemInvitationCode(ctx, Caller{UserID: "carol"}, RedeemInvitationCodeParams{Code: invite.Code, AutoJoin: true})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if res.Kind != ResultJoined || res.User != "carol" {
		t.Fatalf("result = %+v", res)
	}

	m, err := env.store.GetMembership(ctx, domain.MembershipID("carol", "Project", "p1"))
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if m.Role != domain.RoleMember {
		t.Fatalf("role = %q, want member", m.Role)
	}

	// Redeeming again reports an existing membership.
	res, err = env.svc.RedeemInvitationCode(ctx, Caller{UserID: "carol"}, RedeemInvitationCodeParams{Code: invite.Code, AutoJoin: true})
	if err != nil {
		t.Fatalf("redeem again: %v", err)
	}
	if res.Kind != ResultNone {
		t.Fatalf("kind = %q, want none", res.Kind)
	}
}

func TestRedeemCodeIdentifiedWithoutAutoJoin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invite, err := env.svc.InviteByEmail(ctx, Caller{UserID: "alice"}, InviteByEmailParams{
		Email: "newcomer@example.com", ListType: "Project", List: "p1",
	})
	if err != nil {
		t.Fatalf("invite by email: %v", err)
	}

	res, err := env.svc.RedeemInvitationCode(ctx, Caller{UserID: "carol"}, RedeemInvitationCodeParams{Code: invite.Code})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if res.Kind != ResultInvitation {
		t.Fatalf("kind = %q, want invitation", res.Kind)
	}
	if res.Invitation.From != "alice" || res.Invitation.To != "carol" {
		t.Fatalf("invitation = %+v", res.Invitation)
	}

	_, err = env.svc.RedeemInvitationCode(ctx, Caller{UserID: "carol"}, RedeemInvitationCodeParams{Code: "bogus"})
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}

	// The issuer learns about the redemption, not a received invitation.
	var redeemed []notify.Intent
	for _, intent := range env.notifier.intents {
		if intent.Kind == notify.KindInvitationRedeemed {
			redeemed = append(redeemed, intent)
		}
	}
	if len(redeemed) != 1 {
		t.Fatalf("redeemed intents = %d, want 1", len(redeemed))
	}
	if redeemed[0].User != "alice" {
		t.Fatalf("notified user = %q, want alice", redeemed[0].User)
	}
	if redeemed[0].Ref != domain.InvitationID("alice", "carol", "Project", "p1") {
		t.Fatalf("ref = %q", redeemed[0].Ref)
	}
}

func TestAcceptInvitationCreatesMembershipOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.InviteDirect(ctx, Caller{UserID: "alice"}, InviteDirectParams{
		To: "bob", ListType: "Project", List: "p1",
	}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	invID := domain.InvitationID("alice", "bob", "Project", "p1")

	// Only the addressee may accept.
	if _, err := env.svc.AcceptInvitation(ctx, Caller{UserID: "carol"}, invID); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}

	res, err := env.svc.AcceptInvitation(ctx, Caller{UserID: "bob"}, invID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Kind != ResultOK || res.Invitation.State != domain.StateAccepted {
		t.Fatalf("result = %+v", res)
	}
	if _, err := env.store.GetMembership(ctx, domain.MembershipID("bob", "Project", "p1")); err != nil {
		t.Fatalf("membership missing after accept: %v", err)
	}

	// Accepting again is a no-op.
	res, err = env.svc.AcceptInvitation(ctx, Caller{UserID: "bob"}, invID)
	if err != nil {
		t.Fatalf("accept again: %v", err)
	}
	if res.Kind != ResultNone {
		t.Fatalf("kind = %q, want none", res.Kind)
	}

	page, err := env.store.ListMemberships(ctx, storage.MembershipFilter{User: "bob", ListType: "Project", List: "p1"}, 10, "")
	if err != nil {
		t.Fatalf("list memberships: %v", err)
	}
	if len(page.Memberships) != 1 {
		t.Fatalf("memberships = %d, want exactly 1", len(page.Memberships))
	}
}

func TestDeclineInvitationIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.InviteDirect(ctx, Caller{UserID: "alice"}, InviteDirectParams{
		To: "bob", ListType: "Project", List: "p1",
	}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	invID := domain.InvitationID("alice", "bob", "Project", "p1")

	res, err := env.svc.DeclineInvitation(ctx, Caller{UserID: "bob"}, invID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if res.Invitation.State != domain.StateDeclined {
		t.Fatalf("state = %q, want declined", res.Invitation.State)
	}

	// Accept after decline does not create a membership or flip the state.
	res, err = env.svc.AcceptInvitation(ctx, Caller{UserID: "bob"}, invID)
	if err != nil {
		t.Fatalf("accept after decline: %v", err)
	}
	if res.Kind != ResultNone {
		t.Fatalf("kind = %q, want none", res.Kind)
	}
	if _, err := env.store.GetMembership(ctx, domain.MembershipID("bob", "Project", "p1")); err == nil {
		t.Fatal("declined invitation must not create a membership")
	}
}

func TestSagaClaimSuppressesDefaultMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var claimed []saga.Acceptance
	if err := env.sagas.OnInvitationAccepted("Project", func(ctx context.Context, acc saga.Acceptance) (saga.Outcome, error) {
		claimed = append(claimed, acc)
		return saga.Outcome{Claimed: true}, nil
	}); err != nil {
		t.Fatalf("register saga: %v", err)
	}

	if _, err := env.svc.InviteDirect(ctx, Caller{UserID: "alice"}, InviteDirectParams{
		To: "bob", ListType: "Project", List: "p1",
	}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	invID := domain.InvitationID("alice", "bob", "Project", "p1")
	res, err := env.svc.AcceptInvitation(ctx, Caller{UserID: "bob"}, invID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Invitation.State != domain.StateAccepted {
		t.Fatalf("state = %q, want accepted", res.Invitation.State)
	}
	if len(claimed) != 1 {
		t.Fatalf("saga invocations = %d, want 1", len(claimed))
	}

	// The handler claimed the workflow: no default membership.
	if _, err := env.store.GetMembership(ctx, domain.MembershipID("bob", "Project", "p1")); err == nil {
		t.Fatal("claimed acceptance must not create a default membership")
	}
}

func TestSagaErrorFallsBackToDefaultMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.sagas.OnInvitationAccepted("Project", func(ctx context.Context, acc saga.Acceptance) (saga.Outcome, error) {
		return saga.Outcome{}, fmt.Errorf("downstream unavailable")
	}); err != nil {
		t.Fatalf("register saga: %v", err)
	}

	if _, err := env.svc.InviteDirect(ctx, Caller{UserID: "alice"}, InviteDirectParams{
		To: "bob", ListType: "Project", List: "p1",
	}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	invID := domain.InvitationID("alice", "bob", "Project", "p1")
	if _, err := env.svc.AcceptInvitation(ctx, Caller{UserID: "bob"}, invID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.store.GetMembership(ctx, domain.MembershipID("bob", "Project", "p1")); err != nil {
		t.Fatalf("fallback membership missing: %v", err)
	}
}

func TestRequestToJoinFansOutToOwners(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addMembership(t, "alice", "Project", "p1", domain.RoleOwner)
	env.addMembership(t, "carol", "Project", "p1", domain.RoleOwner)
	env.addMembership(t, "dora", "Project", "p1", domain.RoleMember)

	res, err := env.svc.RequestToJoin(ctx, Caller{UserID: "bob"}, RequestToJoinParams{ListType: "Project", List: "p1"})
	if err != nil {
		t.Fatalf("request to join: %v", err)
	}
	if res.Kind != ResultOK || res.Warning != "" {
		t.Fatalf("result = %+v", res)
	}

	page, err := env.store.ListJoinRequests(ctx, storage.JoinRequestFilter{From: "bob", ListType: "Project", List: "p1"}, 10, "")
	if err != nil {
		t.Fatalf("list join requests: %v", err)
	}
	if len(page.Requests) != 2 {
		t.Fatalf("join requests = %d, want one per owner", len(page.Requests))
	}
}

func TestRequestToJoinOwnerlessListWarnsWithoutRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addMembership(t, "dora", "Project", "p1", domain.RoleMember)

	res, err := env.svc.RequestToJoin(ctx, Caller{UserID: "bob"}, RequestToJoinParams{ListType: "Project", List: "p1"})
	if err != nil {
		t.Fatalf("request to join: %v", err)
	}
	if res.Warning != NoOwnerWarning {
		t.Fatalf("warning = %q, want NoOwnerWarning", res.Warning)
	}

	page, err := env.store.ListJoinRequests(ctx, storage.JoinRequestFilter{From: "bob"}, 10, "")
	if err != nil {
		t.Fatalf("list join requests: %v", err)
	}
	if len(page.Requests) != 0 {
		t.Fatalf("join requests = %d, want 0", len(page.Requests))
	}
}

func TestAcceptJoinRequestGrantsMemberRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addMembership(t, "alice", "Project", "p1", domain.RoleOwner)
	if _, err := env.svc.RequestToJoin(ctx, Caller{UserID: "bob"}, RequestToJoinParams{ListType: "Project", List: "p1"}); err != nil {
		t.Fatalf("request to join: %v", err)
	}
	reqID := domain.JoinRequestID("bob", "alice", "Project", "p1")

	// Only the addressed owner may settle the request.
	if _, err := env.svc.AcceptJoinRequest(ctx, Caller{UserID: "carol"}, reqID); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}

	if _, err := env.svc.AcceptJoinRequest(ctx, Caller{UserID: "alice"}, reqID); err != nil {
		t.Fatalf("accept join request: %v", err)
	}
	m, err := env.store.GetMembership(ctx, domain.MembershipID("bob", "Project", "p1"))
	if err != nil {
		t.Fatalf("membership missing: %v", err)
	}
	if m.Role != domain.RoleMember {
		t.Fatalf("role = %q, want member", m.Role)
	}

	req, err := env.store.GetJoinRequest(ctx, reqID)
	if err != nil {
		t.Fatalf("get join request: %v", err)
	}
	if req.State != domain.StateAccepted {
		t.Fatalf("state = %q, want accepted", req.State)
	}
}

func TestRemoveSelfNotifiesCoupledLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addMembership(t, "bob", "Project", "p1", domain.RoleMember)
	env.addMembership(t, "bob", "Club", "c1", domain.RoleMember)

	// Coupled list type triggers a leave notice.
	if _, err := env.svc.RemoveSelf(ctx, Caller{UserID: "bob"}, domain.MembershipID("bob", "Project", "p1")); err != nil {
		t.Fatalf("remove self: %v", err)
	}
	if len(env.lifecycle.left) != 1 || env.lifecycle.left[0] != "Project/p1/bob" {
		t.Fatalf("lifecycle notices = %v", env.lifecycle.left)
	}

	// Uncoupled list type does not.
	if _, err := env.svc.RemoveSelf(ctx, Caller{UserID: "bob"}, domain.MembershipID("bob", "Club", "c1")); err != nil {
		t.Fatalf("remove self: %v", err)
	}
	if len(env.lifecycle.left) != 1 {
		t.Fatalf("lifecycle notices = %v", env.lifecycle.left)
	}

	// Removing someone else's membership is unauthorized.
	env.addMembership(t, "alice", "Project", "p1", domain.RoleOwner)
	if _, err := env.svc.RemoveSelf(ctx, Caller{UserID: "bob"}, domain.MembershipID("alice", "Project", "p1")); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestMembersListDeletedCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addMembership(t, "alice", "Project", "p1", domain.RoleOwner)
	env.addMembership(t, "bob", "Project", "p1", domain.RoleMember)
	env.addMembership(t, "bob", "Project", "p2", domain.RoleMember)

	if _, err := env.svc.MembersListDeleted(ctx, Caller{}, "Project", "p1"); err != nil {
		t.Fatalf("list deleted: %v", err)
	}

	page, err := env.store.ListMemberships(ctx, storage.MembershipFilter{ListType: "Project", List: "p1"}, 10, "")
	if err != nil {
		t.Fatalf("list memberships: %v", err)
	}
	if len(page.Memberships) != 0 {
		t.Fatalf("memberships = %d, want 0", len(page.Memberships))
	}
	if _, err := env.store.GetMembership(ctx, domain.MembershipID("bob", "Project", "p2")); err != nil {
		t.Fatalf("unrelated membership removed: %v", err)
	}
}

func TestMemberLeftListIsNoOpForUnknownMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.MemberLeftList(ctx, Caller{}, "Project", "p1", "bob")
	if err != nil {
		t.Fatalf("member left: %v", err)
	}
	if res.Kind != ResultNone {
		t.Fatalf("kind = %q, want none", res.Kind)
	}

	env.addMembership(t, "bob", "Project", "p1", domain.RoleMember)
	res, err = env.svc.MemberLeftList(ctx, Caller{}, "Project", "p1", "bob")
	if err != nil {
		t.Fatalf("member left: %v", err)
	}
	if res.Kind != ResultOK {
		t.Fatalf("kind = %q, want ok", res.Kind)
	}
}

func TestCallerFromContext(t *testing.T) {
	ctx := requestctx.WithUserID(context.Background(), "alice")
	ctx = requestctx.WithSessionID(ctx, "sess-1")
	ctx = requestctx.WithAdmin(ctx, true)

	caller := CallerFromContext(ctx)
	if caller.UserID != "alice" || caller.SessionID != "sess-1" || !caller.Admin {
		t.Fatalf("caller = %+v", caller)
	}
	if got := CallerFromContext(context.Background()); got != (Caller{}) {
		t.Fatalf("caller = %+v, want zero", got)
	}
}
