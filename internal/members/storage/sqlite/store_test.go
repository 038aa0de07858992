package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir() + "/members.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMembershipRoundTripAndUpsert(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)

	m := domain.Membership{
		ID:        domain.MembershipID("alice", "Project", "p1"),
		User:      "alice",
		ListType:  "Project",
		List:      "p1",
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutMembership(context.Background(), m); err != nil {
		t.Fatalf("put membership: %v", err)
	}

	got, err := store.GetMembership(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if got.User != "alice" || got.Role != domain.RoleMember {
		t.Fatalf("membership = %+v", got)
	}
	if got.Time != nil {
		t.Fatalf("time = %v, want nil", got.Time)
	}

	// Upsert with the same id changes role, keeps created.
	later := now.Add(time.Hour)
	m.Role = domain.RoleOwner
	m.UpdatedAt = later
	if err := store.PutMembership(context.Background(), m); err != nil {
		t.Fatalf("put membership again: %v", err)
	}
	got, err = store.GetMembership(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if got.Role != domain.RoleOwner {
		t.Fatalf("role = %q, want %q", got.Role, domain.RoleOwner)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, now)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("updated at = %v, want %v", got.UpdatedAt, later)
	}
}

func TestMembershipNotFoundAndDelete(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.GetMembership(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing = %v, want ErrNotFound", err)
	}

	now := time.Now().UTC()
	m := domain.Membership{
		ID:        domain.MembershipID("bob", "Event", "e1"),
		User:      "bob",
		ListType:  "Event",
		List:      "e1",
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutMembership(context.Background(), m); err != nil {
		t.Fatalf("put membership: %v", err)
	}
	if err := store.DeleteMembership(context.Background(), m.ID); err != nil {
		t.Fatalf("delete membership: %v", err)
	}
	if _, err := store.GetMembership(context.Background(), m.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted = %v, want ErrNotFound", err)
	}
	// Deleting a missing membership is a no-op.
	if err := store.DeleteMembership(context.Background(), m.ID); err != nil {
		t.Fatalf("delete missing membership: %v", err)
	}
}

func TestListMembershipsFilterAndPaging(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	users := []string{"alice", "bob", "carol"}
	for _, user := range users {
		m := domain.Membership{
			ID:        domain.MembershipID(user, "Project", "p1"),
			User:      user,
			ListType:  "Project",
			List:      "p1",
			Role:      domain.RoleMember,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.PutMembership(context.Background(), m); err != nil {
			t.Fatalf("put membership %s: %v", user, err)
		}
	}
	owner := domain.Membership{
		ID:        domain.MembershipID("dora", "Project", "p1"),
		User:      "dora",
		ListType:  "Project",
		List:      "p1",
		Role:      domain.RoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutMembership(context.Background(), owner); err != nil {
		t.Fatalf("put owner: %v", err)
	}
	other := domain.Membership{
		ID:        domain.MembershipID("alice", "Event", "e1"),
		User:      "alice",
		ListType:  "Event",
		List:      "e1",
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutMembership(context.Background(), other); err != nil {
		t.Fatalf("put other: %v", err)
	}

	page, err := store.ListMemberships(context.Background(), storage.MembershipFilter{ListType: "Project", List: "p1"}, 10, "")
	if err != nil {
		t.Fatalf("list by list: %v", err)
	}
	if len(page.Memberships) != 4 {
		t.Fatalf("list len = %d, want 4", len(page.Memberships))
	}

	page, err = store.ListMemberships(context.Background(), storage.MembershipFilter{ListType: "Project", List: "p1", Role: domain.RoleOwner}, 10, "")
	if err != nil {
		t.Fatalf("list owners: %v", err)
	}
	if len(page.Memberships) != 1 || page.Memberships[0].User != "dora" {
		t.Fatalf("owners = %+v", page.Memberships)
	}

	page, err = store.ListMemberships(context.Background(), storage.MembershipFilter{User: "alice"}, 10, "")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(page.Memberships) != 2 {
		t.Fatalf("alice memberships = %d, want 2", len(page.Memberships))
	}

	// Page through the Project list two at a time.
	first, err := store.ListMemberships(context.Background(), storage.MembershipFilter{ListType: "Project", List: "p1"}, 2, "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Memberships) != 2 || first.NextPageToken == "" {
		t.Fatalf("first page = %+v", first)
	}
	second, err := store.ListMemberships(context.Background(), storage.MembershipFilter{ListType: "Project", List: "p1"}, 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Memberships) != 2 || second.NextPageToken != "" {
		t.Fatalf("second page = %+v", second)
	}
}

func TestDeleteListMembershipsReturnsRemoved(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	for _, user := range []string{"alice", "bob"} {
		m := domain.Membership{
			ID:        domain.MembershipID(user, "Project", "p1"),
			User:      user,
			ListType:  "Project",
			List:      "p1",
			Role:      domain.RoleMember,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.PutMembership(context.Background(), m); err != nil {
			t.Fatalf("put membership: %v", err)
		}
	}
	keep := domain.Membership{
		ID:        domain.MembershipID("alice", "Project", "p2"),
		User:      "alice",
		ListType:  "Project",
		List:      "p2",
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutMembership(context.Background(), keep); err != nil {
		t.Fatalf("put keep: %v", err)
	}

	removed, err := store.DeleteListMemberships(context.Background(), "Project", "p1")
	if err != nil {
		t.Fatalf("delete list memberships: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed = %d, want 2", len(removed))
	}
	if _, err := store.GetMembership(context.Background(), domain.MembershipID("alice", "Project", "p1")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get removed = %v, want ErrNotFound", err)
	}
	if _, err := store.GetMembership(context.Background(), keep.ID); err != nil {
		t.Fatalf("unrelated membership removed: %v", err)
	}
}

func TestUpdateListMembershipTimes(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	for _, user := range []string{"alice", "bob"} {
		m := domain.Membership{
			ID:        domain.MembershipID(user, "Event", "e1"),
			User:      user,
			ListType:  "Event",
			List:      "e1",
			Role:      domain.RoleMember,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.PutMembership(context.Background(), m); err != nil {
			t.Fatalf("put membership: %v", err)
		}
	}

	eventTime := now.Add(48 * time.Hour)
	changed, err := store.UpdateListMembershipTimes(context.Background(), "Event", "e1", &eventTime, now)
	if err != nil {
		t.Fatalf("update list times: %v", err)
	}
	if changed != 2 {
		t.Fatalf("changed = %d, want 2", changed)
	}
	got, err := store.GetMembership(context.Background(), domain.MembershipID("alice", "Event", "e1"))
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if got.Time == nil || !got.Time.Equal(eventTime) {
		t.Fatalf("time = %v, want %v", got.Time, eventTime)
	}

	// Clearing the time stores NULL.
	changed, err = store.UpdateListMembershipTimes(context.Background(), "Event", "e1", nil, now)
	if err != nil {
		t.Fatalf("clear list times: %v", err)
	}
	if changed != 2 {
		t.Fatalf("changed = %d, want 2", changed)
	}
	got, err = store.GetMembership(context.Background(), domain.MembershipID("alice", "Event", "e1"))
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if got.Time != nil {
		t.Fatalf("time = %v, want nil", got.Time)
	}
}

func TestInvitationStateTransitionIsTerminal(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	inv := domain.Invitation{
		ID:        domain.InvitationID("alice", "bob", "Project", "p1"),
		From:      "alice",
		To:        "bob",
		ListType:  "Project",
		List:      "p1",
		Role:      domain.RoleMember,
		State:     domain.StateNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutInvitation(context.Background(), inv); err != nil {
		t.Fatalf("put invitation: %v", err)
	}

	accepted, err := store.UpdateInvitationState(context.Background(), inv.ID, domain.StateAccepted, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	if accepted.State != domain.StateAccepted {
		t.Fatalf("state = %q, want accepted", accepted.State)
	}

	// A later decline does not overwrite the terminal state.
	declined, err := store.UpdateInvitationState(context.Background(), inv.ID, domain.StateDeclined, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("decline invitation: %v", err)
	}
	if declined.State != domain.StateAccepted {
		t.Fatalf("state = %q, want accepted to stick", declined.State)
	}
}

func TestInvitationResendResetsState(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	inv := domain.Invitation{
		ID:        domain.InvitationID("alice", "bob", "Project", "p1"),
		From:      "alice",
		To:        "bob",
		ListType:  "Project",
		List:      "p1",
		Role:      domain.RoleMember,
		State:     domain.StateNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutInvitation(context.Background(), inv); err != nil {
		t.Fatalf("put invitation: %v", err)
	}
	if _, err := store.UpdateInvitationState(context.Background(), inv.ID, domain.StateDeclined, now); err != nil {
		t.Fatalf("decline: %v", err)
	}

	// Re-sending the same invitation replaces the row, resetting the
	// declined state back to new.
	inv.Role = domain.RoleOwner
	inv.State = domain.StateNew
	if err := store.PutInvitation(context.Background(), inv); err != nil {
		t.Fatalf("resend invitation: %v", err)
	}
	got, err := store.GetInvitation(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if got.State != domain.StateNew {
		t.Fatalf("state = %q, want new after resend", got.State)
	}
	if got.Role != domain.RoleOwner {
		t.Fatalf("role = %q, want owner", got.Role)
	}
}

func TestListInvitationsByRecipientAndState(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	seed := []domain.Invitation{
		{From: "alice", To: "bob", ListType: "Project", List: "p1", Role: domain.RoleMember, State: domain.StateNew},
		{From: "alice", To: "bob", ListType: "Project", List: "p2", Role: domain.RoleMember, State: domain.StateAccepted},
		{From: "carol", To: "bob", ListType: "Event", List: "e1", Role: domain.RoleMember, State: domain.StateNew},
		{From: "alice", To: "dora", ListType: "Project", List: "p1", Role: domain.RoleMember, State: domain.StateNew},
	}
	for _, inv := range seed {
		inv.ID = domain.InvitationID(inv.From, inv.To, inv.ListType, inv.List)
		inv.CreatedAt = now
		inv.UpdatedAt = now
		if err := store.PutInvitation(context.Background(), inv); err != nil {
			t.Fatalf("put invitation: %v", err)
		}
	}

	page, err := store.ListInvitations(context.Background(), storage.InvitationFilter{To: "bob", State: domain.StateNew}, 10, "")
	if err != nil {
		t.Fatalf("list invitations: %v", err)
	}
	if len(page.Invitations) != 2 {
		t.Fatalf("invitations = %d, want 2", len(page.Invitations))
	}
	for _, inv := range page.Invitations {
		if inv.To != "bob" || inv.State != domain.StateNew {
			t.Fatalf("unexpected invitation %+v", inv)
		}
	}
}

func TestEmailInvitationRoundTrip(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	inv := domain.EmailInvitation{
		Code:      "code-1",
		From:      "alice",
		Email:     "bob@example.com",
		ListType:  "Project",
		List:      "p1",
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutEmailInvitation(context.Background(), inv); err != nil {
		t.Fatalf("put email invitation: %v", err)
	}

	got, err := store.GetEmailInvitation(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("get email invitation: %v", err)
	}
	if got.Email != "bob@example.com" || got.List != "p1" {
		t.Fatalf("email invitation = %+v", got)
	}

	page, err := store.ListEmailInvitations(context.Background(), storage.EmailInvitationFilter{Email: "bob@example.com", ListType: "Project", List: "p1"}, 10, "")
	if err != nil {
		t.Fatalf("list email invitations: %v", err)
	}
	if len(page.Invitations) != 1 {
		t.Fatalf("invitations = %d, want 1", len(page.Invitations))
	}

	if err := store.DeleteEmailInvitation(context.Background(), "code-1"); err != nil {
		t.Fatalf("delete email invitation: %v", err)
	}
	if _, err := store.GetEmailInvitation(context.Background(), "code-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted = %v, want ErrNotFound", err)
	}
}

func TestJoinRequestLifecycle(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	req := domain.JoinRequest{
		ID:        domain.JoinRequestID("bob", "alice", "Project", "p1"),
		From:      "bob",
		To:        "alice",
		ListType:  "Project",
		List:      "p1",
		Role:      domain.RoleMember,
		State:     domain.StateNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutJoinRequest(context.Background(), req); err != nil {
		t.Fatalf("put join request: %v", err)
	}

	page, err := store.ListJoinRequests(context.Background(), storage.JoinRequestFilter{To: "alice", State: domain.StateNew}, 10, "")
	if err != nil {
		t.Fatalf("list join requests: %v", err)
	}
	if len(page.Requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(page.Requests))
	}
	if page.Requests[0].Role != domain.RoleMember {
		t.Fatalf("role = %q, want member", page.Requests[0].Role)
	}

	got, err := store.UpdateJoinRequestState(context.Background(), req.ID, domain.StateAccepted, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("accept join request: %v", err)
	}
	if got.State != domain.StateAccepted {
		t.Fatalf("state = %q, want accepted", got.State)
	}

	page, err = store.ListJoinRequests(context.Background(), storage.JoinRequestFilter{To: "alice", State: domain.StateNew}, 10, "")
	if err != nil {
		t.Fatalf("list join requests: %v", err)
	}
	if len(page.Requests) != 0 {
		t.Fatalf("requests = %d, want 0", len(page.Requests))
	}

	// Re-filing the same request replaces the decided row with a pending one.
	req.State = domain.StateNew
	if err := store.PutJoinRequest(context.Background(), req); err != nil {
		t.Fatalf("refile join request: %v", err)
	}
	got, err = store.GetJoinRequest(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("get join request: %v", err)
	}
	if got.State != domain.StateNew {
		t.Fatalf("state = %q, want new after refile", got.State)
	}
}

func TestSessionInvitationsUnionByValue(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	inv := domain.PendingInvitation{From: "alice", ListType: "Project", List: "p1", Role: domain.RoleMember}
	other := domain.PendingInvitation{From: "carol", ListType: "Event", List: "e1", Role: domain.RoleMember}

	if err := store.AddSessionInvitations(context.Background(), "sess-1", []domain.PendingInvitation{inv}, now); err != nil {
		t.Fatalf("add session invitations: %v", err)
	}
	// Repeating the same redemption does not duplicate the entry.
	if err := store.AddSessionInvitations(context.Background(), "sess-1", []domain.PendingInvitation{inv, other}, now.Add(time.Minute)); err != nil {
		t.Fatalf("add session invitations again: %v", err)
	}

	got, err := store.GetSessionInvitations(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get session invitations: %v", err)
	}
	if len(got.Invitations) != 2 {
		t.Fatalf("invitations = %d, want 2", len(got.Invitations))
	}

	if err := store.RemoveSessionInvitation(context.Background(), "sess-1", inv, now); err != nil {
		t.Fatalf("remove session invitation: %v", err)
	}
	got, err = store.GetSessionInvitations(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get session invitations: %v", err)
	}
	if len(got.Invitations) != 1 || got.Invitations[0].From != "carol" {
		t.Fatalf("invitations = %+v", got.Invitations)
	}

	if err := store.DeleteSessionInvitations(context.Background(), "sess-1"); err != nil {
		t.Fatalf("delete session invitations: %v", err)
	}
	if _, err := store.GetSessionInvitations(context.Background(), "sess-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get cleared = %v, want ErrNotFound", err)
	}
}

func TestEventJournalAppendAndList(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	seq, err := store.GetLatestEventSeq(context.Background())
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if seq != 0 {
		t.Fatalf("seq = %d, want 0", seq)
	}

	first, err := event.New(event.TypeMembershipAdded, event.ActorTypeUser, "alice", event.MembershipAddedPayload{
		User:     "bob",
		ListType: "Project",
		List:     "p1",
		Role:     domain.RoleMember,
	}, now)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	stored, err := store.AppendEvent(context.Background(), first)
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
	if stored.Seq == 0 {
		t.Fatal("expected sequence to be assigned")
	}

	second, err := event.New(event.TypeInvitationAdded, event.ActorTypeUser, "alice", event.InvitationAddedPayload{
		From:     "alice",
		To:       "bob",
		ListType: "Project",
		List:     "p1",
		Role:     domain.RoleMember,
	}, now)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if _, err := store.AppendEvent(context.Background(), second); err != nil {
		t.Fatalf("append event: %v", err)
	}

	events, err := store.ListEvents(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Seq >= events[1].Seq {
		t.Fatalf("events out of order: %d then %d", events[0].Seq, events[1].Seq)
	}
	var payload event.MembershipAddedPayload
	if err := events[0].Payload(&payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.User != "bob" {
		t.Fatalf("payload user = %q, want bob", payload.User)
	}

	tail, err := store.ListEvents(context.Background(), events[0].Seq, 10)
	if err != nil {
		t.Fatalf("list tail: %v", err)
	}
	if len(tail) != 1 || tail[0].Type != event.TypeInvitationAdded {
		t.Fatalf("tail = %+v", tail)
	}
}

func TestNotificationInboxMarkRead(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	n := storage.NotificationRecord{
		ID:        "n-1",
		User:      "bob",
		Kind:      "invitation",
		Payload:   []byte(`{"list":"p1"}`),
		CreatedAt: now,
	}
	if err := store.PutNotification(context.Background(), n); err != nil {
		t.Fatalf("put notification: %v", err)
	}

	page, err := store.ListNotifications(context.Background(), "bob", 10, "")
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(page.Notifications) != 1 || page.Notifications[0].ReadAt != nil {
		t.Fatalf("notifications = %+v", page.Notifications)
	}

	readAt := now.Add(time.Minute)
	if err := store.MarkNotificationRead(context.Background(), "n-1", readAt); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	got, err := store.GetNotification(context.Background(), "n-1")
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if got.ReadAt == nil || !got.ReadAt.Equal(readAt) {
		t.Fatalf("read at = %v, want %v", got.ReadAt, readAt)
	}

	// Marking again keeps the original read time.
	if err := store.MarkNotificationRead(context.Background(), "n-1", readAt.Add(time.Hour)); err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	got, err = store.GetNotification(context.Background(), "n-1")
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if !got.ReadAt.Equal(readAt) {
		t.Fatalf("read at = %v, want %v", got.ReadAt, readAt)
	}
}
