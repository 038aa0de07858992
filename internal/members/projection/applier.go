// Package projection applies members journal events to the read-model stores.
//
// Appliers are the only code path that mutates aggregate state. Every applier
// is idempotent: re-applying an event, or applying a state change to a record
// that is already gone, leaves the stores unchanged.
package projection

import (
	"time"

	"github.com/louisbranch/roster/internal/members/storage"
)

// Applier applies journal events to projection stores.
type Applier struct {
	// Memberships writes membership read models.
	Memberships storage.MembershipStore
	// Invitations writes direct invitation read models.
	Invitations storage.InvitationStore
	// EmailInvitations writes code-addressed email invitation read models.
	EmailInvitations storage.EmailInvitationStore
	// JoinRequests writes join request read models.
	JoinRequests storage.JoinRequestStore
	// SessionInvitations writes session-scoped pending invitation sets.
	SessionInvitations storage.SessionInvitationStore
}

// ensureTimestamp normalizes timestamps so projections always persist UTC.
// Events always carry a timestamp stamped by the command layer; a zero value
// maps to the Unix epoch so replaying the journal stays deterministic.
func ensureTimestamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return ts.UTC()
}
