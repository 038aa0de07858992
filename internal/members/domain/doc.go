// Package domain defines the membership aggregates and their invariants.
//
// Five aggregates cover the membership lifecycle: Membership (a user's seat
// on a list), Invitation (user-to-user), EmailInvitation (code-redeemable
// invite to an unregistered address), JoinRequest (member-initiated), and
// SessionInvitations (pending invites accumulated by an anonymous session).
// Aggregate identities are deterministic composites of their key fields, so
// re-creating a row with the same key replaces it instead of failing.
package domain
