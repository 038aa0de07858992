package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/roster/internal/members/event"
)

// Router dispatches projection events by type. Typed handlers registered via
// Handle receive auto-unmarshalled payloads.
type Router struct {
	handlers map[event.Type]func(Applier, context.Context, event.Event) error
	types    []event.Type
}

// Handle registers a typed handler for the given event type. The handler
// receives a pre-unmarshalled payload, eliminating per-case decode
// boilerplate.
func Handle[P any](r *Router, t event.Type, fn func(Applier, context.Context, event.Event, P) error) {
	r.handlers[t] = func(a Applier, ctx context.Context, evt event.Event) error {
		var payload P
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", t, err)
		}
		return fn(a, ctx, evt, payload)
	}
	r.types = append(r.types, t)
}

// Route dispatches an event to the registered handler. Returns an error for
// unknown event types or handler errors.
func (r *Router) Route(a Applier, ctx context.Context, evt event.Event) error {
	h, ok := r.handlers[evt.Type]
	if !ok {
		return fmt.Errorf("unhandled projection event type: %s", evt.Type)
	}
	return h(a, ctx, evt)
}

// HandledTypes returns all registered event types in registration order.
func (r *Router) HandledTypes() []event.Type {
	return append([]event.Type(nil), r.types...)
}

// NewRouter creates a Router with every members event type registered.
func NewRouter() *Router {
	r := &Router{handlers: make(map[event.Type]func(Applier, context.Context, event.Event) error)}

	Handle(r, event.TypeMembershipAdded, Applier.applyMembershipAdded)
	Handle(r, event.TypeMembershipRemoved, Applier.applyMembershipRemoved)
	Handle(r, event.TypeMembershipRoleChanged, Applier.applyMembershipRoleChanged)
	Handle(r, event.TypeMembershipTimeChanged, Applier.applyMembershipTimeChanged)
	Handle(r, event.TypeMembersListDeleted, Applier.applyMembersListDeleted)
	Handle(r, event.TypeListTimeChanged, Applier.applyListTimeChanged)

	Handle(r, event.TypeInvitationAdded, Applier.applyInvitationAdded)
	Handle(r, event.TypeInvitationAccepted, Applier.applyInvitationAccepted)
	Handle(r, event.TypeInvitationDeclined, Applier.applyInvitationDeclined)
	Handle(r, event.TypeInvitationRemoved, Applier.applyInvitationRemoved)
	Handle(r, event.TypeInvitationRoleChanged, Applier.applyInvitationRoleChanged)

	Handle(r, event.TypeEmailInvitationAdded, Applier.applyEmailInvitationAdded)
	Handle(r, event.TypeEmailInvitationRemoved, Applier.applyEmailInvitationRemoved)
	Handle(r, event.TypeEmailInvitationRoleChanged, Applier.applyEmailInvitationRoleChanged)

	Handle(r, event.TypeJoinRequestAdded, Applier.applyJoinRequestAdded)
	Handle(r, event.TypeJoinRequestAccepted, Applier.applyJoinRequestAccepted)
	Handle(r, event.TypeJoinRequestDeclined, Applier.applyJoinRequestDeclined)
	Handle(r, event.TypeJoinRequestRemoved, Applier.applyJoinRequestRemoved)

	Handle(r, event.TypeSessionInvitationAdded, Applier.applySessionInvitationAdded)
	Handle(r, event.TypeSessionInvitationRemoved, Applier.applySessionInvitationRemoved)
	Handle(r, event.TypeSessionInvitationsRemoved, Applier.applySessionInvitationsRemoved)

	return r
}
