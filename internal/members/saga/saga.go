// Package saga routes invitation and join request acceptances to list-type
// handlers that own the follow-up membership workflow.
//
// A handler claims an acceptance when its list type runs its own joining
// choreography (for example a project that provisions resources before the
// member appears). Unclaimed acceptances fall through to the caller's default
// membership creation.
package saga

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Acceptance describes one accepted invitation or join request.
type Acceptance struct {
	// From is the user who issued the invitation, or the requester for join
	// requests.
	From string
	// To is the user joining the list.
	To string
	// ListType is the kind of list being joined.
	ListType string
	// List is the list identifier.
	List string
	// Role is the role the new member takes.
	Role string
}

// Outcome reports whether a handler claimed the acceptance.
type Outcome struct {
	// Claimed is true when the handler owns the membership workflow and the
	// caller must not create a default membership.
	Claimed bool
}

// Handler runs list-type specific follow-up for an acceptance.
type Handler func(ctx context.Context, acc Acceptance) (Outcome, error)

// DefaultTimeout bounds each handler invocation.
const DefaultTimeout = 5 * time.Second

const (
	invitationPrefix  = "InvitationAccepted_"
	joinRequestPrefix = "JoinRequestAccepted_"
)

// Registry holds acceptance handlers keyed by workflow name.
type Registry struct {
	handlers map[string]Handler
	timeout  time.Duration
}

// NewRegistry creates an empty Registry with the default handler timeout.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		timeout:  DefaultTimeout,
	}
}

// WithTimeout sets the per-handler timeout. Non-positive values keep the
// default.
func (r *Registry) WithTimeout(timeout time.Duration) *Registry {
	if timeout > 0 {
		r.timeout = timeout
	}
	return r
}

// OnInvitationAccepted registers a handler for invitation acceptances on the
// given list type.
func (r *Registry) OnInvitationAccepted(listType string, h Handler) error {
	return r.register(invitationPrefix, listType, h)
}

// OnJoinRequestAccepted registers a handler for join request acceptances on
// the given list type.
func (r *Registry) OnJoinRequestAccepted(listType string, h Handler) error {
	return r.register(joinRequestPrefix, listType, h)
}

func (r *Registry) register(prefix, listType string, h Handler) error {
	listType = strings.TrimSpace(listType)
	if listType == "" {
		return fmt.Errorf("list type is required")
	}
	if h == nil {
		return fmt.Errorf("handler is required")
	}
	name := prefix + listType
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler already registered: %s", name)
	}
	r.handlers[name] = h
	return nil
}

// InvitationAccepted runs the invitation acceptance handler for the list
// type, if one exists. An absent handler, a handler error, or a timeout all
// report an unclaimed outcome so the caller falls back to the default
// membership. The error is returned for logging but never blocks the
// fallback.
func (r *Registry) InvitationAccepted(ctx context.Context, acc Acceptance) (Outcome, error) {
	return r.dispatch(ctx, invitationPrefix+acc.ListType, acc)
}

// JoinRequestAccepted runs the join request acceptance handler for the list
// type, if one exists, with the same fallback contract as
// InvitationAccepted.
func (r *Registry) JoinRequestAccepted(ctx context.Context, acc Acceptance) (Outcome, error) {
	return r.dispatch(ctx, joinRequestPrefix+acc.ListType, acc)
}

func (r *Registry) dispatch(ctx context.Context, name string, acc Acceptance) (Outcome, error) {
	h, ok := r.handlers[name]
	if !ok {
		return Outcome{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		outcome Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := h(ctx, acc)
		done <- result{outcome: outcome, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return Outcome{}, fmt.Errorf("%s: %w", name, res.err)
		}
		return res.outcome, nil
	case <-ctx.Done():
		return Outcome{}, fmt.Errorf("%s: %w", name, ctx.Err())
	}
}
