// Package service implements the members command surface: direct and email
// invitations, session-scoped redemptions, join requests, and the membership
// lifecycle operations other services trigger.
//
// Commands validate against the read models, emit an ordered event batch, and
// apply it through the projection router after appending each event to the
// journal. Appliers are idempotent, so a retried command converges instead of
// duplicating state.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/event"
	"github.com/louisbranch/roster/internal/members/notify"
	"github.com/louisbranch/roster/internal/members/projection"
	"github.com/louisbranch/roster/internal/members/saga"
	"github.com/louisbranch/roster/internal/members/storage"
	apperrors "github.com/louisbranch/roster/internal/platform/errors"
	"github.com/louisbranch/roster/internal/platform/id"
	"github.com/louisbranch/roster/internal/platform/requestctx"
)

// Stores groups the storage interfaces the members service depends on.
type Stores struct {
	Memberships        storage.MembershipStore
	Invitations        storage.InvitationStore
	EmailInvitations   storage.EmailInvitationStore
	JoinRequests       storage.JoinRequestStore
	SessionInvitations storage.SessionInvitationStore
	Events             storage.EventStore
}

// Applier returns a projection Applier wired to the stores in this bundle.
func (s Stores) Applier() projection.Applier {
	return projection.Applier{
		Memberships:        s.Memberships,
		Invitations:        s.Invitations,
		EmailInvitations:   s.EmailInvitations,
		JoinRequests:       s.JoinRequests,
		SessionInvitations: s.SessionInvitations,
	}
}

// User is the directory view of an account.
type User struct {
	ID    string
	Email string
	Name  string
}

// Directory resolves user identities for invitation targeting. Lookups
// return storage.ErrNotFound (or an error with CodeNotFound) when no account
// matches.
type Directory interface {
	GetUser(ctx context.Context, userID string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
}

// Lifecycle receives leave notices for list types whose owning service runs
// follow-up work when a member departs.
type Lifecycle interface {
	MemberLeft(ctx context.Context, listType, list, user string) error
}

// Caller identifies who is executing a command. Anonymous visitors carry only
// a session id.
type Caller struct {
	UserID    string
	SessionID string
	Admin     bool
}

// CallerFromContext builds a Caller from request-scoped identity set by the
// host's authentication middleware.
func CallerFromContext(ctx context.Context) Caller {
	return Caller{
		UserID:    requestctx.UserIDFromContext(ctx),
		SessionID: requestctx.SessionIDFromContext(ctx),
		Admin:     requestctx.AdminFromContext(ctx),
	}
}

func (c Caller) actor() (event.ActorType, string) {
	if c.UserID != "" {
		return event.ActorTypeUser, c.UserID
	}
	if c.SessionID != "" {
		return event.ActorTypeSession, c.SessionID
	}
	return event.ActorTypeSystem, ""
}

// ResultKind discriminates command outcomes.
type ResultKind string

const (
	// ResultUser reports an invitation was created for a known user.
	ResultUser ResultKind = "user"
	// ResultEmail reports an email invitation with a redemption code.
	ResultEmail ResultKind = "email"
	// ResultSession reports the invite was parked on an anonymous session.
	ResultSession ResultKind = "session"
	// ResultJoined reports an immediate membership.
	ResultJoined ResultKind = "joined"
	// ResultInvitation reports a direct invitation.
	ResultInvitation ResultKind = "invitation"
	// ResultNone reports the command had nothing to do.
	ResultNone ResultKind = "none"
	// ResultOK reports plain success, possibly with an advisory warning.
	ResultOK ResultKind = "ok"
)

// Result is the discriminated outcome of a members command.
type Result struct {
	Kind       ResultKind
	User       string
	Email      string
	Code       string
	Invitation domain.Invitation
	Warning    string
}

// NoOwnerWarning is the advisory raised when a join request targets a list
// without owners.
const NoOwnerWarning = "list has no owner to receive the request"

// CoupledListTypes are the list types whose owning services react to member
// departures.
var CoupledListTypes = map[string]bool{
	"Project": true,
	"Event":   true,
}

// Config wires a members Service.
type Config struct {
	Stores    Stores
	Router    *projection.Router
	Sagas     *saga.Registry
	Notifier  notify.Notifier
	Directory Directory
	// Lifecycle may be nil; leave notices are then skipped.
	Lifecycle Lifecycle
	// CoupledListTypes defaults to CoupledListTypes when nil.
	CoupledListTypes map[string]bool
	// Clock defaults to time.Now.
	Clock func() time.Time
	// NewCode defaults to id.NewCode.
	NewCode func() (string, error)
	// Logger defaults to the standard logger.
	Logger *log.Logger
}

// Service executes members commands and queries.
type Service struct {
	stores    Stores
	applier   projection.Applier
	router    *projection.Router
	sagas     *saga.Registry
	notifier  notify.Notifier
	directory Directory
	lifecycle Lifecycle
	coupled   map[string]bool
	clock     func() time.Time
	newCode   func() (string, error)
	logger    *log.Logger
}

// New constructs a members Service.
func New(cfg Config) (*Service, error) {
	if cfg.Stores.Memberships == nil || cfg.Stores.Invitations == nil ||
		cfg.Stores.EmailInvitations == nil || cfg.Stores.JoinRequests == nil ||
		cfg.Stores.SessionInvitations == nil || cfg.Stores.Events == nil {
		return nil, fmt.Errorf("all stores are required")
	}
	if cfg.Directory == nil {
		return nil, fmt.Errorf("directory is required")
	}
	if cfg.Router == nil {
		cfg.Router = projection.NewRouter()
	}
	if cfg.Sagas == nil {
		cfg.Sagas = saga.NewRegistry()
	}
	if cfg.CoupledListTypes == nil {
		cfg.CoupledListTypes = CoupledListTypes
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewCode == nil {
		cfg.NewCode = id.NewCode
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Service{
		stores:    cfg.Stores,
		applier:   cfg.Stores.Applier(),
		router:    cfg.Router,
		sagas:     cfg.Sagas,
		notifier:  cfg.Notifier,
		directory: cfg.Directory,
		lifecycle: cfg.Lifecycle,
		coupled:   cfg.CoupledListTypes,
		clock:     cfg.Clock,
		newCode:   cfg.NewCode,
		logger:    cfg.Logger,
	}, nil
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// newEvent builds an event stamped with the caller's actor identity.
func (s *Service) newEvent(caller Caller, t event.Type, payload any) (event.Event, error) {
	actorType, actorID := caller.actor()
	evt, err := event.New(t, actorType, actorID, payload, s.now())
	if err != nil {
		return event.Event{}, err
	}
	evt.SessionID = caller.SessionID
	return evt, nil
}

// apply journals and applies an ordered event batch. Events already applied
// before a failure stay applied; appliers are idempotent so a retry of the
// whole command converges.
func (s *Service) apply(ctx context.Context, events []event.Event) error {
	for _, evt := range events {
		stored, err := s.stores.Events.AppendEvent(ctx, evt)
		if err != nil {
			return fmt.Errorf("journal %s: %w", evt.Type, err)
		}
		if err := s.router.Route(s.applier, ctx, stored); err != nil {
			return fmt.Errorf("apply %s: %w", evt.Type, err)
		}
	}
	return nil
}

// notifyIntent delivers a notification intent, logging instead of failing the
// command when delivery is unavailable.
func (s *Service) notifyIntent(ctx context.Context, intent notify.Intent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, intent); err != nil {
		s.logger.Printf("members: notify %s for %s: %v", intent.Kind, intent.User, err)
	}
}

func requireUser(caller Caller) error {
	if caller.UserID == "" {
		return apperrors.New(apperrors.CodeUnauthorized, "caller must be identified")
	}
	return nil
}

func requireAdmin(caller Caller) error {
	if !caller.Admin {
		return apperrors.New(apperrors.CodeUnauthorized, "caller must be an administrator")
	}
	return nil
}
