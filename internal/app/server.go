// Package app wires the members runtime and gRPC lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/roster/internal/members/notify"
	"github.com/louisbranch/roster/internal/members/saga"
	"github.com/louisbranch/roster/internal/members/service"
	"github.com/louisbranch/roster/internal/members/storage"
	memberssqlite "github.com/louisbranch/roster/internal/members/storage/sqlite"
	"github.com/louisbranch/roster/internal/platform/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

type serverEnv struct {
	DBPath string `env:"ROSTER_MEMBERS_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "members.db")
	}
	return cfg
}

// Options customizes server construction for host processes that embed the
// members service in a larger deployment.
type Options struct {
	// Directory resolves user ids and email addresses. Required.
	Directory service.Directory
	// Lifecycle receives leave notices for coupled list types. Optional.
	Lifecycle service.Lifecycle
	// Sagas carries list-type acceptance handlers. Optional.
	Sagas *saga.Registry
	// CoupledListTypes overrides the default coupled list types. Optional.
	CoupledListTypes map[string]bool
	// DBPath overrides the environment-provided store path. Optional.
	DBPath string
}

// Server hosts the members service, its storage lifecycle, and a gRPC
// health endpoint for process supervision.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *memberssqlite.Store
	service    *service.Service
	inbox      *notify.Service
}

// New creates a configured members server listening on the provided port.
func New(port int, opts Options) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port), opts)
}

// NewWithAddr creates a configured members server for the provided address.
func NewWithAddr(addr string, opts Options) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	dbPath := opts.DBPath
	if strings.TrimSpace(dbPath) == "" {
		dbPath = loadServerEnv().DBPath
	}
	store, err := openMembersStore(dbPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	inbox := notify.NewService(store, nil)

	directory := opts.Directory
	if directory == nil {
		log.Printf("members: no user directory wired, user resolution disabled")
		directory = unconfiguredDirectory{}
	}

	svc, err := service.New(service.Config{
		Stores: service.Stores{
			Memberships:        store,
			Invitations:        store,
			EmailInvitations:   store,
			JoinRequests:       store,
			SessionInvitations: store,
			Events:             store,
		},
		Sagas:            opts.Sagas,
		Notifier:         inbox,
		Directory:        directory,
		Lifecycle:        opts.Lifecycle,
		CoupledListTypes: opts.CoupledListTypes,
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("build members service: %w", err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("roster.members.v1.MembersService", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		service:    svc,
		inbox:      inbox,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Service exposes the members command surface for host embedding.
func (s *Server) Service() *service.Service {
	if s == nil {
		return nil
	}
	return s.service
}

// Inbox exposes the notification surface for host embedding.
func (s *Server) Inbox() *notify.Service {
	if s == nil {
		return nil
	}
	return s.inbox
}

// Run creates and serves a members server until context cancellation.
func Run(ctx context.Context, port int, opts Options) error {
	server, err := New(port, opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("members server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Close releases members server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close members store: %v", err)
		}
	}
}

// unconfiguredDirectory stands in when no host directory is wired. Every
// lookup misses, so commands that need user resolution report not found.
type unconfiguredDirectory struct{}

func (unconfiguredDirectory) GetUser(ctx context.Context, userID string) (service.User, error) {
	return service.User{}, storage.ErrNotFound
}

func (unconfiguredDirectory) FindUserByEmail(ctx context.Context, email string) (service.User, error) {
	return service.User{}, storage.ErrNotFound
}

func openMembersStore(path string) (*memberssqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := memberssqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open members sqlite store: %w", err)
	}
	return store, nil
}
