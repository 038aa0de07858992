// Package members parses members service flags and launches the service.
package members

import (
	"context"
	"flag"

	"github.com/louisbranch/roster/internal/app"
	"github.com/louisbranch/roster/internal/members/service"
	entrypoint "github.com/louisbranch/roster/internal/platform/cmd"
)

// Config holds members command configuration.
type Config struct {
	Port int `env:"ROSTER_MEMBERS_PORT" envDefault:"8091"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The members gRPC server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the members service with the provided host integrations.
func Run(ctx context.Context, cfg Config, opts app.Options) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMembers, func(context.Context) error {
		return app.Run(ctx, cfg.Port, opts)
	})
}

// Options re-exports app.Options for callers wiring host integrations.
type Options = app.Options

// Directory re-exports the user directory port for host wiring.
type Directory = service.Directory
