// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"quicktask/internal/config"
	"quicktask/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires an authorized service.
	// The dispatcher runs Service.Authorize before Run for these.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, provider, credentials).
	// svc is nil if NeedsAuth() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}

// Preflighter is implemented by commands that can reject their input
// locally. The dispatcher calls Preflight after flag parsing and before
// the service is created or authorized.
type Preflighter interface {
	Preflight(args []string) error
}
