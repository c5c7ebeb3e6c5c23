package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/go-faster/errors"

	"quicktask/internal/config"
	"quicktask/internal/exitcode"
	"quicktask/internal/service"
	"quicktask/internal/tokenstore"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "quicktask logout [common flags]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	creds, err := storedCredentials(cfg)
	if err != nil {
		return Report(errOut, err)
	}

	// An unreadable record is still removed; only a missing one is a no-op.
	if _, err := creds.Stored(ctx); errors.Is(err, tokenstore.ErrNotFound) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := creds.Logout(ctx); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
