package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"quicktask/internal/config"
	"quicktask/internal/exitcode"
	"quicktask/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. The dispatcher authorizes the
// service before Run, so reaching Run means a usable token is stored.
type LoginCmd struct{}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Authenticate with the task provider" }
func (c *LoginCmd) Usage() string     { return "quicktask login [common flags]" }
func (c *LoginCmd) NeedsAuth() bool   { return true }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
