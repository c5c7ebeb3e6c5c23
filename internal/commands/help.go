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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "quicktask help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  quicktask                                          Print all lists
  quicktask add [common flags] [--list <name|id>] [--note <text>]
                [--due <date>] [--remind <datetime>] <title...>
  quicktask create [common flags] ...                Alias for add
  quicktask lists [common flags]
  quicktask login [common flags]
  quicktask logout [common flags]
  quicktask status [common flags]
  quicktask help
  quicktask version

Dates:
  --due and --remind take YYYY-MM-DD or YYYY-MM-DD HH:MM in local time.

Common flags:
  --config <dir>       Override config directory
  --provider <name>    Task provider: microsoft (default) or google
  --quiet              Suppress informational output
  --debug              Print debug logs to stderr

Environment:
  QUICKTASK_PROVIDER, QUICKTASK_CLIENT_ID, QUICKTASK_CLIENT_SECRET,
  QUICKTASK_TENANT, QUICKTASK_API_BASE (also read from <config>/.env)
`
