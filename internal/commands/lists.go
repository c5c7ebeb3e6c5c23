package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"quicktask/internal/config"
	"quicktask/internal/exitcode"
	"quicktask/internal/output"
	"quicktask/internal/service"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd implements the lists command.
type ListsCmd struct{}

func (c *ListsCmd) Name() string      { return "lists" }
func (c *ListsCmd) Aliases() []string { return nil }
func (c *ListsCmd) Synopsis() string  { return "Print all lists" }
func (c *ListsCmd) Usage() string     { return "quicktask lists [common flags]" }
func (c *ListsCmd) NeedsAuth() bool   { return true }

func (c *ListsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	lists, err := svc.FetchLists(ctx)
	if err != nil {
		return Report(errOut, err)
	}

	if len(lists) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no lists found")
		}
		return exitcode.Success
	}

	for _, list := range service.SortDefaultFirst(lists) {
		output.FormatListName(out, list)
	}

	return exitcode.Success
}
