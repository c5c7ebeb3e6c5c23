package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"quicktask/internal/config"
	"quicktask/internal/exitcode"
	"quicktask/internal/service"
)

// localDateTime is the zone-less form both providers accept.
const localDateTime = "2006-01-02T15:04:05"

// dateLayouts are the accepted --due and --remind inputs.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	localDateTime,
	"2006-01-02 15:04:05",
}

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	listName string
	note     string
	due      string
	remind   string
}

// SetListName sets the list name (for testing).
func (c *AddCmd) SetListName(name string) {
	c.listName = name
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "quicktask add [--list <name|id>] [--note <text>] [--due <date>] [--remind <datetime>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.note, "note", "", "")
	fs.StringVar(&c.note, "n", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.remind, "remind", "", "")
}

// Preflight checks the title and dates without contacting the provider.
func (c *AddCmd) Preflight(args []string) error {
	_, _, _, err := c.input(args)
	return err
}

// input returns the title and the normalized due and reminder values.
func (c *AddCmd) input(args []string) (title, due, remind string, err error) {
	title = strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		return "", "", "", service.ErrTitleRequired
	}
	if due, err = normalizeDateTime("due", c.due); err != nil {
		return "", "", "", err
	}
	if remind, err = normalizeDateTime("remind", c.remind); err != nil {
		return "", "", "", err
	}
	return title, due, remind, nil
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	title, due, remind, err := c.input(args)
	if err != nil {
		return Report(errOut, err)
	}

	lists, err := svc.FetchLists(ctx)
	if err != nil {
		return Report(errOut, err)
	}

	// Resolve list
	var list service.TaskList
	if c.listName != "" {
		list, err = service.ResolveList(lists, c.listName)
		if err != nil {
			return Report(errOut, err)
		}
	} else {
		var ok bool
		list, ok = service.DefaultList(lists)
		if !ok {
			return Report(errOut, &service.ValidationError{
				Field:   "listId",
				Message: "no default list (use --list)",
			})
		}
	}

	err = svc.CreateTask(ctx, service.CreateTaskRequest{
		ListID:           list.ID,
		Title:            title,
		Body:             c.note,
		DueDateTime:      due,
		ReminderDateTime: remind,
	})
	if err != nil {
		return Report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// normalizeDateTime turns a user-supplied date or date-time into the local
// "YYYY-MM-DDTHH:MM:SS" form. A bare date means midnight.
func normalizeDateTime(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(localDateTime), nil
		}
	}
	return "", &service.ValidationError{
		Field:   field,
		Message: fmt.Sprintf("invalid --%s value %q (want YYYY-MM-DD or YYYY-MM-DD HH:MM)", field, value),
	}
}
