package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"quicktask/internal/config"
	"quicktask/internal/exitcode"
	"quicktask/internal/service"
	"quicktask/internal/tokenstore"
)

func init() {
	Register(&StatusCmd{now: time.Now})
}

// StatusCmd prints what is stored for the configured provider without
// touching the network.
type StatusCmd struct {
	now func() time.Time
}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return nil }
func (c *StatusCmd) Synopsis() string  { return "Show stored credentials" }
func (c *StatusCmd) Usage() string     { return "quicktask status [common flags]" }
func (c *StatusCmd) NeedsAuth() bool   { return false }

// SetClock overrides the current time (for testing).
func (c *StatusCmd) SetClock(now func() time.Time) {
	c.now = now
}

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	creds, err := storedCredentials(cfg)
	if err != nil {
		return Report(errOut, err)
	}
	fmt.Fprintf(out, "provider: %s\n", creds.Provider().Name)

	ts, err := creds.Stored(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		fmt.Fprintln(out, "status:   not logged in")
		return exitcode.Success
	}
	if err != nil {
		return Report(errOut, err)
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}

	fmt.Fprintln(out, "status:   logged in")
	if account := accountFromIDToken(ts.IDToken); account != "" {
		fmt.Fprintf(out, "account:  %s\n", account)
	}
	switch {
	case ts.ExpiresAt.IsZero():
		fmt.Fprintln(out, "token:    no expiry")
	case ts.Expired(now()):
		fmt.Fprintf(out, "token:    expired %s\n", ts.ExpiresAt.Local().Format(time.RFC3339))
	default:
		fmt.Fprintf(out, "token:    valid until %s\n", ts.ExpiresAt.Local().Format(time.RFC3339))
	}
	if ts.RefreshToken != "" {
		fmt.Fprintln(out, "refresh:  available")
	} else {
		fmt.Fprintln(out, "refresh:  none")
	}
	return exitcode.Success
}

// accountFromIDToken reads the display name and address from an id_token.
// The signature is not checked; the result is for display only.
func accountFromIDToken(raw string) string {
	if raw == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}

	str := func(key string) string {
		v, _ := claims[key].(string)
		return v
	}
	name := str("name")
	addr := str("preferred_username")
	if addr == "" {
		addr = str("email")
	}

	switch {
	case name != "" && addr != "":
		return fmt.Sprintf("%s <%s>", name, addr)
	case addr != "":
		return addr
	default:
		return name
	}
}
