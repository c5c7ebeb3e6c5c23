package commands

import (
	"fmt"
	"io"

	"github.com/go-faster/errors"

	"quicktask/internal/auth"
	"quicktask/internal/backend"
	"quicktask/internal/exitcode"
	"quicktask/internal/service"
	"quicktask/internal/tokenstore"
)

// Report prints err to errOut and returns the exit code for its kind.
func Report(errOut io.Writer, err error) int {
	var (
		validation *service.ValidationError
		apiErr     *service.APIError
		exchange   *auth.ExchangeFailedError
		unknown    *backend.UnknownProviderError
		storeErr   *tokenstore.StoreError
	)

	switch {
	case errors.Is(err, auth.ErrCancelled):
		fmt.Fprintln(errOut, "error: authorization cancelled")
		return exitcode.AuthError
	case errors.As(err, &exchange),
		errors.Is(err, auth.ErrStateMismatch),
		errors.Is(err, auth.ErrNotAuthenticated):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, backend.ErrNoClient):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	case errors.As(err, &storeErr):
		fmt.Fprintf(errOut, "error: %v (run: quicktask logout)\n", err)
		return exitcode.AuthError
	case errors.As(err, &validation),
		errors.As(err, &unknown),
		errors.Is(err, service.ErrListNotFound),
		errors.Is(err, service.ErrListAmbiguous),
		errors.Is(err, service.ErrUnsupported):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.As(err, &apiErr):
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
