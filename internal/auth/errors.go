package auth

import (
	"fmt"

	"github.com/go-faster/errors"
	"golang.org/x/oauth2"
)

var (
	// ErrCancelled means the user abandoned the interactive consent step.
	// Stored tokens are left untouched and Authorize may be called again.
	ErrCancelled = errors.New("authorization cancelled")

	// ErrStateMismatch means the callback state did not match the request.
	ErrStateMismatch = errors.New("authorization state mismatch")

	// ErrNotAuthenticated means no usable token is stored and a silent
	// refresh was not possible.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ExchangeFailedError is returned when the token endpoint answers with a
// non-2xx status, for both authorization code and refresh exchanges.
type ExchangeFailedError struct {
	Status int
	Body   string
}

func (e *ExchangeFailedError) Error() string {
	return fmt.Sprintf("token exchange failed: status %d: %s", e.Status, e.Body)
}

// exchangeError maps an oauth2 exchange error onto the auth taxonomy.
func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &ExchangeFailedError{Status: status, Body: string(re.Body)}
	}
	return errors.Wrap(err, "token exchange")
}
