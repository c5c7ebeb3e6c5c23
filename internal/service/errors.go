package service

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ValidationError is a local precondition failure. It never reaches the
// network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	// ErrTitleRequired is returned when a task has no title.
	ErrTitleRequired = &ValidationError{Field: "title", Message: "title required"}

	// ErrListRequired is returned when a task has no target list.
	ErrListRequired = &ValidationError{Field: "listId", Message: "list required"}

	// ErrUnsupported is returned when a provider cannot honor a field.
	ErrUnsupported = errors.New("not supported by provider")

	// ErrListNotFound is returned by ResolveList when nothing matches.
	ErrListNotFound = errors.New("list not found")

	// ErrListAmbiguous is returned by ResolveList when several lists match.
	ErrListAmbiguous = errors.New("ambiguous list name")
)

// APIError is a non-2xx response from the task API, kept verbatim.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed: status %d: %s", e.Status, e.Body)
}
