// Package service defines the provider-agnostic contract for task operations.
package service

import "context"

// Service is implemented once per task provider.
// Commands never import a provider SDK directly.
type Service interface {
	// Name returns the configured provider name, e.g. "microsoft".
	Name() string

	// Authorize ensures a valid access token is available, prompting the
	// user only when no silent path exists.
	Authorize(ctx context.Context) error

	// FetchLists returns all task lists in provider order.
	FetchLists(ctx context.Context) ([]TaskList, error)

	// CreateTask creates a task. The request is validated before any
	// network call.
	CreateTask(ctx context.Context, req CreateTaskRequest) error
}
