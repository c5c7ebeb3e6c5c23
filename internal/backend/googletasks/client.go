// Package googletasks implements the service.Service interface using Google Tasks API.
package googletasks

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"quicktask/internal/auth"
	"quicktask/internal/service"
)

const (
	// ProviderName is the configuration name and vault slot of this backend.
	ProviderName = "google"

	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of lists per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"
)

// AuthProvider returns Google's OAuth endpoints for an installed-app client.
func AuthProvider(clientID, clientSecret string) auth.Provider {
	return auth.Provider{
		Name:         ProviderName,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthURL:      google.Endpoint.AuthURL,
		TokenURL:     google.Endpoint.TokenURL,
		Scopes:       []string{tasksScope},
		AuthParams: map[string]string{
			"access_type": "offline",
			"prompt":      "consent",
		},
	}
}

// Session authorizes the user and feeds tokens to the SDK.
// *auth.Manager implements it.
type Session interface {
	Authorize(ctx context.Context) error
	TokenSource(ctx context.Context) oauth2.TokenSource
}

// Client implements service.Service using Google Tasks API.
type Client struct {
	session Session
	svc     *tasks.Service
	logger  *zap.Logger
}

// New creates a Google Tasks client whose requests carry the session's
// bearer token. opts are passed to the SDK after the HTTP client.
func New(ctx context.Context, session Session, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	httpClient := oauth2.NewClient(ctx, session.TokenSource(ctx))
	return NewWithHTTPClient(ctx, session, logger, httpClient, opts...)
}

// NewWithHTTPClient creates a client with a custom HTTP client.
func NewWithHTTPClient(ctx context.Context, session Session, logger *zap.Logger, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create tasks service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{session: session, svc: svc, logger: logger}, nil
}

// Name implements service.Service.
func (c *Client) Name() string { return ProviderName }

// Authorize implements service.Service.
func (c *Client) Authorize(ctx context.Context) error {
	return c.session.Authorize(ctx)
}

// FetchLists returns all task lists in API order. The list behind
// @default is marked as the default list.
func (c *Client) FetchLists(ctx context.Context) ([]service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	// First, get the default list to know its real ID
	defaultList, err := c.svc.Tasklists.Get(DefaultListID).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}

	result := make([]service.TaskList, 0)
	err = c.svc.Tasklists.List().MaxResults(PageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			tl := service.TaskList{
				ID:          list.Id,
				DisplayName: list.Title,
				IsOwner:     true,
			}
			if list.Id == defaultList.Id {
				tl.WellknownListName = service.WellknownDefaultList
			}
			result = append(result, tl)
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	c.logger.Debug("fetched lists", zap.Int("count", len(result)))
	return result, nil
}

// CreateTask creates a new task in the specified list.
// Google Tasks has no reminders, so a reminder is rejected.
func (c *Client) CreateTask(ctx context.Context, req service.CreateTaskRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.ReminderDateTime != "" {
		return errors.Wrap(service.ErrUnsupported, "reminders")
	}

	task := &tasks.Task{Title: req.Title, Notes: req.Body}
	if req.DueDateTime != "" {
		due, err := dueRFC3339(req.DueDateTime)
		if err != nil {
			return err
		}
		task.Due = due
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if _, err := c.svc.Tasks.Insert(req.ListID, task).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	c.logger.Debug("created task", zap.String("list_id", req.ListID))
	return nil
}

// dueRFC3339 converts a due date to the RFC 3339 timestamp the API wants.
// Only the date part is kept by Google, so local date-times are truncated
// to midnight UTC.
func dueRFC3339(s string) (string, error) {
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return s, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(time.RFC3339), nil
		}
	}
	return "", &service.ValidationError{Field: "due", Message: "invalid due date: " + s}
}

// wrapError maps SDK errors onto the service error types.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		body := apiErr.Body
		if body == "" {
			body = apiErr.Message
		}
		return &service.APIError{Status: apiErr.Code, Body: body}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, "request timed out")
	}

	return errors.Wrap(err, "google tasks")
}
