// Package mstodo implements service.Service on the Microsoft Graph To Do API.
package mstodo

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"quicktask/internal/service"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

var tracer = otel.Tracer("quicktask/internal/backend/mstodo")

// Session supplies bearer tokens. *auth.Manager implements it.
type Session interface {
	Authorize(ctx context.Context) error
	Token(ctx context.Context) (string, error)
}

// Client implements service.Service using Microsoft To Do.
type Client struct {
	session    Session
	baseURL    string
	httpClient *http.Client
	zone       func() string
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Graph endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithZone overrides local time zone resolution.
func WithZone(zone func() string) Option {
	return func(c *Client) { c.zone = zone }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Microsoft To Do client authenticated by session.
func New(session Session, opts ...Option) *Client {
	c := &Client{
		session:    session,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		zone:       LocalZoneName,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements service.Service.
func (c *Client) Name() string { return ProviderName }

// Authorize implements service.Service.
func (c *Client) Authorize(ctx context.Context) error {
	return c.session.Authorize(ctx)
}

// FetchLists implements service.Service.
func (c *Client) FetchLists(ctx context.Context) ([]service.TaskList, error) {
	data, err := c.do(ctx, http.MethodGet, "/me/todo/lists", nil)
	if err != nil {
		return nil, err
	}

	lists, err := decodeLists(jx.DecodeBytes(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode lists")
	}
	c.logger.Debug("fetched lists", zap.Int("count", len(lists)))
	return lists, nil
}

// decodeLists reads the value array of a todoTaskList collection.
// Unknown keys are skipped.
func decodeLists(d *jx.Decoder) ([]service.TaskList, error) {
	lists := make([]service.TaskList, 0)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "value" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var l service.TaskList
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				if d.Next() == jx.Null {
					return d.Null()
				}
				var err error
				switch key {
				case "id":
					l.ID, err = d.Str()
				case "displayName":
					l.DisplayName, err = d.Str()
				case "wellknownListName":
					l.WellknownListName, err = d.Str()
				case "isOwner":
					l.IsOwner, err = d.Bool()
				case "isShared":
					l.IsShared, err = d.Bool()
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			lists = append(lists, l)
			return nil
		})
	})
	return lists, err
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, req service.CreateTaskRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	payload := NewTaskPayload(req.Title).WithBody(req.Body)
	if req.DueDateTime != "" || req.ReminderDateTime != "" {
		zone := c.zone()
		payload.WithDue(req.DueDateTime, zone).WithReminder(req.ReminderDateTime, zone)
	}

	path := "/me/todo/lists/" + url.PathEscape(req.ListID) + "/tasks"
	if _, err := c.do(ctx, http.MethodPost, path, payload.Encode()); err != nil {
		return err
	}
	c.logger.Debug("created task", zap.String("list_id", req.ListID))
	return nil
}

// do sends an authenticated request and returns the response body of a
// 2xx answer. Any other status becomes a *service.APIError.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "mstodo "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	token, err := c.session.Token(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("graph request", zap.String("method", method), zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &service.APIError{Status: resp.StatusCode, Body: string(data)}
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}
	return data, nil
}
