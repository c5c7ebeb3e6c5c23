package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"quicktask/internal/tokenstore"
)

// tokenExchangeTimeout bounds the authorization code exchange.
const tokenExchangeTimeout = 30 * time.Second

var tracer = otel.Tracer("quicktask/internal/auth")

// Manager guarantees that after Authorize returns nil a non-expired access
// token is available through Token.
//
// One Manager is built per process. It does not lock the store: a
// concurrent refresh may read a stale record, and since writes replace the
// whole record the loser's token is equally valid.
type Manager struct {
	provider   Provider
	store      tokenstore.Store
	consent    Consent
	logger     *zap.Logger
	now        func() time.Time
	httpClient *http.Client
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithHTTPClient sets the client used for token endpoint requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// NewManager creates a Manager for provider, persisting tokens in store and
// using consent for the interactive step.
func NewManager(provider Provider, store tokenstore.Store, consent Consent, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		store:    store,
		consent:  consent,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("provider", provider.Name))
	return m
}

// NewVaultManager creates a Manager over the stored token set of slot
// alone. It has no endpoints or consent, so it never reaches the network
// interactively: Authorize without a usable token returns
// ErrNotAuthenticated. Use it to inspect or clear stored credentials.
func NewVaultManager(slot string, store tokenstore.Store, opts ...Option) *Manager {
	noConsent := ConsentFunc(func(context.Context, func(string) string) (*Callback, error) {
		return nil, ErrNotAuthenticated
	})
	return NewManager(Provider{Name: slot}, store, noConsent, opts...)
}

// Provider returns the provider the manager authenticates against.
func (m *Manager) Provider() Provider {
	return m.provider
}

// Authorize ensures a usable token is stored. It returns without network
// access when the stored access token is still valid, tries one silent
// refresh when it has expired, and otherwise runs the interactive flow.
func (m *Manager) Authorize(ctx context.Context) error {
	ts, err := m.current(ctx)
	if err != nil {
		return err
	}
	if ts != nil {
		return nil
	}

	fresh, err := m.interactive(ctx)
	if err != nil {
		return err
	}
	return m.save(ctx, fresh)
}

// Token returns a valid access token, refreshing silently if required.
// It never prompts; ErrNotAuthenticated means Authorize must run first.
func (m *Manager) Token(ctx context.Context) (string, error) {
	ts, err := m.current(ctx)
	if err != nil {
		return "", err
	}
	if ts == nil {
		return "", ErrNotAuthenticated
	}
	return ts.AccessToken, nil
}

// Stored returns the persisted token set without touching the network.
func (m *Manager) Stored(ctx context.Context) (*tokenstore.TokenSet, error) {
	return m.store.Load(ctx, m.provider.Name)
}

// Logout removes the stored token set.
func (m *Manager) Logout(ctx context.Context) error {
	return m.store.Delete(ctx, m.provider.Name)
}

// TokenSource adapts the manager to oauth2.TokenSource for SDK clients.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &managerSource{ctx: ctx, m: m})
}

type managerSource struct {
	ctx context.Context
	m   *Manager
}

func (s *managerSource) Token() (*oauth2.Token, error) {
	ts, err := s.m.current(s.ctx)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken: ts.AccessToken,
		TokenType:   ts.TokenType,
		Expiry:      ts.ExpiresAt,
	}, nil
}

// current returns a usable token set, refreshing and persisting it when the
// stored access token has expired. A nil token set with a nil error means
// interactive authorization is required.
func (m *Manager) current(ctx context.Context) (*tokenstore.TokenSet, error) {
	stored, err := m.store.Load(ctx, m.provider.Name)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			m.logger.Warn("ignoring unreadable stored token", zap.Error(err))
		}
		return nil, nil
	}
	if stored.AccessToken == "" {
		return nil, nil
	}
	if !stored.Expired(m.now()) {
		m.logger.Debug("using stored access token", zap.Time("expires_at", stored.ExpiresAt))
		return stored, nil
	}
	if stored.RefreshToken == "" {
		m.logger.Debug("access token expired and no refresh token stored")
		return nil, nil
	}

	refreshed, err := m.refresh(ctx, stored)
	if err != nil {
		// The expired record stays in place; interactive auth starts clean.
		m.logger.Debug("refresh failed, falling back to interactive authorization", zap.Error(err))
		return nil, nil
	}
	if err := m.save(ctx, refreshed); err != nil {
		return nil, err
	}
	return refreshed, nil
}

// refresh exchanges prev's refresh token for a new token set. When the
// provider omits a refresh token the previous one is carried forward.
func (m *Manager) refresh(ctx context.Context, prev *tokenstore.TokenSet) (*tokenstore.TokenSet, error) {
	ctx, span := tracer.Start(ctx, "auth.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("oauth.provider", m.provider.Name))

	m.logger.Debug("refreshing access token")
	src := m.provider.oauthConfig("").TokenSource(m.clientContext(ctx), &oauth2.Token{
		RefreshToken: prev.RefreshToken,
	})
	tok, err := src.Token()
	if err != nil {
		err = exchangeError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		return nil, err
	}

	next := fromOAuth2(tok)
	if next.RefreshToken == "" {
		next.RefreshToken = prev.RefreshToken
	}
	if next.IDToken == "" {
		next.IDToken = prev.IDToken
	}
	return next, nil
}

// interactive runs the PKCE authorization code flow.
func (m *Manager) interactive(ctx context.Context) (*tokenstore.TokenSet, error) {
	ctx, span := tracer.Start(ctx, "auth.interactive")
	defer span.End()
	span.SetAttributes(attribute.String("oauth.provider", m.provider.Name))

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()

	cb, err := m.consent.RequestCode(ctx, func(redirectURI string) string {
		return m.provider.oauthConfig(redirectURI).AuthCodeURL(state, m.provider.authCodeOptions(verifier)...)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if cb.State != state {
		span.RecordError(ErrStateMismatch)
		return nil, ErrStateMismatch
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	m.logger.Debug("exchanging authorization code", zap.String("redirect_uri", cb.RedirectURI))
	tok, err := m.provider.oauthConfig(cb.RedirectURI).Exchange(
		m.clientContext(exchangeCtx),
		cb.Code,
		oauth2.VerifierOption(verifier),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		err = exchangeError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "exchange failed")
		return nil, err
	}
	return fromOAuth2(tok), nil
}

func (m *Manager) save(ctx context.Context, ts *tokenstore.TokenSet) error {
	if err := m.store.Save(ctx, m.provider.Name, ts); err != nil {
		return errors.Wrap(err, "persist token")
	}
	return nil
}

func (m *Manager) clientContext(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

func fromOAuth2(tok *oauth2.Token) *tokenstore.TokenSet {
	ts := &tokenstore.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		ts.IDToken = id
	}
	return ts
}
