// Package backend selects and builds the configured task provider.
package backend

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"quicktask/internal/auth"
	"quicktask/internal/backend/googletasks"
	"quicktask/internal/backend/mstodo"
	"quicktask/internal/config"
	"quicktask/internal/service"
	"quicktask/internal/tokenstore"
)

// ErrNoClient is returned when no OAuth client ID is configured.
var ErrNoClient = errors.New("no OAuth client configured")

// UnknownProviderError names a provider that is not registered.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %s", e.Name)
}

// Deps are the process-wide collaborators handed to every provider.
type Deps struct {
	Store   tokenstore.Store
	Consent auth.Consent
	Logger  *zap.Logger
}

// Builder constructs a provider from configuration.
type Builder func(ctx context.Context, cfg *config.Config, deps Deps) (service.Service, error)

// Registry maps provider names to builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a builder. Registering the same name twice replaces it.
func (r *Registry) Register(name string, b Builder) {
	r.builders[name] = b
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open builds the provider named by cfg.Provider.
func (r *Registry) Open(ctx context.Context, cfg *config.Config, deps Deps) (service.Service, error) {
	b, ok := r.builders[cfg.Provider]
	if !ok {
		return nil, &UnknownProviderError{Name: cfg.Provider}
	}
	if !cfg.HasClient() {
		return nil, errors.Wrapf(ErrNoClient, "set %s or add %s to %s",
			config.EnvClientID, config.OAuthClientFile, cfg.Dir)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return b(ctx, cfg, deps)
}

// Default holds the built-in providers.
var Default = func() *Registry {
	r := NewRegistry()
	r.Register(mstodo.ProviderName, openMicrosoft)
	r.Register(googletasks.ProviderName, openGoogle)
	return r
}()

func openMicrosoft(ctx context.Context, cfg *config.Config, deps Deps) (service.Service, error) {
	provider := mstodo.AuthProvider(cfg.Tenant, cfg.ClientID, cfg.ClientSecret)
	manager := auth.NewManager(provider, deps.Store, deps.Consent, auth.WithLogger(deps.Logger))

	opts := []mstodo.Option{mstodo.WithLogger(deps.Logger)}
	if cfg.APIBase != "" {
		opts = append(opts, mstodo.WithBaseURL(cfg.APIBase))
	}
	return mstodo.New(manager, opts...), nil
}

func openGoogle(ctx context.Context, cfg *config.Config, deps Deps) (service.Service, error) {
	provider := googletasks.AuthProvider(cfg.ClientID, cfg.ClientSecret)
	manager := auth.NewManager(provider, deps.Store, deps.Consent, auth.WithLogger(deps.Logger))

	var opts []option.ClientOption
	if cfg.APIBase != "" {
		opts = append(opts, option.WithEndpoint(cfg.APIBase))
	}
	return googletasks.New(ctx, manager, deps.Logger, opts...)
}
