// Package config handles the XDG configuration directory, file paths and
// client credentials.
package config

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2/google"
)

const (
	// AppName is the application directory name.
	AppName = "quicktask"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// EnvFile holds KEY=value overrides loaded before the process env.
	EnvFile = ".env"

	// VaultFile is the encrypted token database.
	VaultFile = "tokens.db"

	// KeyFile is the vault encryption key.
	KeyFile = "vault.key"

	// DefaultProvider is used when no provider is configured.
	DefaultProvider = "microsoft"

	// DefaultTenant restricts Microsoft sign-in to personal accounts.
	DefaultTenant = "consumers"
)

// Environment variables read by Load.
const (
	EnvProvider     = "QUICKTASK_PROVIDER"
	EnvClientID     = "QUICKTASK_CLIENT_ID"
	EnvClientSecret = "QUICKTASK_CLIENT_SECRET"
	EnvTenant       = "QUICKTASK_TENANT"
	EnvAPIBase      = "QUICKTASK_API_BASE"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Provider selects the task backend, e.g. "microsoft" or "google".
	Provider string

	ClientID     string
	ClientSecret string

	// Tenant is the Microsoft identity tenant.
	Tenant string

	// APIBase overrides the task API endpoint. Empty means the provider default.
	APIBase string
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/quicktask or $HOME/.config/quicktask.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:      dir,
		Provider: DefaultProvider,
		Tenant:   DefaultTenant,
	}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Load fills settings from oauth_client.json, then the .env file, then the
// process environment. Later sources win. Missing files are not an error.
func (c *Config) Load() error {
	id, secret, err := readOAuthClient(c.OAuthClientPath())
	switch {
	case err == nil:
		c.ClientID, c.ClientSecret = id, secret
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	file, err := godotenv.Read(c.EnvPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "read %s", EnvFile)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := file[key]
		return v, ok && v != ""
	}

	if v, ok := lookup(EnvProvider); ok {
		c.Provider = v
	}
	if v, ok := lookup(EnvClientID); ok {
		c.ClientID = v
	}
	if v, ok := lookup(EnvClientSecret); ok {
		c.ClientSecret = v
	}
	if v, ok := lookup(EnvTenant); ok {
		c.Tenant = v
	}
	if v, ok := lookup(EnvAPIBase); ok {
		c.APIBase = v
	}
	return nil
}

// readOAuthClient accepts Google's downloaded client file ("installed" or
// "web") as well as a flat {"client_id","client_secret"} object.
func readOAuthClient(path string) (id, secret string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	if cfg, err := google.ConfigFromJSON(data); err == nil {
		return cfg.ClientID, cfg.ClientSecret, nil
	}

	var flat struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(data, &flat); err != nil {
		return "", "", errors.Wrapf(err, "invalid %s", OAuthClientFile)
	}
	if flat.ClientID == "" {
		return "", "", errors.Errorf("invalid %s: client_id missing", OAuthClientFile)
	}
	return flat.ClientID, flat.ClientSecret, nil
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// EnvPath returns the path to the .env file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// VaultPath returns the path to the encrypted token database.
func (c *Config) VaultPath() string {
	return filepath.Join(c.Dir, VaultFile)
}

// KeyPath returns the path to the vault key.
func (c *Config) KeyPath() string {
	return filepath.Join(c.Dir, KeyFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasClient reports whether an OAuth client ID is configured.
func (c *Config) HasClient() bool {
	return c.ClientID != ""
}
