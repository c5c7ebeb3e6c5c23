package commands

import (
	"os"

	"quicktask/internal/auth"
	"quicktask/internal/config"
	"quicktask/internal/tokenstore"
)

// storedCredentials returns a Manager over the vault slot of cfg's
// provider. A missing vault reads as empty, so no key file is created.
func storedCredentials(cfg *config.Config) (*auth.Manager, error) {
	if _, err := os.Stat(cfg.VaultPath()); os.IsNotExist(err) {
		return auth.NewVaultManager(cfg.Provider, tokenstore.NewMemoryStore()), nil
	}
	vault, err := tokenstore.OpenBolt(cfg.VaultPath(), cfg.KeyPath())
	if err != nil {
		return nil, &tokenstore.StoreError{Op: "open", Slot: cfg.Provider, Err: err}
	}
	return auth.NewVaultManager(cfg.Provider, vault), nil
}
