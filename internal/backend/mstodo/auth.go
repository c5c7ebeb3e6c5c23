package mstodo

import (
	"fmt"

	"quicktask/internal/auth"
)

const (
	// ProviderName is the configuration name and vault slot of this backend.
	ProviderName = "microsoft"

	// DefaultTenant restricts sign-in to personal Microsoft accounts.
	DefaultTenant = "consumers"

	loginBaseURL = "https://login.microsoftonline.com"
)

// Scopes grants read/write access to tasks and lists, offline access for
// refresh tokens, and an id_token for the account name.
var Scopes = []string{
	"openid",
	"User.Read",
	"Tasks.Read",
	"Tasks.Read.Shared",
	"Tasks.ReadWrite",
	"Tasks.ReadWrite.Shared",
	"offline_access",
}

// AuthProvider returns the Microsoft identity platform endpoints for tenant.
func AuthProvider(tenant, clientID, clientSecret string) auth.Provider {
	if tenant == "" {
		tenant = DefaultTenant
	}
	base := fmt.Sprintf("%s/%s/oauth2/v2.0", loginBaseURL, tenant)
	return auth.Provider{
		Name:         ProviderName,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthURL:      base + "/authorize",
		TokenURL:     base + "/token",
		Scopes:       Scopes,
		AuthParams:   map[string]string{"prompt": "consent"},
	}
}
