// Package auth manages the OAuth2 PKCE token lifecycle: interactive
// authorization, encrypted persistence, expiry detection and refresh.
package auth

import "golang.org/x/oauth2"

// Provider describes an OAuth2 identity provider and the client registered
// with it.
type Provider struct {
	// Name is the vault slot the provider's tokens are stored under.
	Name string

	ClientID     string
	ClientSecret string

	AuthURL  string
	TokenURL string
	Scopes   []string

	// AuthParams are extra query parameters for the authorization request.
	AuthParams map[string]string
}

// oauthConfig builds the oauth2 config. Client credentials always travel in
// the form body, which is what public and confidential desktop clients of
// both supported providers expect.
func (p Provider) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURL,
		Scopes:      p.Scopes,
	}
}

func (p Provider) authCodeOptions(verifier string) []oauth2.AuthCodeOption {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	for k, v := range p.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return opts
}
