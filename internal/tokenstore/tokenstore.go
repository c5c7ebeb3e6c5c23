// Package tokenstore persists OAuth token sets, one per named service slot.
package tokenstore

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ExpirySkew is subtracted from ExpiresAt so a token is refreshed shortly
// before the provider would reject it.
const ExpirySkew = time.Minute

// ErrNotFound is returned by Load when the slot holds no token set.
var ErrNotFound = errors.New("no stored token")

// TokenSet is the credential bundle issued by an identity provider.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
}

// Expired reports whether the access token must not be used at now.
// A zero ExpiresAt never expires.
func (t *TokenSet) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt.Add(-ExpirySkew))
}

// Usable reports whether t carries an access token that is valid at now.
func (t *TokenSet) Usable(now time.Time) bool {
	return t != nil && t.AccessToken != "" && !t.Expired(now)
}

// Store provides persistent storage for token sets.
// Save replaces the whole record for a slot.
type Store interface {
	// Load returns the token set for slot, or ErrNotFound.
	Load(ctx context.Context, slot string) (*TokenSet, error)

	// Save stores ts under slot.
	Save(ctx context.Context, slot string, ts *TokenSet) error

	// Delete removes slot. Deleting an absent slot is not an error.
	Delete(ctx context.Context, slot string) error
}

// StoreError indicates a token storage failure.
type StoreError struct {
	Op   string // "load", "save", "delete"
	Slot string
	Err  error
}

func (e *StoreError) Error() string {
	msg := e.Op + " token"
	if e.Slot != "" {
		msg += " for " + e.Slot
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
