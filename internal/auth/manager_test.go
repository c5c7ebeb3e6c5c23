package auth_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"quicktask/internal/auth"
	"quicktask/internal/tokenstore"
)

const slot = "test"

// tokenServer is a fake token endpoint recording every form it receives.
type tokenServer struct {
	*httptest.Server

	mu    sync.Mutex
	forms []url.Values

	// respond decides the reply for a grant.
	respond func(form url.Values) (status int, body string)
}

func newTokenServer(t *testing.T, respond func(form url.Values) (int, string)) *tokenServer {
	t.Helper()
	ts := &tokenServer{respond: respond}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts.mu.Lock()
		ts.forms = append(ts.forms, r.PostForm)
		ts.mu.Unlock()

		status, body := ts.respond(r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) requests() []url.Values {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]url.Values(nil), ts.forms...)
}

func (ts *tokenServer) provider() auth.Provider {
	return auth.Provider{
		Name:         slot,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      ts.URL + "/authorize",
		TokenURL:     ts.URL + "/token",
		Scopes:       []string{"Tasks.ReadWrite", "offline_access"},
		AuthParams:   map[string]string{"prompt": "consent"},
	}
}

// fakeConsent approves the request and records what the auth URL carried.
type fakeConsent struct {
	calls     int
	authQuery url.Values
	err       error
	state     string // overrides the echoed state when set
}

func (c *fakeConsent) RequestCode(ctx context.Context, authURL func(string) string) (*auth.Callback, error) {
	c.calls++
	redirect := "http://localhost:8085/callback"
	u, err := url.Parse(authURL(redirect))
	if err != nil {
		return nil, err
	}
	c.authQuery = u.Query()
	if c.err != nil {
		return nil, c.err
	}
	state := c.authQuery.Get("state")
	if c.state != "" {
		state = c.state
	}
	return &auth.Callback{Code: "auth-code", State: state, RedirectURI: redirect}, nil
}

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newManager(srv *tokenServer, store tokenstore.Store, consent auth.Consent) *auth.Manager {
	return auth.NewManager(srv.provider(), store, consent,
		auth.WithClock(func() time.Time { return fixedNow }),
		auth.WithHTTPClient(srv.Client()),
	)
}

func okToken(access, refresh string) string {
	if refresh == "" {
		return fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer","expires_in":3600}`, access)
	}
	return fmt.Sprintf(`{"access_token":%q,"refresh_token":%q,"token_type":"Bearer","expires_in":3600}`, access, refresh)
}

func TestAuthorize_ValidTokenNoNetwork(t *testing.T) {
	srv := newTokenServer(t, func(url.Values) (int, string) {
		return http.StatusOK, okToken("unexpected", "")
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), slot, &tokenstore.TokenSet{
		AccessToken:  "still-good",
		RefreshToken: "refresh",
		ExpiresAt:    fixedNow.Add(time.Hour),
	})
	consent := &fakeConsent{}

	m := newManager(srv, store, consent)
	if err := m.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	if n := len(srv.requests()); n != 0 {
		t.Errorf("expected no token requests, got %d", n)
	}
	if consent.calls != 0 {
		t.Errorf("expected no consent prompt, got %d", consent.calls)
	}

	token, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "still-good" {
		t.Errorf("Token = %q", token)
	}
}

func TestAuthorize_ExpiredTokenRefreshes(t *testing.T) {
	srv := newTokenServer(t, func(form url.Values) (int, string) {
		return http.StatusOK, okToken("refreshed-access", "rotated-refresh")
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), slot, &tokenstore.TokenSet{
		AccessToken:  "expired",
		RefreshToken: "old-refresh",
		ExpiresAt:    fixedNow.Add(-time.Minute),
	})
	consent := &fakeConsent{}

	m := newManager(srv, store, consent)
	if err := m.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	reqs := srv.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly one refresh request, got %d", len(reqs))
	}
	form := reqs[0]
	if got := form.Get("grant_type"); got != "refresh_token" {
		t.Errorf("grant_type = %q", got)
	}
	if got := form.Get("refresh_token"); got != "old-refresh" {
		t.Errorf("refresh_token = %q", got)
	}
	if form.Get("client_id") != "client-id" || form.Get("client_secret") != "client-secret" {
		t.Errorf("client credentials not sent in form: %v", form)
	}
	if consent.calls != 0 {
		t.Error("refresh path should not prompt")
	}

	stored, _ := store.Load(context.Background(), slot)
	if stored.AccessToken != "refreshed-access" || stored.RefreshToken != "rotated-refresh" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestAuthorize_RefreshKeepsPreviousRefreshToken(t *testing.T) {
	srv := newTokenServer(t, func(url.Values) (int, string) {
		return http.StatusOK, okToken("refreshed-access", "")
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), slot, &tokenstore.TokenSet{
		AccessToken:  "expired",
		RefreshToken: "keep-me",
		ExpiresAt:    fixedNow.Add(-time.Hour),
	})

	m := newManager(srv, store, &fakeConsent{})
	if err := m.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	stored, _ := store.Load(context.Background(), slot)
	if stored.RefreshToken != "keep-me" {
		t.Errorf("RefreshToken = %q, want previous token carried forward", stored.RefreshToken)
	}
	if stored.AccessToken != "refreshed-access" {
		t.Errorf("AccessToken = %q", stored.AccessToken)
	}
}

func TestAuthorize_RefreshFailureFallsBackToInteractive(t *testing.T) {
	srv := newTokenServer(t, func(form url.Values) (int, string) {
		if form.Get("grant_type") == "refresh_token" {
			return http.StatusBadRequest, `{"error":"invalid_grant"}`
		}
		return http.StatusOK, okToken("interactive-access", "interactive-refresh")
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), slot, &tokenstore.TokenSet{
		AccessToken:  "expired",
		RefreshToken: "revoked",
		ExpiresAt:    fixedNow.Add(-time.Hour),
	})
	consent := &fakeConsent{}

	m := newManager(srv, store, consent)
	if err := m.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	reqs := srv.requests()
	if len(reqs) != 2 {
		t.Fatalf("expected refresh + code exchange, got %d requests", len(reqs))
	}
	if reqs[0].Get("grant_type") != "refresh_token" {
		t.Errorf("first request grant_type = %q", reqs[0].Get("grant_type"))
	}
	if reqs[1].Get("grant_type") != "authorization_code" {
		t.Errorf("second request grant_type = %q", reqs[1].Get("grant_type"))
	}
	if consent.calls != 1 {
		t.Errorf("expected one consent prompt, got %d", consent.calls)
	}

	stored, _ := store.Load(context.Background(), slot)
	if stored.AccessToken != "interactive-access" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestAuthorize_InteractivePKCE(t *testing.T) {
	srv := newTokenServer(t, func(url.Values) (int, string) {
		return http.StatusOK, okToken("fresh-access", "fresh-refresh")
	})
	store := tokenstore.NewMemoryStore()
	consent := &fakeConsent{}

	m := newManager(srv, store, consent)
	if err := m.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	q := consent.authQuery
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("scope") != "Tasks.ReadWrite offline_access" {
		t.Errorf("scope = %q", q.Get("scope"))
	}
	if q.Get("code_challenge_method") != "S256" {
		t.Errorf("code_challenge_method = %q", q.Get("code_challenge_method"))
	}
	if q.Get("prompt") != "consent" {
		t.Errorf("prompt = %q", q.Get("prompt"))
	}
	if q.Get("state") == "" {
		t.Error("state missing from auth URL")
	}

	reqs := srv.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one exchange request, got %d", len(reqs))
	}
	form := reqs[0]
	if form.Get("grant_type") != "authorization_code" {
		t.Errorf("grant_type = %q", form.Get("grant_type"))
	}
	if form.Get("code") != "auth-code" {
		t.Errorf("code = %q", form.Get("code"))
	}
	if form.Get("redirect_uri") != "http://localhost:8085/callback" {
		t.Errorf("redirect_uri = %q", form.Get("redirect_uri"))
	}

	// The verifier sent at exchange must hash to the challenge sent at authorize
	sum := sha256.Sum256([]byte(form.Get("code_verifier")))
	if got := base64.RawURLEncoding.EncodeToString(sum[:]); got != q.Get("code_challenge") {
		t.Errorf("code_verifier does not match code_challenge")
	}

	stored, err := store.Load(context.Background(), slot)
	if err != nil {
		t.Fatalf("token not persisted: %v", err)
	}
	if stored.AccessToken != "fresh-access" || stored.RefreshToken != "fresh-refresh" {
		t.Errorf("stored = %+v", stored)
	}
	if stored.ExpiresAt.IsZero() {
		t.Error("expiry not recorded")
	}
}

func TestAuthorize_ExchangeFailed(t *testing.T) {
	srv := newTokenServer(t, func(url.Values) (int, string) {
		return http.StatusUnauthorized, `{"error":"invalid_client"}`
	})
	store := tokenstore.NewMemoryStore()

	m := newManager(srv, store, &fakeConsent{})
	err := m.Authorize(context.Background())

	var exErr *auth.ExchangeFailedError
	if !errors.As(err, &exErr) {
		t.Fatalf("expected ExchangeFailedError, got %v", err)
	}
	if exErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d", exErr.Status)
	}
	if exErr.Body != `{"error":"invalid_client"}` {
		t.Errorf("Body = %q", exErr.Body)
	}
	if _, err := store.Load(context.Background(), slot); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Error("nothing should be stored after a failed exchange")
	}
}

func TestAuthorize_CancelledLeavesStoreUntouched(t *testing.T) {
	srv := newTokenServer(t, func(form url.Values) (int, string) {
		return http.StatusBadRequest, `{"error":"invalid_grant"}`
	})
	store := tokenstore.NewMemoryStore()
	prior := &tokenstore.TokenSet{
		AccessToken:  "expired",
		RefreshToken: "revoked",
		ExpiresAt:    fixedNow.Add(-time.Hour),
	}
	_ = store.Save(context.Background(), slot, prior)

	m := newManager(srv, store, &fakeConsent{err: auth.ErrCancelled})
	err := m.Authorize(context.Background())
	if !errors.Is(err, auth.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	stored, _ := store.Load(context.Background(), slot)
	if *stored != *prior {
		t.Errorf("stored record changed: %+v", stored)
	}
}

func TestAuthorize_StateMismatch(t *testing.T) {
	srv := newTokenServer(t, func(url.Values) (int, string) {
		return http.StatusOK, okToken("a", "r")
	})

	m := newManager(srv, tokenstore.NewMemoryStore(), &fakeConsent{state: "forged"})
	err := m.Authorize(context.Background())
	if !errors.Is(err, auth.ErrStateMismatch) {
		t.Fatalf("expected ErrStateMismatch, got %v", err)
	}
	if n := len(srv.requests()); n != 0 {
		t.Errorf("code must not be exchanged on state mismatch, got %d requests", n)
	}
}

func TestToken_NotAuthenticated(t *testing.T) {
	srv := newTokenServer(t, func(url.Values) (int, string) {
		return http.StatusOK, okToken("a", "r")
	})
	consent := &fakeConsent{}

	m := newManager(srv, tokenstore.NewMemoryStore(), consent)
	if _, err := m.Token(context.Background()); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if consent.calls != 0 {
		t.Error("Token must never prompt")
	}
}

func TestTokenSource(t *testing.T) {
	srv := newTokenServer(t, func(url.Values) (int, string) {
		return http.StatusOK, okToken("a", "r")
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), slot, &tokenstore.TokenSet{
		AccessToken: "sdk-token",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	m := auth.NewManager(srv.provider(), store, &fakeConsent{}, auth.WithHTTPClient(srv.Client()))
	tok, err := m.TokenSource(context.Background()).Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok.AccessToken != "sdk-token" {
		t.Errorf("AccessToken = %q", tok.AccessToken)
	}
}

func TestLogout(t *testing.T) {
	srv := newTokenServer(t, func(url.Values) (int, string) {
		return http.StatusOK, okToken("a", "r")
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), slot, &tokenstore.TokenSet{AccessToken: "a"})

	m := newManager(srv, store, &fakeConsent{})
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := m.Stored(context.Background()); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after logout, got %v", err)
	}
}

func TestToken_RefreshesAfterExpiry(t *testing.T) {
	srv := newTokenServer(t, func(form url.Values) (int, string) {
		return http.StatusOK, okToken("second-access", "second-refresh")
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), slot, &tokenstore.TokenSet{
		AccessToken:  "first-access",
		RefreshToken: "first-refresh",
		ExpiresAt:    fixedNow.Add(time.Hour),
	})
	consent := &fakeConsent{}

	now := fixedNow
	m := auth.NewManager(srv.provider(), store, consent,
		auth.WithClock(func() time.Time { return now }),
		auth.WithHTTPClient(srv.Client()),
	)
	if err := m.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if n := len(srv.requests()); n != 0 {
		t.Fatalf("expected no token requests before expiry, got %d", n)
	}

	now = fixedNow.Add(2 * time.Hour)
	token, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "second-access" {
		t.Errorf("Token = %q, want refreshed token", token)
	}

	reqs := srv.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly one refresh request, got %d", len(reqs))
	}
	if reqs[0].Get("grant_type") != "refresh_token" || reqs[0].Get("refresh_token") != "first-refresh" {
		t.Errorf("refresh form = %v", reqs[0])
	}
	if consent.calls != 0 {
		t.Error("Token must never prompt")
	}

	// The refreshed record is persisted and reused.
	if token, _ := m.Token(context.Background()); token != "second-access" {
		t.Errorf("second Token = %q", token)
	}
	if n := len(srv.requests()); n != 1 {
		t.Errorf("refreshed token should be reused, got %d requests", n)
	}
}

func TestAuthorize_ExpiredWithoutRefreshTokenGoesInteractive(t *testing.T) {
	srv := newTokenServer(t, func(url.Values) (int, string) {
		return http.StatusOK, okToken("interactive-access", "interactive-refresh")
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), slot, &tokenstore.TokenSet{
		AccessToken: "expired",
		ExpiresAt:   fixedNow.Add(-time.Minute),
	})
	consent := &fakeConsent{}

	m := newManager(srv, store, consent)
	if err := m.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	if consent.calls != 1 {
		t.Errorf("expected one consent prompt, got %d", consent.calls)
	}
	reqs := srv.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected only the code exchange, got %d requests", len(reqs))
	}
	if got := reqs[0].Get("grant_type"); got != "authorization_code" {
		t.Errorf("grant_type = %q, no refresh should be attempted", got)
	}

	stored, _ := store.Load(context.Background(), slot)
	if stored.AccessToken != "interactive-access" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestVaultManager(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), slot, &tokenstore.TokenSet{AccessToken: "a", ExpiresAt: fixedNow.Add(time.Hour)})

	m := auth.NewVaultManager(slot, store, auth.WithClock(func() time.Time { return fixedNow }))
	if m.Provider().Name != slot {
		t.Errorf("Provider().Name = %q", m.Provider().Name)
	}
	stored, err := m.Stored(context.Background())
	if err != nil || stored.AccessToken != "a" {
		t.Fatalf("Stored = %+v, %v", stored, err)
	}

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := m.Authorize(context.Background()); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated without a stored token, got %v", err)
	}
}
