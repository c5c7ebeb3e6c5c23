package auth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

const (
	// OAuth callback timeout
	oauthCallbackTimeout = 5 * time.Minute

	// Starting port for OAuth callback server
	oauthStartPort = 8085

	// Max port attempts
	oauthMaxPortAttempts = 5
)

// Callback is what the provider's redirect delivered.
type Callback struct {
	Code        string
	State       string
	RedirectURI string
}

// Consent drives the interactive step of the authorization code flow.
// authURL builds the provider URL for the redirect URI chosen by the
// implementation. Abandonment must be reported as ErrCancelled.
type Consent interface {
	RequestCode(ctx context.Context, authURL func(redirectURI string) string) (*Callback, error)
}

// ConsentFunc adapts a function to Consent.
type ConsentFunc func(ctx context.Context, authURL func(redirectURI string) string) (*Callback, error)

// RequestCode implements Consent.
func (f ConsentFunc) RequestCode(ctx context.Context, authURL func(redirectURI string) string) (*Callback, error) {
	return f(ctx, authURL)
}

// LoopbackConsent prints the authorization URL and receives the redirect
// on a local HTTP server.
type LoopbackConsent struct {
	// Out receives the URL the user has to open.
	Out io.Writer

	// StartPort is the first port tried; 0 lets the kernel choose.
	StartPort int

	// MaxAttempts is the number of consecutive ports tried.
	MaxAttempts int

	// Timeout bounds the wait for the browser redirect.
	Timeout time.Duration
}

// NewLoopbackConsent creates a LoopbackConsent with the default port range
// and timeout.
func NewLoopbackConsent(out io.Writer) *LoopbackConsent {
	return &LoopbackConsent{
		Out:         out,
		StartPort:   oauthStartPort,
		MaxAttempts: oauthMaxPortAttempts,
		Timeout:     oauthCallbackTimeout,
	}
}

// RequestCode implements Consent.
func (c *LoopbackConsent) RequestCode(ctx context.Context, authURL func(redirectURI string) string) (*Callback, error) {
	port, listener, err := c.listen()
	if err != nil {
		return nil, errors.New("could not bind to local port for OAuth callback")
	}
	defer listener.Close()

	redirectURI := fmt.Sprintf("http://localhost:%d/callback", port)

	// Print URL to stderr
	fmt.Fprintln(c.Out, "Open this URL in your browser:")
	fmt.Fprintln(c.Out, authURL(redirectURI))

	cbCh := make(chan *Callback, 1)
	errCh := make(chan error, 1)
	deliver := func(cb *Callback, err error) {
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}
		select {
		case cbCh <- cb:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "Authorization was not granted. You may close this window.", http.StatusBadRequest)
			if e == "access_denied" {
				deliver(nil, ErrCancelled)
				return
			}
			deliver(nil, errors.Errorf("authorization failed: %s: %s", e, q.Get("error_description")))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			deliver(nil, errors.New("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You may close this window.</p></body></html>")
		deliver(&Callback{Code: code, State: q.Get("state"), RedirectURI: redirectURI}, nil)
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			deliver(nil, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = oauthCallbackTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case cb := <-cbCh:
		return cb, nil
	case err := <-errCh:
		return nil, err
	case <-timer.C:
		return nil, errors.Wrap(ErrCancelled, "oauth callback timed out")
	case <-ctx.Done():
		return nil, ErrCancelled
	}
}

// listen tries to find an available port starting from StartPort.
func (c *LoopbackConsent) listen() (int, net.Listener, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		port := c.StartPort
		if port != 0 {
			port += i
		}
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return listener.Addr().(*net.TCPAddr).Port, listener, nil
		}
	}
	return 0, nil, errors.New("no available port found")
}
