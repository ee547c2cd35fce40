package navigator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
)

// relayPage moves a fragment response into the query, where the listener
// can read it.
const relayPage = `<!DOCTYPE html>
<html><body><script>
if (window.location.hash.length > 1) {
  window.location.replace(window.location.pathname + "?" + window.location.hash.substring(1));
}
</script></body></html>`

const donePage = `<!DOCTYPE html>
<html><body><p>You can close this window.</p></body></html>`

// Loopback is a popup navigator for native apps.  It opens the request URL
// in the system browser and waits for the callback, which is either
// received by its listener on a loopback redirect URI
// (http://127.0.0.1:<port>/...) or handed to Callback by the application.
type Loopback struct {
	logger hclog.Logger
	open   func(url string) error
	listen bool

	mu      sync.Mutex
	pending map[string]chan string
}

var _ oidc.Navigator = (*Loopback)(nil)

// NewLoopback creates a Loopback navigator.
//
// Supported options:
//
//	WithOpener
//	WithoutListener
//	WithLogger
func NewLoopback(opt ...oidc.Option) *Loopback {
	opts := getNavigatorOpts(opt...)
	return &Loopback{
		logger:  opts.withLogger.Named("loopback"),
		open:    opts.withOpener,
		listen:  !opts.withoutListener,
		pending: map[string]chan string{},
	}
}

// Prepare starts the callback listener when the redirect URI is a loopback
// URI.  The listener is stopped when the handle is closed.
func (n *Loopback) Prepare(_ context.Context, p oidc.NavigateParams) (oidc.NavigatorHandle, error) {
	const op = "Loopback.Prepare"
	redirect, err := url.Parse(p.RedirectURI)
	if err != nil || p.RedirectURI == "" {
		return nil, fmt.Errorf("%s: invalid redirect uri %q: %w", op, p.RedirectURI, oidc.ErrInvalidParameter)
	}
	h := &loopbackHandle{nav: n}
	if !n.listen || !isLoopback(redirect) {
		return h, nil
	}
	l, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to listen on %s: %s: %w", op, redirect.Host, err, oidc.ErrNavigation)
	}
	h.server = &http.Server{
		Handler:           n.callbackHandler(redirect),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := h.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.logger.Error("callback listener failed", "error", err)
		}
	}()
	n.logger.Debug("listening for callback", "addr", l.Addr().String())
	return h, nil
}

// Callback delivers the callback url to the pending navigation with the same
// state.  A url without a state is delivered to the only pending navigation.
func (n *Loopback) Callback(_ context.Context, callbackURL string) (*oidc.NavigateResponse, error) {
	const op = "Loopback.Callback"
	if callbackURL == "" {
		return nil, fmt.Errorf("%s: missing url: %w", op, oidc.ErrInvalidParameter)
	}
	state := stateParam(callbackURL)

	n.mu.Lock()
	ch, ok := n.pending[state]
	if !ok && state == "" && len(n.pending) == 1 {
		for s, c := range n.pending {
			state, ch, ok = s, c, true
		}
	}
	if ok {
		delete(n.pending, state)
	}
	n.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%s: no pending navigation for state %q: %w", op, state, oidc.ErrNavigation)
	}
	ch <- callbackURL
	return &oidc.NavigateResponse{URL: callbackURL}, nil
}

func (n *Loopback) register(state string) chan string {
	ch := make(chan string, 1)
	n.mu.Lock()
	n.pending[state] = ch
	n.mu.Unlock()
	return ch
}

func (n *Loopback) unregister(state string) {
	n.mu.Lock()
	delete(n.pending, state)
	n.mu.Unlock()
}

func (n *Loopback) callbackHandler(redirect *url.URL) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !matchesRedirect(&url.URL{Scheme: redirect.Scheme, Host: redirect.Host, Path: r.URL.Path}, redirect.String()) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if r.URL.RawQuery == "" {
			_, _ = w.Write([]byte(relayPage))
			return
		}
		callback := (&url.URL{Scheme: redirect.Scheme, Host: redirect.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}).String()
		if _, err := n.Callback(r.Context(), callback); err != nil {
			n.logger.Debug("unexpected callback", "error", err)
			http.Error(w, "unexpected callback", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(donePage))
	})
}

type loopbackHandle struct {
	nav       *Loopback
	server    *http.Server
	closeOnce sync.Once
}

// Navigate opens the url and waits for its callback.
func (h *loopbackHandle) Navigate(ctx context.Context, p oidc.NavigateParams) (*oidc.NavigateResponse, error) {
	const op = "loopbackHandle.Navigate"
	if p.URL == "" {
		return nil, fmt.Errorf("%s: missing url: %w", op, oidc.ErrInvalidParameter)
	}
	state := stateParam(p.URL)
	ch := h.nav.register(state)
	defer h.nav.unregister(state)

	h.nav.logger.Debug("opening browser", "window_target", p.WindowTarget)
	if err := h.nav.open(p.URL); err != nil {
		return nil, fmt.Errorf("%s: unable to open browser: %s: %w", op, err, oidc.ErrNavigation)
	}

	var timeout <-chan time.Time
	if p.Timeout > 0 {
		t := time.NewTimer(p.Timeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case callback := <-ch:
		return &oidc.NavigateResponse{URL: callback}, nil
	case <-timeout:
		return nil, fmt.Errorf("%s: no callback within %s: %w", op, p.Timeout, oidc.ErrTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: navigation cancelled: %w: %w", op, oidc.ErrNavigation, ctx.Err())
	}
}

// Close stops the callback listener.
func (h *loopbackHandle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		if h.server == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = h.server.Shutdown(ctx)
	})
	return err
}
