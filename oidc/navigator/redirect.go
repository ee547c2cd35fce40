package navigator

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
)

type responseWriterKey struct{}

// WithResponseWriter returns a ctx carrying the ResponseWriter a Redirect
// navigator answers with.
func WithResponseWriter(ctx context.Context, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, responseWriterKey{}, w)
}

func responseWriter(ctx context.Context) (http.ResponseWriter, bool) {
	w, ok := ctx.Value(responseWriterKey{}).(http.ResponseWriter)
	return w, ok && w != nil
}

// Redirect navigates by answering the current http request with a 302 to
// the request URL.  The navigation doesn't wait for a callback: Navigate
// returns as soon as the redirect is written.
type Redirect struct {
	logger hclog.Logger
}

var _ oidc.Navigator = (*Redirect)(nil)

// NewRedirect creates a Redirect navigator.
//
// Supported options:
//
//	WithLogger
func NewRedirect(opt ...oidc.Option) *Redirect {
	opts := getNavigatorOpts(opt...)
	return &Redirect{logger: opts.withLogger.Named("redirect")}
}

// Prepare acquires the ResponseWriter carried by the ctx (see
// WithResponseWriter).
func (n *Redirect) Prepare(ctx context.Context, _ oidc.NavigateParams) (oidc.NavigatorHandle, error) {
	const op = "Redirect.Prepare"
	w, ok := responseWriter(ctx)
	if !ok {
		return nil, fmt.Errorf("%s: no response writer in ctx: %w", op, oidc.ErrNavigation)
	}
	return &redirectHandle{w: w, logger: n.logger}, nil
}

// Callback returns the url unchanged.  Redirect callbacks are completed by
// the page receiving them.
func (n *Redirect) Callback(_ context.Context, url string) (*oidc.NavigateResponse, error) {
	const op = "Redirect.Callback"
	if url == "" {
		return nil, fmt.Errorf("%s: missing url: %w", op, oidc.ErrInvalidParameter)
	}
	return &oidc.NavigateResponse{URL: url}, nil
}

type redirectHandle struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	written bool
	logger  hclog.Logger
}

// Navigate writes the redirect.  Only one redirect can be written per
// handle.
func (h *redirectHandle) Navigate(_ context.Context, p oidc.NavigateParams) (*oidc.NavigateResponse, error) {
	const op = "redirectHandle.Navigate"
	if p.URL == "" {
		return nil, fmt.Errorf("%s: missing url: %w", op, oidc.ErrInvalidParameter)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.written {
		return nil, fmt.Errorf("%s: redirect already written: %w", op, oidc.ErrNavigation)
	}
	h.written = true
	h.w.Header().Set("Location", p.URL)
	h.w.Header().Set("Cache-Control", "no-store")
	h.w.WriteHeader(http.StatusFound)
	h.logger.Debug("redirected", "redirect_uri", p.RedirectURI)
	return &oidc.NavigateResponse{URL: p.URL}, nil
}

func (h *redirectHandle) Close() error {
	return nil
}
