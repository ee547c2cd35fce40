package navigator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
)

// Headless is a silent navigator.  It follows the authorization server's
// redirects, without user interaction, until they reach the redirect URI.
// The authorization server recognizes the user by the cookies in the
// http.Client's jar.
type Headless struct {
	logger       hclog.Logger
	client       *http.Client
	maxRedirects int
}

var _ oidc.Navigator = (*Headless)(nil)

// NewHeadless creates a Headless navigator.  Without an http.Client, it
// navigates with a cleanhttp client and an empty cookie jar.
//
// Supported options:
//
//	WithHTTPClient
//	WithMaxRedirects
//	WithLogger
func NewHeadless(opt ...oidc.Option) (*Headless, error) {
	const op = "NewHeadless"
	opts := getNavigatorOpts(opt...)
	if opts.withMaxRedirects <= 0 {
		return nil, fmt.Errorf("%s: max redirects must be greater than zero: %w", op, oidc.ErrInvalidParameter)
	}
	base := opts.withHTTPClient
	if base == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create cookie jar: %w", op, err)
		}
		base = cleanhttp.DefaultPooledClient()
		base.Jar = jar
	}
	// a copy, so the redirects are observed without changing the caller's
	// client.
	c := *base
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Headless{
		logger:       opts.withLogger.Named("headless"),
		client:       &c,
		maxRedirects: opts.withMaxRedirects,
	}, nil
}

// Prepare returns a handle bound to the navigator's http.Client.
func (n *Headless) Prepare(_ context.Context, p oidc.NavigateParams) (oidc.NavigatorHandle, error) {
	const op = "Headless.Prepare"
	if _, err := url.Parse(p.RedirectURI); err != nil || p.RedirectURI == "" {
		return nil, fmt.Errorf("%s: invalid redirect uri %q: %w", op, p.RedirectURI, oidc.ErrInvalidParameter)
	}
	return &headlessHandle{nav: n}, nil
}

// Callback returns the url unchanged.  Headless observes its callbacks
// itself.
func (n *Headless) Callback(_ context.Context, url string) (*oidc.NavigateResponse, error) {
	const op = "Headless.Callback"
	if url == "" {
		return nil, fmt.Errorf("%s: missing url: %w", op, oidc.ErrInvalidParameter)
	}
	return &oidc.NavigateResponse{URL: url}, nil
}

type headlessHandle struct {
	nav *Headless
}

// Navigate follows redirects from p.URL until one points at p.RedirectURI.
// A response that isn't a redirect (a login page, for example) fails the
// navigation.
func (h *headlessHandle) Navigate(ctx context.Context, p oidc.NavigateParams) (*oidc.NavigateResponse, error) {
	const op = "headlessHandle.Navigate"
	if p.URL == "" {
		return nil, fmt.Errorf("%s: missing url: %w", op, oidc.ErrInvalidParameter)
	}
	parent := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	next, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid url: %w", op, oidc.ErrInvalidParameter)
	}
	for i := 0; i <= h.nav.maxRedirects; i++ {
		if matchesRedirect(next, p.RedirectURI) {
			h.nav.logger.Debug("reached redirect uri", "redirects", i)
			return &oidc.NavigateResponse{URL: next.String()}, nil
		}
		loc, err := h.step(ctx, next)
		if err != nil {
			switch {
			case parent.Err() != nil:
				// the caller's own cancellation or deadline, not p.Timeout
				return nil, fmt.Errorf("%s: navigation cancelled: %w: %w", op, oidc.ErrNavigation, parent.Err())
			case errors.Is(err, context.DeadlineExceeded) && p.Timeout > 0:
				return nil, fmt.Errorf("%s: no callback within %s: %w", op, p.Timeout, oidc.ErrTimeout)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil, fmt.Errorf("%s: navigation cancelled: %w: %w", op, oidc.ErrNavigation, ctx.Err())
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		next = loc
	}
	return nil, fmt.Errorf("%s: stopped after %d redirects: %w", op, h.nav.maxRedirects, oidc.ErrNavigation)
}

// step requests u and returns the redirect's location.
func (h *headlessHandle) step(ctx context.Context, u *url.URL) (*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %s: %w", err, oidc.ErrNavigation)
	}
	resp, err := h.nav.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("request failed: %s: %w", err, oidc.ErrNavigation)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return nil, fmt.Errorf("%s answered %d instead of a redirect: %w", u.Host, resp.StatusCode, oidc.ErrNavigation)
	}
	loc, err := resp.Location()
	if err != nil {
		return nil, fmt.Errorf("redirect without a location: %w", oidc.ErrNavigation)
	}
	return loc, nil
}

func (h *headlessHandle) Close() error {
	return nil
}
