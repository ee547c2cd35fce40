package oidc

import (
	"context"
	"time"
)

// Navigator carries the user agent through an authorization server round
// trip.  There are three strategies: a full-page redirect, a popup window and
// a hidden (silent) surface.  See the navigator package for implementations.
type Navigator interface {
	// Prepare acquires a navigation surface.
	Prepare(ctx context.Context, p NavigateParams) (NavigatorHandle, error)

	// Callback is used by the page (or listener) receiving the callback URL.
	Callback(ctx context.Context, url string) (*NavigateResponse, error)
}

// NavigatorHandle is an acquired navigation surface.
type NavigatorHandle interface {
	// Navigate to p.URL and return the final callback URL.  Cancellation
	// (a closed popup, a cancelled ctx) is returned as an ErrNavigation
	// error and an elapsed p.Timeout as an ErrTimeout error.
	Navigate(ctx context.Context, p NavigateParams) (*NavigateResponse, error)

	// Close releases the navigation surface.  It's safe to call more than
	// once.
	Close() error
}

// NavigateParams describe one navigation.
type NavigateParams struct {
	// URL is the request URL to navigate to.
	URL string

	// RedirectURI is the callback URI the navigation is expected to end at.
	RedirectURI string

	// WindowFeatures and WindowTarget are only used by popup navigators.
	WindowFeatures string
	WindowTarget   string

	// Timeout bounds the navigation when greater than zero.
	Timeout time.Duration
}

// NavigateResponse is the result of a navigation.
type NavigateResponse struct {
	URL string
}
