package navigator

import (
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
)

// DefaultMaxRedirects is the number of redirects Headless follows before it
// gives up.
const DefaultMaxRedirects = 10

// navigatorOptions is the set of available options for the navigators.
type navigatorOptions struct {
	withLogger       hclog.Logger
	withHTTPClient   *http.Client
	withOpener       func(url string) error
	withoutListener  bool
	withMaxRedirects int
}

func navigatorDefaults() navigatorOptions {
	return navigatorOptions{
		withLogger:       hclog.NewNullLogger(),
		withOpener:       OpenURL,
		withMaxRedirects: DefaultMaxRedirects,
	}
}

func getNavigatorOpts(opt ...oidc.Option) navigatorOptions {
	opts := navigatorDefaults()
	oidc.ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	if opts.withOpener == nil {
		opts.withOpener = OpenURL
	}
	return opts
}

// WithLogger provides an optional logger for: Redirect, Loopback, Headless
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*navigatorOptions); ok {
			o.withLogger = l
		}
	}
}

// WithHTTPClient provides the http.Client Headless navigates with.  Its
// cookie jar should hold the user's session with the authorization server.
func WithHTTPClient(c *http.Client) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*navigatorOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithOpener provides an optional func Loopback opens urls with.  The
// default is OpenURL.
func WithOpener(open func(url string) error) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*navigatorOptions); ok {
			o.withOpener = open
		}
	}
}

// WithoutListener stops Loopback from listening on the redirect URI.  The
// callback must then be handed to Loopback.Callback by the application.
func WithoutListener() oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*navigatorOptions); ok {
			o.withoutListener = true
		}
	}
}

// WithMaxRedirects provides an optional number of redirects for Headless.
func WithMaxRedirects(n int) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*navigatorOptions); ok {
			o.withMaxRedirects = n
		}
	}
}
