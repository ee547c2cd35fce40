package protocol

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
)

// DefaultRequestTTL is how long a pending request may wait for its response.
const DefaultRequestTTL = 10 * time.Minute

// clientOptions is the set of available options for NewClient
type clientOptions struct {
	withClientSecret oidc.ClientSecret
	withProviderCA   string
	withHTTPClient   *http.Client
	withStore        oidc.Store
	withRequestTTL   time.Duration
	withUserInfo     bool
	withLogger       hclog.Logger
	withNow          func() time.Time
}

// clientDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func clientDefaults() clientOptions {
	return clientOptions{
		withRequestTTL: DefaultRequestTTL,
		withLogger:     hclog.NewNullLogger(),
		withNow:        time.Now,
	}
}

// getClientOpts gets the defaults and applies the opt overrides passed in.
func getClientOpts(opt ...oidc.Option) clientOptions {
	opts := clientDefaults()
	oidc.ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}

// WithClientSecret provides an optional client secret, used to authenticate
// token endpoint requests.
func WithClientSecret(secret oidc.ClientSecret) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withClientSecret = secret
		}
	}
}

// WithProviderCA provides an optional PEM encoded CA cert chain used to
// verify the provider's TLS certificate.
func WithProviderCA(caPEM string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withProviderCA = caPEM
		}
	}
}

// WithHTTPClient provides an optional http.Client for provider requests.  It
// takes precedence over WithProviderCA.
func WithHTTPClient(c *http.Client) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithStore provides an optional oidc.Store for pending requests.  Requests
// started in one process and completed in another need a shared Store.  The
// default is an oidc.MemoryStore.
func WithStore(s oidc.Store) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withStore = s
		}
	}
}

// WithRequestTTL provides an optional time a pending request may wait for
// its response.
func WithRequestTTL(d time.Duration) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withRequestTTL = d
		}
	}
}

// WithUserInfo merges the provider's userinfo claims into the profile of
// authorization code responses.
func WithUserInfo() oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withUserInfo = true
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withLogger = l
		}
	}
}

// WithNow provides an optional func for the current time.
func WithNow(now func() time.Time) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok && now != nil {
			o.withNow = now
		}
	}
}
