package revocation

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// options is the set of available options for NewClient
type options struct {
	withClientSecret string
	withProviderCA   string
	withHTTPClient   *http.Client
	withRetryMax     int
	withRetryWaitMin time.Duration
	withRetryWaitMax time.Duration
	withLogger       hclog.Logger
}

func getDefaultOptions() options {
	return options{
		withRetryMax:     DefaultRetryMax,
		withRetryWaitMin: 500 * time.Millisecond,
		withRetryWaitMax: 5 * time.Second,
		withLogger:       hclog.NewNullLogger(),
	}
}

func getOpts(opt ...Option) options {
	opts := getDefaultOptions()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}

// WithClientSecret provides an optional client secret.  Requests with a
// secret authenticate with basic auth, otherwise the client id is sent in the
// form.
func WithClientSecret(secret string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withClientSecret = secret
		}
	}
}

// WithProviderCA provides an optional PEM encoded CA cert chain.
func WithProviderCA(caPEM string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withProviderCA = caPEM
		}
	}
}

// WithHTTPClient provides an optional http.Client.  It takes precedence over
// WithProviderCA.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withHTTPClient = c
		}
	}
}

// WithRetryMax provides an optional number of retries, and the wait bounds
// between them.
func WithRetryMax(retries int, waitMin, waitMax time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withRetryMax = retries
			o.withRetryWaitMin = waitMin
			o.withRetryWaitMax = waitMax
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withLogger = l
		}
	}
}
