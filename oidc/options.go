package oidc

import (
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

// WithExpirySkew provides an optional expiry skew duration for: User.Expired
func WithExpirySkew(d time.Duration) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *userOptions:
			v.withExpirySkew = d
		}
	}
}

// WithLogger provides an optional logger for: UserManager, Events,
// SilentRenewService, SessionMonitor
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *managerOptions:
			v.withLogger = l
		case *eventsOptions:
			v.withLogger = l
		case *serviceOptions:
			v.withLogger = l
		}
	}
}
