package store

import (
	"time"

	"github.com/jkabonick-ft/oidc-client/oidc"
)

// DefaultKeyPrefix namespaces the keys of a RedisStore.
const DefaultKeyPrefix = "oidc-client:"

// DefaultSessionName is the name of the session used by a SessionStore.
const DefaultSessionName = "oidc-client"

// storeOptions is the set of available options for the stores
type storeOptions struct {
	withKeyPrefix   string
	withTTL         time.Duration
	withSessionName string
	withNow         func() time.Time
}

func storeDefaults() storeOptions {
	return storeOptions{
		withKeyPrefix:   DefaultKeyPrefix,
		withSessionName: DefaultSessionName,
		withNow:         time.Now,
	}
}

func getStoreOpts(opt ...oidc.Option) storeOptions {
	opts := storeDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithKeyPrefix provides an optional key prefix for: RedisStore
func WithKeyPrefix(prefix string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withKeyPrefix = prefix
		}
	}
}

// WithTTL provides an optional expiration for the values of: RedisStore and
// SQLStore.  A zero TTL keeps values until they're removed.
func WithTTL(d time.Duration) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withTTL = d
		}
	}
}

// WithSessionName provides an optional session name for: SessionStore
func WithSessionName(name string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withSessionName = name
		}
	}
}

// WithNow provides an optional func for the current time for: SQLStore
func WithNow(now func() time.Time) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok && now != nil {
			o.withNow = now
		}
	}
}
