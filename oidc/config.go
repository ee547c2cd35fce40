package oidc

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jkabonick-ft/oidc-client/oidc/internal/strutils"
)

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

const (
	// DefaultResponseType is the response_type requested by sign-in flows
	// unless overridden.
	DefaultResponseType = "code"

	// DefaultScope is the base identity scope.
	DefaultScope = "openid"

	// DefaultSilentRequestTimeout is the time a silent navigation may take
	// before it fails with ErrTimeout.
	DefaultSilentRequestTimeout = 10 * time.Second

	// DefaultCheckSessionInterval is how often the SessionMonitor queries the
	// provider for the session status.
	DefaultCheckSessionInterval = 1 * time.Minute

	// DefaultAccessTokenExpiringNotificationTime is how long before the
	// access token expires that the expiring event is raised.
	DefaultAccessTokenExpiringNotificationTime = 60 * time.Second
)

// Settings represents the configuration consumed by a UserManager.  Each
// field is a plain value; none of them carry logic of their own.
type Settings struct {
	// Authority is the issuer URL of the authorization server.
	Authority string

	// ClientID is the relying party id
	ClientID string

	// ClientSecret is the optional relying party secret
	ClientSecret ClientSecret

	// RedirectURI is the general callback URI and the fallback for the popup
	// and silent flows.
	RedirectURI string

	// PostLogoutRedirectURI is where the provider returns the user after a
	// sign-out.
	PostLogoutRedirectURI string

	// PopupRedirectURI overrides RedirectURI for popup sign-in.
	PopupRedirectURI string

	// PopupPostLogoutRedirectURI overrides PostLogoutRedirectURI for popup
	// sign-out.
	PopupPostLogoutRedirectURI string

	// PopupWindowFeatures and PopupWindowTarget are handed to the popup
	// navigator.
	PopupWindowFeatures string
	PopupWindowTarget   string

	// SilentRedirectURI overrides RedirectURI for silent sign-in and session
	// status queries.
	SilentRedirectURI string

	// SilentRequestTimeout bounds silent navigations.
	SilentRequestTimeout time.Duration

	// ResponseType is the response_type used by sign-in flows.
	ResponseType string

	// Scope is the space delimited scope used by sign-in flows.
	Scope string

	// AutomaticSilentRenew starts a SilentRenewService with the UserManager.
	AutomaticSilentRenew bool

	// ExcludeIDTokenInSilentRenew stops sending the current user's id_token
	// as an id_token_hint with silent requests.
	ExcludeIDTokenInSilentRenew bool

	// MonitorSession starts a SessionMonitor with the UserManager.
	MonitorSession bool

	// CheckSessionInterval is the SessionMonitor polling interval.
	CheckSessionInterval time.Duration

	// RevokeAccessTokenOnSignout revokes opaque access tokens before sign-out.
	RevokeAccessTokenOnSignout bool

	// AccessTokenExpiringNotificationTime is how long before expiry the
	// access token expiring event fires.
	AccessTokenExpiringNotificationTime time.Duration
}

// NewSettings composes new settings for a UserManager. Defaults are applied
// for the response type, scope, silent request timeout, check session
// interval and expiring notification time.
//
// Supported options:
//
//	WithClientSecret
//	WithRedirectURI
//	WithPostLogoutRedirectURI
//	WithPopupRedirectURI
//	WithSilentRedirectURI
//	WithScopes
//	WithSilentRequestTimeout
//	WithAutomaticSilentRenew
//	WithoutIDTokenInSilentRenew
//	WithMonitorSession
//	WithRevokeAccessTokenOnSignout
func NewSettings(authority, clientID string, opt ...Option) (*Settings, error) {
	const op = "NewSettings"
	opts := getSettingsOpts(opt...)
	s := &Settings{
		Authority:                   authority,
		ClientID:                    clientID,
		ClientSecret:                opts.withClientSecret,
		RedirectURI:                 opts.withRedirectURI,
		PostLogoutRedirectURI:       opts.withPostLogoutRedirectURI,
		PopupRedirectURI:            opts.withPopupRedirectURI,
		SilentRedirectURI:           opts.withSilentRedirectURI,
		SilentRequestTimeout:        opts.withSilentRequestTimeout,
		Scope:                       strings.Join(opts.withScopes, " "),
		AutomaticSilentRenew:        opts.withAutomaticSilentRenew,
		ExcludeIDTokenInSilentRenew: opts.withoutIDTokenInSilentRenew,
		MonitorSession:              opts.withMonitorSession,
		CheckSessionInterval:        opts.withCheckSessionInterval,
		RevokeAccessTokenOnSignout:  opts.withRevokeAccessTokenOnSignout,
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid settings: %w", op, err)
	}
	return s, nil
}

// applyDefaults fills in any zero values which have a default.
func (s *Settings) applyDefaults() {
	if s.ResponseType == "" {
		s.ResponseType = DefaultResponseType
	}
	if s.Scope == "" {
		s.Scope = DefaultScope
	}
	if s.SilentRequestTimeout == 0 {
		s.SilentRequestTimeout = DefaultSilentRequestTimeout
	}
	if s.CheckSessionInterval == 0 {
		s.CheckSessionInterval = DefaultCheckSessionInterval
	}
	if s.AccessTokenExpiringNotificationTime == 0 {
		s.AccessTokenExpiringNotificationTime = DefaultAccessTokenExpiringNotificationTime
	}
}

// Validate the settings.  Every problem found is reported, not just the
// first one.  A missing RedirectURI isn't a validation error: flows that need
// one fail with ErrConfiguration when they're invoked.
func (s *Settings) Validate() error {
	const op = "Settings.Validate"
	if s == nil {
		return fmt.Errorf("%s: settings are nil: %w", op, ErrNilParameter)
	}
	var errs *multierror.Error
	if s.ClientID == "" {
		errs = multierror.Append(errs, fmt.Errorf("client id is empty: %w", ErrInvalidParameter))
	}
	switch s.Authority {
	case "":
		errs = multierror.Append(errs, fmt.Errorf("authority is empty: %w", ErrInvalidParameter))
	default:
		u, err := url.Parse(s.Authority)
		switch {
		case err != nil:
			errs = multierror.Append(errs, fmt.Errorf("authority %q is invalid: %s: %w", s.Authority, err, ErrInvalidParameter))
		case !strutils.StrListContains([]string{"https", "http"}, u.Scheme):
			errs = multierror.Append(errs, fmt.Errorf("authority %q scheme is not http or https: %w", s.Authority, ErrInvalidParameter))
		}
	}
	for name, uri := range map[string]string{
		"redirect_uri":                   s.RedirectURI,
		"post_logout_redirect_uri":       s.PostLogoutRedirectURI,
		"popup_redirect_uri":             s.PopupRedirectURI,
		"popup_post_logout_redirect_uri": s.PopupPostLogoutRedirectURI,
		"silent_redirect_uri":            s.SilentRedirectURI,
	} {
		if uri == "" {
			continue
		}
		if u, err := url.Parse(uri); err != nil || !u.IsAbs() {
			errs = multierror.Append(errs, fmt.Errorf("%s %q is not an absolute URL: %w", name, uri, ErrInvalidParameter))
		}
	}
	if s.SilentRequestTimeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("silent request timeout is negative: %w", ErrInvalidParameter))
	}
	if s.CheckSessionInterval < 0 {
		errs = multierror.Append(errs, fmt.Errorf("check session interval is negative: %w", ErrInvalidParameter))
	}
	if s.AccessTokenExpiringNotificationTime < 0 {
		errs = multierror.Append(errs, fmt.Errorf("access token expiring notification time is negative: %w", ErrInvalidParameter))
	}
	return errs.ErrorOrNil()
}

// settingsOptions is the set of available options for NewSettings
type settingsOptions struct {
	withClientSecret               ClientSecret
	withRedirectURI                string
	withPostLogoutRedirectURI      string
	withPopupRedirectURI           string
	withSilentRedirectURI          string
	withScopes                     []string
	withSilentRequestTimeout       time.Duration
	withAutomaticSilentRenew       bool
	withoutIDTokenInSilentRenew    bool
	withMonitorSession             bool
	withCheckSessionInterval       time.Duration
	withRevokeAccessTokenOnSignout bool
}

// settingsDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func settingsDefaults() settingsOptions {
	return settingsOptions{}
}

// getSettingsOpts gets the defaults and applies the opt overrides passed in.
func getSettingsOpts(opt ...Option) settingsOptions {
	opts := settingsDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithClientSecret provides an optional client secret.
func WithClientSecret(secret ClientSecret) Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withClientSecret = secret
		}
	}
}

// WithRedirectURI provides an optional general redirect URI.
func WithRedirectURI(uri string) Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withRedirectURI = uri
		}
	}
}

// WithPostLogoutRedirectURI provides an optional post logout redirect URI.
func WithPostLogoutRedirectURI(uri string) Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withPostLogoutRedirectURI = uri
		}
	}
}

// WithPopupRedirectURI provides an optional popup redirect URI.
func WithPopupRedirectURI(uri string) Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withPopupRedirectURI = uri
		}
	}
}

// WithSilentRedirectURI provides an optional silent redirect URI.
func WithSilentRedirectURI(uri string) Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withSilentRedirectURI = uri
		}
	}
}

// WithScopes provides an optional list of scopes.  The "openid" scope should
// be part of the list.
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithSilentRequestTimeout provides an optional silent request timeout.
func WithSilentRequestTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withSilentRequestTimeout = d
		}
	}
}

// WithAutomaticSilentRenew enables the SilentRenewService.
func WithAutomaticSilentRenew() Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withAutomaticSilentRenew = true
		}
	}
}

// WithoutIDTokenInSilentRenew stops silent requests from carrying the
// current user's id_token as an id_token_hint.
func WithoutIDTokenInSilentRenew() Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withoutIDTokenInSilentRenew = true
		}
	}
}

// WithMonitorSession enables the SessionMonitor, polling at the optional
// interval (zero uses DefaultCheckSessionInterval).
func WithMonitorSession(interval time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withMonitorSession = true
			o.withCheckSessionInterval = interval
		}
	}
}

// WithRevokeAccessTokenOnSignout enables revoking opaque access tokens
// during sign-out.
func WithRevokeAccessTokenOnSignout() Option {
	return func(o interface{}) {
		if o, ok := o.(*settingsOptions); ok {
			o.withRevokeAccessTokenOnSignout = true
		}
	}
}
