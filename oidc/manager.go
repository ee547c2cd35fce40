package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc/revocation"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
)

// UserManager orchestrates the session lifecycle of a relying party: it
// signs users in and out through redirect, popup and silent navigations,
// persists the resulting User, revokes access tokens and keeps its Events
// subscribers informed.
//
// Each operation is a sequential chain: navigator, network or storage I/O,
// parse, persist and notify.  There's no mutual exclusion between overlapping
// operations which share the same storage key; the last write to the Store
// wins, so callers shouldn't start conflicting flows concurrently.
//
// Done() must be called for every UserManager created.
type UserManager struct {
	settings *Settings
	client   ProtocolClient
	store    Store
	events   *Events
	logger   hclog.Logger

	redirectNavigator Navigator
	popupNavigator    Navigator
	silentNavigator   Navigator

	revocationFactory RevocationClientFactory
	revocationMu      sync.Mutex
	revocation        RevocationClient
	revocationGroup   singleflight.Group

	mu             sync.Mutex
	silentRenew    *SilentRenewService
	sessionMonitor *SessionMonitor
}

// SigninArgs are the optional per call arguments of the sign-in operations
// and QuerySessionStatus.  Empty fields fall back to the UserManager's
// Settings.
type SigninArgs struct {
	// RedirectURI overrides the redirect URI resolved from Settings.
	RedirectURI string

	ResponseType string
	Scope        string
	ResponseMode string
	Prompt       string
	Display      string
	MaxAge       *int
	UILocales    []language.Tag
	IDTokenHint  string
	LoginHint    string
	ACRValues    string

	// Data is application state returned as User.State.
	Data string

	ExtraQueryParams map[string]string

	// PopupWindowFeatures and PopupWindowTarget override the popup settings.
	PopupWindowFeatures string
	PopupWindowTarget   string

	// Timeout bounds popup and silent navigations.  Silent navigations
	// default to Settings.SilentRequestTimeout.
	Timeout time.Duration
}

// SignoutArgs are the optional per call arguments of the sign-out
// operations.
type SignoutArgs struct {
	// IDTokenHint overrides the current user's id token as the hint.
	IDTokenHint string

	// PostLogoutRedirectURI overrides the URI resolved from Settings.
	PostLogoutRedirectURI string

	// Data is application state returned as SignoutResponse.State.
	Data string

	ExtraQueryParams map[string]string

	PopupWindowFeatures string
	PopupWindowTarget   string
	Timeout             time.Duration
}

// NewUserManager creates a UserManager for the settings, using the protocol
// client to build and process requests.  The settings are copied and their
// defaults applied.  When the settings enable AutomaticSilentRenew or
// MonitorSession the background services are started.
//
// Supported options:
//
//	WithStore
//	WithRedirectNavigator
//	WithPopupNavigator
//	WithSilentNavigator
//	WithEvents
//	WithRevocationClientFactory
//	WithLogger
func NewUserManager(s *Settings, client ProtocolClient, opt ...Option) (*UserManager, error) {
	const op = "NewUserManager"
	switch {
	case s == nil:
		return nil, fmt.Errorf("%s: settings are nil: %w", op, ErrNilParameter)
	case client == nil:
		return nil, fmt.Errorf("%s: protocol client is nil: %w", op, ErrNilParameter)
	}
	settings := *s
	settings.applyDefaults()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%s: settings are invalid: %w", op, err)
	}
	opts := getManagerOpts(opt...)
	logger := opts.withLogger.Named("user-manager")

	m := &UserManager{
		settings:          &settings,
		client:            client,
		store:             opts.withStore,
		events:            opts.withEvents,
		logger:            logger,
		redirectNavigator: opts.withRedirectNavigator,
		popupNavigator:    opts.withPopupNavigator,
		silentNavigator:   opts.withSilentNavigator,
		revocationFactory: opts.withRevocationClientFactory,
	}
	if m.store == nil {
		ms, err := NewMemoryStore(0)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create default store: %w", op, err)
		}
		m.store = ms
	}
	if m.events == nil {
		m.events = NewEvents(
			WithLogger(opts.withLogger),
			WithExpiringNotificationTime(settings.AccessTokenExpiringNotificationTime),
		)
	}
	if m.revocationFactory == nil {
		m.revocationFactory = NewRevocationClientFactory(&settings, revocation.WithLogger(opts.withLogger))
	}

	if settings.AutomaticSilentRenew {
		svc, err := NewSilentRenewService(m, WithLogger(opts.withLogger))
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create silent renew service: %w", op, err)
		}
		svc.Start()
		m.silentRenew = svc
	}
	if settings.MonitorSession {
		mon, err := NewSessionMonitor(m, WithLogger(opts.withLogger))
		if err != nil {
			m.Done() // stop anything already started
			return nil, fmt.Errorf("%s: unable to create session monitor: %w", op, err)
		}
		mon.Start()
		m.sessionMonitor = mon
	}
	return m, nil
}

// Done stops the UserManager's background services and access token timers.
// It must be called for every UserManager created.
func (m *UserManager) Done() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.silentRenew != nil {
		m.silentRenew.Stop()
		m.silentRenew = nil
	}
	if m.sessionMonitor != nil {
		m.sessionMonitor.Stop()
		m.sessionMonitor = nil
	}
	m.events.stopTimers()
}

// Settings returns a copy of the UserManager's settings.
func (m *UserManager) Settings() Settings {
	return *m.settings
}

// Events returns the UserManager's Events.
func (m *UserManager) Events() *Events {
	return m.events
}

// SigninRedirect starts a sign-in by navigating the user agent to the
// authorization endpoint with the redirect navigator.  The sign-in is
// completed by SigninRedirectCallback on the page receiving the redirect.
func (m *UserManager) SigninRedirect(ctx context.Context, args *SigninArgs) error {
	const op = "UserManager.SigninRedirect"
	if m.redirectNavigator == nil {
		return fmt.Errorf("%s: no redirect navigator: %w", op, ErrConfiguration)
	}
	redirectURI := resolveURI(argOrEmpty(args, func(a *SigninArgs) string { return a.RedirectURI }), m.settings.RedirectURI)
	if redirectURI == "" {
		return fmt.Errorf("%s: no redirect uri: %w", op, ErrConfiguration)
	}
	m.logger.Debug("signin redirect", "redirect_uri", redirectURI)
	p := NavigateParams{RedirectURI: redirectURI}
	h, err := m.redirectNavigator.Prepare(ctx, p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer h.Close()
	if _, err := m.signinStart(ctx, h, p, m.signinRequestArgs(args, redirectURI)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SigninRedirectCallback completes a sign-in started by SigninRedirect.  The
// url is the callback URL the user agent was redirected to.
func (m *UserManager) SigninRedirectCallback(ctx context.Context, url string) (*User, error) {
	const op = "UserManager.SigninRedirectCallback"
	u, err := m.signinEnd(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SigninPopup signs a user in with the popup navigator and returns the
// signed-in User.
func (m *UserManager) SigninPopup(ctx context.Context, args *SigninArgs) (*User, error) {
	const op = "UserManager.SigninPopup"
	redirectURI := resolveURI(
		argOrEmpty(args, func(a *SigninArgs) string { return a.RedirectURI }),
		m.settings.PopupRedirectURI,
		m.settings.RedirectURI,
	)
	if redirectURI == "" {
		return nil, fmt.Errorf("%s: no popup redirect uri: %w", op, ErrConfiguration)
	}
	if m.popupNavigator == nil {
		return nil, fmt.Errorf("%s: no popup navigator: %w", op, ErrConfiguration)
	}
	p := NavigateParams{
		RedirectURI:    redirectURI,
		WindowFeatures: resolveURI(argOrEmpty(args, func(a *SigninArgs) string { return a.PopupWindowFeatures }), m.settings.PopupWindowFeatures),
		WindowTarget:   resolveURI(argOrEmpty(args, func(a *SigninArgs) string { return a.PopupWindowTarget }), m.settings.PopupWindowTarget),
	}
	if args != nil {
		p.Timeout = args.Timeout
	}
	m.logger.Debug("signin popup", "redirect_uri", redirectURI)
	u, err := m.signin(ctx, m.popupNavigator, p, m.signinRequestArgs(args, redirectURI))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SigninPopupCallback hands the callback URL received by the popup to the
// popup navigator.
func (m *UserManager) SigninPopupCallback(ctx context.Context, url string) error {
	const op = "UserManager.SigninPopupCallback"
	if m.popupNavigator == nil {
		return fmt.Errorf("%s: no popup navigator: %w", op, ErrConfiguration)
	}
	if _, err := m.popupNavigator.Callback(ctx, url); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SigninSilent signs the user in without interaction, either with the current
// user's refresh token (when the ProtocolClient is a TokenRefresher) or with
// a prompt=none request through the silent navigator.
func (m *UserManager) SigninSilent(ctx context.Context, args *SigninArgs) (*User, error) {
	const op = "UserManager.SigninSilent"
	current, err := m.loadUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if refresher, ok := m.client.(TokenRefresher); ok && current != nil && current.RefreshToken != "" {
		u, err := m.refresh(ctx, refresher, current)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return u, nil
	}

	redirectURI := resolveURI(
		argOrEmpty(args, func(a *SigninArgs) string { return a.RedirectURI }),
		m.settings.SilentRedirectURI,
		m.settings.RedirectURI,
	)
	if redirectURI == "" {
		return nil, fmt.Errorf("%s: no silent redirect uri: %w", op, ErrConfiguration)
	}
	if m.silentNavigator == nil {
		return nil, fmt.Errorf("%s: no silent navigator: %w", op, ErrConfiguration)
	}
	reqArgs := m.signinRequestArgs(args, redirectURI)
	reqArgs.Prompt = "none"
	if reqArgs.IDTokenHint == "" && !m.settings.ExcludeIDTokenInSilentRenew && current != nil {
		reqArgs.IDTokenHint = current.IDToken
	}
	p := NavigateParams{RedirectURI: redirectURI, Timeout: m.settings.SilentRequestTimeout}
	if args != nil && args.Timeout > 0 {
		p.Timeout = args.Timeout
	}
	m.logger.Debug("signin silent", "redirect_uri", redirectURI)
	u, err := m.signin(ctx, m.silentNavigator, p, reqArgs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SigninSilentCallback hands the callback URL received by the silent surface
// to the silent navigator.
func (m *UserManager) SigninSilentCallback(ctx context.Context, url string) error {
	const op = "UserManager.SigninSilentCallback"
	if m.silentNavigator == nil {
		return fmt.Errorf("%s: no silent navigator: %w", op, ErrConfiguration)
	}
	if _, err := m.silentNavigator.Callback(ctx, url); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// QuerySessionStatus asks the provider, without interaction, whether there's
// an active session.  It returns nil (and no error) when the response doesn't
// carry both a session state and a subject.  The stored user isn't used or
// changed.
func (m *UserManager) QuerySessionStatus(ctx context.Context, args *SigninArgs) (*SessionStatus, error) {
	const op = "UserManager.QuerySessionStatus"
	redirectURI := resolveURI(
		argOrEmpty(args, func(a *SigninArgs) string { return a.RedirectURI }),
		m.settings.SilentRedirectURI,
		m.settings.RedirectURI,
	)
	if redirectURI == "" {
		return nil, fmt.Errorf("%s: no silent redirect uri: %w", op, ErrConfiguration)
	}
	if m.silentNavigator == nil {
		return nil, fmt.Errorf("%s: no silent navigator: %w", op, ErrConfiguration)
	}
	reqArgs := m.signinRequestArgs(args, redirectURI)
	reqArgs.ResponseType = "id_token"
	reqArgs.Scope = DefaultScope
	reqArgs.Prompt = "none"
	p := NavigateParams{RedirectURI: redirectURI, Timeout: m.settings.SilentRequestTimeout}
	if args != nil && args.Timeout > 0 {
		p.Timeout = args.Timeout
	}

	h, err := m.silentNavigator.Prepare(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer h.Close()
	navResp, err := m.signinStart(ctx, h, p, reqArgs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := m.client.ProcessSigninResponse(ctx, navResp.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, _ := resp.Profile["sub"].(string)
	if resp.SessionState == "" || sub == "" {
		m.logger.Debug("no remote session")
		return nil, nil
	}
	return &SessionStatus{SessionState: resp.SessionState, Sub: sub}, nil
}

// SignoutRedirect signs the user out locally and navigates the user agent to
// the end-session endpoint with the redirect navigator.  The stored user is
// removed before the request is built, so a failed remote sign-out still
// leaves the local user signed out.
func (m *UserManager) SignoutRedirect(ctx context.Context, args *SignoutArgs) error {
	const op = "UserManager.SignoutRedirect"
	if m.redirectNavigator == nil {
		return fmt.Errorf("%s: no redirect navigator: %w", op, ErrConfiguration)
	}
	postLogout := resolveURI(argOrEmpty(args, func(a *SignoutArgs) string { return a.PostLogoutRedirectURI }), m.settings.PostLogoutRedirectURI)
	m.logger.Debug("signout redirect", "post_logout_redirect_uri", postLogout)
	if _, err := m.signout(ctx, m.redirectNavigator, NavigateParams{RedirectURI: postLogout}, args, postLogout); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SignoutRedirectCallback completes a sign-out started by SignoutRedirect.
func (m *UserManager) SignoutRedirectCallback(ctx context.Context, url string) (*SignoutResponse, error) {
	const op = "UserManager.SignoutRedirectCallback"
	resp, err := m.client.ProcessSignoutResponse(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// SignoutPopup signs the user out locally and at the provider with the popup
// navigator.  A post logout redirect URI is required, since the popup
// navigator waits for the provider to redirect to it.
func (m *UserManager) SignoutPopup(ctx context.Context, args *SignoutArgs) (*SignoutResponse, error) {
	const op = "UserManager.SignoutPopup"
	postLogout := resolveURI(
		argOrEmpty(args, func(a *SignoutArgs) string { return a.PostLogoutRedirectURI }),
		m.settings.PopupPostLogoutRedirectURI,
		m.settings.PostLogoutRedirectURI,
	)
	if postLogout == "" {
		return nil, fmt.Errorf("%s: no popup post logout redirect uri: %w", op, ErrConfiguration)
	}
	if m.popupNavigator == nil {
		return nil, fmt.Errorf("%s: no popup navigator: %w", op, ErrConfiguration)
	}
	p := NavigateParams{
		RedirectURI:    postLogout,
		WindowFeatures: resolveURI(argOrEmpty(args, func(a *SignoutArgs) string { return a.PopupWindowFeatures }), m.settings.PopupWindowFeatures),
		WindowTarget:   resolveURI(argOrEmpty(args, func(a *SignoutArgs) string { return a.PopupWindowTarget }), m.settings.PopupWindowTarget),
	}
	if args != nil {
		p.Timeout = args.Timeout
	}
	m.logger.Debug("signout popup", "post_logout_redirect_uri", postLogout)
	navResp, err := m.signout(ctx, m.popupNavigator, p, args, postLogout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := m.client.ProcessSignoutResponse(ctx, navResp.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// SignoutPopupCallback hands the callback URL received by the popup to the
// popup navigator.
func (m *UserManager) SignoutPopupCallback(ctx context.Context, url string) error {
	const op = "UserManager.SignoutPopupCallback"
	if m.popupNavigator == nil {
		return fmt.Errorf("%s: no popup navigator: %w", op, ErrConfiguration)
	}
	if _, err := m.popupNavigator.Callback(ctx, url); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RevokeAccessToken revokes the current user's access token and clears the
// access token fields of the stored user, keeping its identity.  It's a
// no-op when there's no current user.  Self-contained (dot-delimited) access
// tokens are cleared without a revocation request.
func (m *UserManager) RevokeAccessToken(ctx context.Context) error {
	const op = "UserManager.RevokeAccessToken"
	u, err := m.loadUser(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if u == nil {
		return nil
	}
	if err := m.revokeInternal(ctx, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	u.clearAccessToken()
	if err := m.StoreUser(ctx, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.events.Load(u, false)
	return nil
}

// GetUser returns the stored user, or nil when there isn't one.  A found user
// is loaded into Events (arming its access token timers).
func (m *UserManager) GetUser(ctx context.Context) (*User, error) {
	const op = "UserManager.GetUser"
	u, err := m.loadUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u != nil {
		m.events.Load(u, true)
	}
	return u, nil
}

// StoreUser persists the user under the UserManager's storage key.  A nil
// user removes the stored user.
func (m *UserManager) StoreUser(ctx context.Context, u *User) error {
	const op = "UserManager.StoreUser"
	key := m.userStoreKey()
	if u == nil {
		if err := m.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("%s: unable to remove user: %w", op, err)
		}
		return nil
	}
	v, err := u.toStorageString()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.store.Set(ctx, key, v); err != nil {
		return fmt.Errorf("%s: unable to store user: %w", op, err)
	}
	return nil
}

// RemoveUser removes the stored user and raises the user unloaded event.  It
// may be called when there's no stored user.
func (m *UserManager) RemoveUser(ctx context.Context) error {
	const op = "UserManager.RemoveUser"
	if err := m.StoreUser(ctx, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.events.Unload()
	return nil
}

func (m *UserManager) loadUser(ctx context.Context) (*User, error) {
	const op = "UserManager.loadUser"
	v, err := m.store.Get(ctx, m.userStoreKey())
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%s: unable to read user: %w", op, err)
	}
	u, err := userFromStorageString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// userStoreKey is the storage key of the user for the authority and client
// id.  Both parts are escaped, so an authority containing ":" can't collide
// with another (authority, client id) pair.
func (m *UserManager) userStoreKey() string {
	return "user:" + url.QueryEscape(m.settings.Authority) + ":" + url.QueryEscape(m.settings.ClientID)
}

// signin runs a complete sign-in through one navigator.
func (m *UserManager) signin(ctx context.Context, nav Navigator, p NavigateParams, args SigninRequestArgs) (*User, error) {
	h, err := nav.Prepare(ctx, p)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	navResp, err := m.signinStart(ctx, h, p, args)
	if err != nil {
		return nil, err
	}
	return m.signinEnd(ctx, navResp.URL)
}

func (m *UserManager) signinStart(ctx context.Context, h NavigatorHandle, p NavigateParams, args SigninRequestArgs) (*NavigateResponse, error) {
	req, err := m.client.CreateSigninRequest(ctx, args)
	if err != nil {
		return nil, err
	}
	p.URL = req.URL
	return h.Navigate(ctx, p)
}

func (m *UserManager) signinEnd(ctx context.Context, url string) (*User, error) {
	resp, err := m.client.ProcessSigninResponse(ctx, url)
	if err != nil {
		return nil, err
	}
	u, err := NewUser(resp)
	if err != nil {
		return nil, err
	}
	if err := m.StoreUser(ctx, u); err != nil {
		return nil, err
	}
	m.logger.Debug("user signed in", "sub", u.Subject())
	m.events.Load(u, false)
	return u, nil
}

// refresh renews the current user's tokens with its refresh token.  Values
// missing from the refresh response are kept from the current user.
func (m *UserManager) refresh(ctx context.Context, r TokenRefresher, current *User) (*User, error) {
	resp, err := r.RefreshToken(ctx, current)
	if err != nil {
		return nil, err
	}
	u, err := NewUser(resp)
	if err != nil {
		return nil, err
	}
	if len(u.Profile) == 0 {
		u.Profile = current.Profile
	}
	if u.IDToken == "" {
		u.IDToken = current.IDToken
	}
	if u.RefreshToken == "" {
		u.RefreshToken = current.RefreshToken
	}
	if u.SessionState == "" {
		u.SessionState = current.SessionState
	}
	if u.Scope == "" {
		u.Scope = current.Scope
	}
	u.State = current.State
	if err := m.StoreUser(ctx, u); err != nil {
		return nil, err
	}
	m.logger.Debug("user tokens refreshed", "sub", u.Subject())
	m.events.Load(u, false)
	return u, nil
}

// signout runs the sign-out start half: the current user is revoked (when
// configured), removed and unloaded before the end-session request is built
// and navigated to.
func (m *UserManager) signout(ctx context.Context, nav Navigator, p NavigateParams, args *SignoutArgs, postLogout string) (*NavigateResponse, error) {
	h, err := nav.Prepare(ctx, p)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	u, err := m.loadUser(ctx)
	if err != nil {
		return nil, err
	}
	if m.settings.RevokeAccessTokenOnSignout {
		if err := m.revokeInternal(ctx, u); err != nil {
			return nil, err
		}
	}
	reqArgs := SignoutRequestArgs{PostLogoutRedirectURI: postLogout}
	if args != nil {
		reqArgs.IDTokenHint = args.IDTokenHint
		reqArgs.Data = args.Data
		reqArgs.ExtraQueryParams = args.ExtraQueryParams
	}
	if reqArgs.IDTokenHint == "" && u != nil {
		reqArgs.IDTokenHint = u.IDToken
	}
	if err := m.RemoveUser(ctx); err != nil {
		return nil, err
	}

	req, err := m.client.CreateSignoutRequest(ctx, reqArgs)
	if err != nil {
		return nil, err
	}
	p.URL = req.URL
	return h.Navigate(ctx, p)
}

func (m *UserManager) signinRequestArgs(a *SigninArgs, redirectURI string) SigninRequestArgs {
	r := SigninRequestArgs{
		RedirectURI:  redirectURI,
		ResponseType: m.settings.ResponseType,
		Scope:        m.settings.Scope,
	}
	if a == nil {
		return r
	}
	if a.ResponseType != "" {
		r.ResponseType = a.ResponseType
	}
	if a.Scope != "" {
		r.Scope = a.Scope
	}
	r.ResponseMode = a.ResponseMode
	r.Prompt = a.Prompt
	r.Display = a.Display
	r.MaxAge = a.MaxAge
	r.UILocales = a.UILocales
	r.IDTokenHint = a.IDTokenHint
	r.LoginHint = a.LoginHint
	r.ACRValues = a.ACRValues
	r.Data = a.Data
	r.ExtraQueryParams = a.ExtraQueryParams
	return r
}

// resolveURI returns the first non-empty value.
func resolveURI(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func argOrEmpty[T any](args *T, f func(*T) string) string {
	if args == nil {
		return ""
	}
	return f(args)
}

// managerOptions is the set of available options for NewUserManager
type managerOptions struct {
	withStore                   Store
	withRedirectNavigator       Navigator
	withPopupNavigator          Navigator
	withSilentNavigator         Navigator
	withEvents                  *Events
	withRevocationClientFactory RevocationClientFactory
	withLogger                  hclog.Logger
}

// managerDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func managerDefaults() managerOptions {
	return managerOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

// getManagerOpts gets the defaults and applies the opt overrides passed in.
func getManagerOpts(opt ...Option) managerOptions {
	opts := managerDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}

// WithStore provides an optional Store for the user.  The default is a
// MemoryStore.
func WithStore(s Store) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withStore = s
		}
	}
}

// WithRedirectNavigator provides the Navigator used by the redirect flows.
func WithRedirectNavigator(n Navigator) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withRedirectNavigator = n
		}
	}
}

// WithPopupNavigator provides the Navigator used by the popup flows.
func WithPopupNavigator(n Navigator) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withPopupNavigator = n
		}
	}
}

// WithSilentNavigator provides the Navigator used by the silent flow and
// QuerySessionStatus.
func WithSilentNavigator(n Navigator) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withSilentNavigator = n
		}
	}
}

// WithEvents provides an optional Events, for subscribing before the
// background services start.
func WithEvents(e *Events) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withEvents = e
		}
	}
}

// WithRevocationClientFactory provides an optional RevocationClientFactory.
// The default builds a *revocation.Client.
func WithRevocationClientFactory(f RevocationClientFactory) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withRevocationClientFactory = f
		}
	}
}
