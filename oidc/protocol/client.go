package protocol

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/go-querystring/query"
	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
	"github.com/jkabonick-ft/oidc-client/oidc/internal/strutils"
	sdkhttp "github.com/jkabonick-ft/oidc-client/sdk/http"
	"github.com/jkabonick-ft/oidc-client/sdk/id"
	"golang.org/x/oauth2"
)

// Client is an oidc.ProtocolClient (and oidc.TokenRefresher) for an OpenID
// provider.  It discovers the provider on first use, builds authorization
// and end-session requests, exchanges authorization codes (with PKCE) and
// verifies id_tokens.
//
// Pending request state (state id, nonce, PKCE verifier and application
// data) is kept in an oidc.Store until the response consumes it.
type Client struct {
	authority    string
	clientID     string
	clientSecret oidc.ClientSecret
	httpClient   *http.Client
	store        oidc.Store
	requestTTL   time.Duration
	userInfo     bool
	logger       hclog.Logger
	now          func() time.Time

	mu       sync.Mutex
	provider *gooidc.Provider
	metadata providerMetadata
}

// providerMetadata are the discovery values go-oidc doesn't expose.
type providerMetadata struct {
	EndSessionEndpoint string `json:"end_session_endpoint"`
	RevocationEndpoint string `json:"revocation_endpoint"`
}

// ensure that Client implements the oidc.ProtocolClient and
// oidc.TokenRefresher interfaces
var (
	_ oidc.ProtocolClient = (*Client)(nil)
	_ oidc.TokenRefresher = (*Client)(nil)
)

// NewClient creates a Client for the provider at authority (its issuer).  No
// requests are made until the Client is used.
//
// Supported options:
//
//	WithClientSecret
//	WithProviderCA
//	WithHTTPClient
//	WithStore
//	WithRequestTTL
//	WithUserInfo
//	WithLogger
//	WithNow
func NewClient(authority, clientID string, opt ...oidc.Option) (*Client, error) {
	const op = "protocol.NewClient"
	switch {
	case authority == "":
		return nil, fmt.Errorf("%s: authority is empty: %w", op, oidc.ErrInvalidParameter)
	case clientID == "":
		return nil, fmt.Errorf("%s: client id is empty: %w", op, oidc.ErrInvalidParameter)
	}
	opts := getClientOpts(opt...)
	if opts.withRequestTTL <= 0 {
		return nil, fmt.Errorf("%s: request ttl must be positive: %w", op, oidc.ErrInvalidParameter)
	}
	c := &Client{
		authority:    authority,
		clientID:     clientID,
		clientSecret: opts.withClientSecret,
		httpClient:   opts.withHTTPClient,
		store:        opts.withStore,
		requestTTL:   opts.withRequestTTL,
		userInfo:     opts.withUserInfo,
		logger:       opts.withLogger.Named("protocol"),
		now:          opts.withNow,
	}
	if c.httpClient == nil {
		hc, err := sdkhttp.NewClient(opts.withProviderCA)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %s: %w", op, err, oidc.ErrInvalidCACert)
		}
		c.httpClient = hc
	}
	if c.store == nil {
		s, err := oidc.NewMemoryStore(0)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create request store: %w", op, err)
		}
		c.store = s
	}
	return c, nil
}

// NewClientFromSettings creates a Client for the settings' authority, client
// id and client secret.
func NewClientFromSettings(s *oidc.Settings, opt ...oidc.Option) (*Client, error) {
	const op = "protocol.NewClientFromSettings"
	if s == nil {
		return nil, fmt.Errorf("%s: settings are nil: %w", op, oidc.ErrNilParameter)
	}
	opts := append([]oidc.Option{WithClientSecret(s.ClientSecret)}, opt...)
	c, err := NewClient(s.Authority, s.ClientID, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// HTTPClient returns the http.Client used for provider requests.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Extra query parameters may not replace the ones which tie a response to its
// pending request.
var (
	reservedSigninParams = []string{
		"client_id", "redirect_uri", "response_type", "scope", "state", "nonce",
		"code_challenge", "code_challenge_method",
	}
	reservedSignoutParams = []string{"client_id", "id_token_hint", "post_logout_redirect_uri", "state"}
)

func checkExtraParams(extra map[string]string, reserved []string) error {
	for k := range extra {
		if strutils.StrListContains(reserved, k) {
			return fmt.Errorf("extra query parameter %q is reserved: %w", k, oidc.ErrInvalidParameter)
		}
	}
	return nil
}

// CreateSigninRequest implements the oidc.ProtocolClient interface.  Requests
// with a "code" response type use PKCE (S256).
func (c *Client) CreateSigninRequest(ctx context.Context, args oidc.SigninRequestArgs) (*oidc.SigninRequest, error) {
	const op = "Client.CreateSigninRequest"
	switch {
	case args.RedirectURI == "":
		return nil, fmt.Errorf("%s: redirect uri is empty: %w", op, oidc.ErrInvalidParameter)
	case args.ResponseType == "":
		return nil, fmt.Errorf("%s: response type is empty: %w", op, oidc.ErrInvalidParameter)
	}
	if err := checkExtraParams(args.ExtraQueryParams, reservedSigninParams); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p, _, err := c.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stateID, err := id.New("st")
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate state: %w", op, oidc.ErrIdGeneratorFailed)
	}
	nonce, err := id.New("n")
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate nonce: %w", op, oidc.ErrIdGeneratorFailed)
	}
	scopes := strutils.Scopes(args.Scope, gooidc.ScopeOpenID)
	req := &pendingRequest{
		ID:           stateID,
		Nonce:        nonce,
		RedirectURI:  args.RedirectURI,
		ResponseType: args.ResponseType,
		Scope:        strings.Join(scopes, " "),
		Data:         args.Data,
		ExpiresAt:    c.now().Add(c.requestTTL).Unix(),
	}

	authOpts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("response_type", args.ResponseType),
	}
	if strutils.StrListContains(strings.Fields(args.ResponseType), "code") {
		req.CodeVerifier = oauth2.GenerateVerifier()
		authOpts = append(authOpts, oauth2.S256ChallengeOption(req.CodeVerifier))
	}
	params, err := query.Values(authParams{
		Nonce:        nonce,
		ResponseMode: args.ResponseMode,
		Prompt:       args.Prompt,
		Display:      args.Display,
		MaxAge:       args.MaxAge,
		UILocales:    uiLocales(args),
		IDTokenHint:  args.IDTokenHint,
		LoginHint:    args.LoginHint,
		ACRValues:    args.ACRValues,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: unable to encode request parameters: %w", op, err)
	}
	for k, v := range args.ExtraQueryParams {
		params.Set(k, v)
	}
	for k := range params {
		authOpts = append(authOpts, oauth2.SetAuthURLParam(k, params.Get(k)))
	}

	if err := c.saveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u := c.oauth2Config(p, args.RedirectURI, scopes).AuthCodeURL(stateID, authOpts...)
	c.logger.Debug("created signin request", "response_type", args.ResponseType, "redirect_uri", args.RedirectURI)
	return &oidc.SigninRequest{URL: u, State: stateID}, nil
}

// ProcessSigninResponse implements the oidc.ProtocolClient interface.  The
// response parameters are read from the URL's query and fragment.
func (c *Client) ProcessSigninResponse(ctx context.Context, responseURL string) (*oidc.SigninResponse, error) {
	const op = "Client.ProcessSigninResponse"
	params, err := responseParams(responseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	state := params.Get("state")
	if state == "" {
		return nil, fmt.Errorf("%s: response has no state: %w: %w", op, oidc.ErrProtocol, oidc.ErrResponseStateInvalid)
	}
	req, err := c.consumeRequest(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.Signout {
		return nil, fmt.Errorf("%s: state belongs to a signout request: %w: %w", op, oidc.ErrProtocol, oidc.ErrResponseStateInvalid)
	}
	if errResp := errorResponse(params, req); errResp != nil {
		return nil, fmt.Errorf("%s: %w", op, errResp)
	}
	p, _, err := c.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := &oidc.SigninResponse{
		SessionState: params.Get("session_state"),
		Scope:        req.Scope,
		State:        req.Data,
	}
	switch {
	case params.Get("code") != "":
		if err := c.exchange(ctx, p, req, params.Get("code"), resp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case params.Get("id_token") != "":
		resp.IDToken = params.Get("id_token")
		resp.AccessToken = params.Get("access_token")
		resp.TokenType = params.Get("token_type")
		if s := params.Get("scope"); s != "" {
			resp.Scope = s
		}
		if ei := params.Get("expires_in"); ei != "" {
			secs, err := strconv.ParseInt(ei, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid expires_in %q: %w", op, ei, oidc.ErrProtocol)
			}
			resp.ExpiresAt = c.now().Add(time.Duration(secs) * time.Second).Unix()
		}
		idToken, err := c.verifyIDToken(ctx, p, resp.IDToken, req.Nonce)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := verifyAccessTokenHash(idToken, resp.AccessToken); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := idToken.Claims(&resp.Profile); err != nil {
			return nil, fmt.Errorf("%s: unable to read id_token claims: %w", op, err)
		}
	default:
		return nil, fmt.Errorf("%s: response has neither a code nor an id_token: %w", op, oidc.ErrProtocol)
	}
	c.logger.Debug("processed signin response", "sub", resp.Profile["sub"])
	return resp, nil
}

// CreateSignoutRequest implements the oidc.ProtocolClient interface.  A
// pending request is only kept when there's a post logout redirect URI for
// the provider to return to.
func (c *Client) CreateSignoutRequest(ctx context.Context, args oidc.SignoutRequestArgs) (*oidc.SignoutRequest, error) {
	const op = "Client.CreateSignoutRequest"
	if err := checkExtraParams(args.ExtraQueryParams, reservedSignoutParams); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, md, err := c.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if md.EndSessionEndpoint == "" {
		return nil, fmt.Errorf("%s: provider has no end session endpoint: %w", op, oidc.ErrUnsupported)
	}
	endpoint, err := url.Parse(md.EndSessionEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid end session endpoint: %w", op, err)
	}

	sp := signoutParams{
		IDTokenHint:           args.IDTokenHint,
		PostLogoutRedirectURI: args.PostLogoutRedirectURI,
	}
	if args.IDTokenHint == "" {
		sp.ClientID = c.clientID
	}
	if args.PostLogoutRedirectURI != "" {
		stateID, err := id.New("st")
		if err != nil {
			return nil, fmt.Errorf("%s: unable to generate state: %w", op, oidc.ErrIdGeneratorFailed)
		}
		sp.State = stateID
		req := &pendingRequest{
			ID:          stateID,
			RedirectURI: args.PostLogoutRedirectURI,
			Data:        args.Data,
			Signout:     true,
			ExpiresAt:   c.now().Add(c.requestTTL).Unix(),
		}
		if err := c.saveRequest(ctx, req); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	params, err := query.Values(sp)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to encode request parameters: %w", op, err)
	}
	q := endpoint.Query()
	for k := range params {
		q.Set(k, params.Get(k))
	}
	for k, v := range args.ExtraQueryParams {
		q.Set(k, v)
	}
	endpoint.RawQuery = q.Encode()
	c.logger.Debug("created signout request", "post_logout_redirect_uri", args.PostLogoutRedirectURI)
	return &oidc.SignoutRequest{URL: endpoint.String(), State: sp.State}, nil
}

// ProcessSignoutResponse implements the oidc.ProtocolClient interface.  A
// response without a state has nothing to validate and returns an empty
// SignoutResponse.
func (c *Client) ProcessSignoutResponse(ctx context.Context, responseURL string) (*oidc.SignoutResponse, error) {
	const op = "Client.ProcessSignoutResponse"
	params, err := responseParams(responseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	state := params.Get("state")
	if state == "" {
		if errResp := errorResponse(params, nil); errResp != nil {
			return nil, fmt.Errorf("%s: %w", op, errResp)
		}
		return &oidc.SignoutResponse{}, nil
	}
	req, err := c.consumeRequest(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !req.Signout {
		return nil, fmt.Errorf("%s: state belongs to a signin request: %w: %w", op, oidc.ErrProtocol, oidc.ErrResponseStateInvalid)
	}
	if errResp := errorResponse(params, req); errResp != nil {
		return nil, fmt.Errorf("%s: %w", op, errResp)
	}
	return &oidc.SignoutResponse{State: req.Data}, nil
}

// RevocationEndpoint implements the oidc.ProtocolClient interface.
func (c *Client) RevocationEndpoint(ctx context.Context) (string, error) {
	const op = "Client.RevocationEndpoint"
	_, md, err := c.discover(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return md.RevocationEndpoint, nil
}

// RefreshToken implements the oidc.TokenRefresher interface with the
// refresh_token grant.  The returned response only has a profile when the
// provider issued a new id_token.
func (c *Client) RefreshToken(ctx context.Context, u *oidc.User) (*oidc.SigninResponse, error) {
	const op = "Client.RefreshToken"
	switch {
	case u == nil:
		return nil, fmt.Errorf("%s: user is nil: %w", op, oidc.ErrNilParameter)
	case u.RefreshToken == "":
		return nil, fmt.Errorf("%s: user has no refresh token: %w", op, oidc.ErrInvalidParameter)
	}
	p, _, err := c.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	oidcCtx := sdkhttp.OidcClientContext(ctx, c.httpClient)
	ts := c.oauth2Config(p, "", u.Scopes()).TokenSource(oidcCtx, &oauth2.Token{
		RefreshToken: u.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	t, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to refresh token: %w", op, tokenError(err))
	}
	resp := &oidc.SigninResponse{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	if !t.Expiry.IsZero() {
		resp.ExpiresAt = t.Expiry.Unix()
	}
	if s, ok := t.Extra("scope").(string); ok {
		resp.Scope = s
	}
	if raw, ok := t.Extra("id_token").(string); ok && raw != "" {
		idToken, err := c.verifyIDToken(ctx, p, raw, "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if sub := u.Subject(); sub != "" && idToken.Subject != sub {
			return nil, fmt.Errorf("%s: refreshed id_token subject doesn't match the user: %w", op, oidc.ErrIDTokenVerificationFailed)
		}
		resp.IDToken = raw
		if err := idToken.Claims(&resp.Profile); err != nil {
			return nil, fmt.Errorf("%s: unable to read id_token claims: %w", op, err)
		}
	}
	c.logger.Debug("refreshed tokens", "sub", u.Subject())
	return resp, nil
}

// discover returns the provider, discovering it on first use.  A failed
// discovery isn't cached.
func (c *Client) discover(ctx context.Context) (*gooidc.Provider, providerMetadata, error) {
	const op = "Client.discover"
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		return c.provider, c.metadata, nil
	}
	p, err := gooidc.NewProvider(sdkhttp.OidcClientContext(ctx, c.httpClient), c.authority)
	if err != nil {
		return nil, providerMetadata{}, fmt.Errorf("%s: unable to discover provider: %w", op, err)
	}
	var md providerMetadata
	if err := p.Claims(&md); err != nil {
		return nil, providerMetadata{}, fmt.Errorf("%s: unable to read provider metadata: %w", op, err)
	}
	c.provider, c.metadata = p, md
	c.logger.Debug("discovered provider", "issuer", c.authority)
	return p, md, nil
}

func (c *Client) oauth2Config(p *gooidc.Provider, redirectURI string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: string(c.clientSecret),
		RedirectURL:  redirectURI,
		Endpoint:     p.Endpoint(),
		Scopes:       scopes,
	}
}

// exchange the authorization code for tokens and fill in the response.
func (c *Client) exchange(ctx context.Context, p *gooidc.Provider, req *pendingRequest, code string, resp *oidc.SigninResponse) error {
	const op = "Client.exchange"
	oidcCtx := sdkhttp.OidcClientContext(ctx, c.httpClient)
	var opts []oauth2.AuthCodeOption
	if req.CodeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(req.CodeVerifier))
	}
	t, err := c.oauth2Config(p, req.RedirectURI, strings.Fields(req.Scope)).Exchange(oidcCtx, code, opts...)
	if err != nil {
		return fmt.Errorf("%s: unable to exchange auth code with provider: %w", op, tokenError(err))
	}
	rawIDToken, ok := t.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return fmt.Errorf("%s: id_token is missing from auth code exchange: %w: %w", op, oidc.ErrProtocol, oidc.ErrMissingIDToken)
	}
	idToken, err := c.verifyIDToken(ctx, p, rawIDToken, req.Nonce)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := verifyAccessTokenHash(idToken, t.AccessToken); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := idToken.Claims(&resp.Profile); err != nil {
		return fmt.Errorf("%s: unable to read id_token claims: %w", op, err)
	}

	resp.IDToken = rawIDToken
	resp.AccessToken = t.AccessToken
	resp.TokenType = t.TokenType
	resp.RefreshToken = t.RefreshToken
	if !t.Expiry.IsZero() {
		resp.ExpiresAt = t.Expiry.Unix()
	}
	if s, ok := t.Extra("scope").(string); ok && s != "" {
		resp.Scope = s
	}

	if c.userInfo && p.UserInfoEndpoint() != "" {
		info, err := p.UserInfo(oidcCtx, oauth2.StaticTokenSource(t))
		if err != nil {
			return fmt.Errorf("%s: provider UserInfo request failed: %w", op, err)
		}
		if info.Subject != idToken.Subject {
			return fmt.Errorf("%s: userinfo subject doesn't match the id_token: %w", op, oidc.ErrProtocol)
		}
		var claims map[string]interface{}
		if err := info.Claims(&claims); err != nil {
			return fmt.Errorf("%s: failed to get UserInfo claims: %w", op, err)
		}
		for k, v := range claims {
			if _, exists := resp.Profile[k]; !exists {
				resp.Profile[k] = v
			}
		}
	}
	return nil
}

// verifyIDToken verifies the id_token's signature, issuer, audience and
// expiry, and its nonce when one is expected.
func (c *Client) verifyIDToken(ctx context.Context, p *gooidc.Provider, raw, nonce string) (*gooidc.IDToken, error) {
	const op = "Client.verifyIDToken"
	v := p.Verifier(&gooidc.Config{
		ClientID: c.clientID,
		Now:      c.now,
	})
	idToken, err := v.Verify(sdkhttp.OidcClientContext(ctx, c.httpClient), raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w: %w", op, err, oidc.ErrProtocol, oidc.ErrIDTokenVerificationFailed)
	}
	if nonce != "" && idToken.Nonce != nonce {
		return nil, fmt.Errorf("%s: invalid id_token nonce: %w: %w", op, oidc.ErrProtocol, oidc.ErrInvalidNonce)
	}
	return idToken, nil
}

func verifyAccessTokenHash(idToken *gooidc.IDToken, accessToken string) error {
	const op = "verifyAccessTokenHash"
	if accessToken == "" || idToken.AccessTokenHash == "" {
		return nil
	}
	if err := idToken.VerifyAccessToken(accessToken); err != nil {
		return fmt.Errorf("%s: %s: %w: %w", op, err, oidc.ErrProtocol, oidc.ErrIDTokenVerificationFailed)
	}
	return nil
}

// responseParams returns the parameters of a callback URL, merging its query
// and fragment.  Fragment values take precedence.
func responseParams(responseURL string) (url.Values, error) {
	const op = "responseParams"
	u, err := url.Parse(responseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid response url: %s: %w", op, err, oidc.ErrProtocol)
	}
	params := u.Query()
	if u.Fragment != "" {
		frag, err := url.ParseQuery(u.Fragment)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid response fragment: %s: %w", op, err, oidc.ErrProtocol)
		}
		for k, v := range frag {
			params[k] = v
		}
	}
	return params, nil
}

// errorResponse returns the response's error, or nil.
func errorResponse(params url.Values, req *pendingRequest) *oidc.ErrorResponse {
	if params.Get("error") == "" {
		return nil
	}
	e := &oidc.ErrorResponse{
		Code:        params.Get("error"),
		Description: params.Get("error_description"),
		URI:         params.Get("error_uri"),
	}
	if req != nil {
		e.State = req.Data
	}
	return e
}

// tokenError converts an oauth2 token endpoint error into an
// *oidc.ErrorResponse, so it's an oidc.ErrProtocol error.
func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode != "" {
		return &oidc.ErrorResponse{
			Code:        re.ErrorCode,
			Description: re.ErrorDescription,
			URI:         re.ErrorURI,
		}
	}
	return err
}

// authParams are the optional authorization request parameters.
type authParams struct {
	Nonce        string `url:"nonce,omitempty"`
	ResponseMode string `url:"response_mode,omitempty"`
	Prompt       string `url:"prompt,omitempty"`
	Display      string `url:"display,omitempty"`
	MaxAge       *int   `url:"max_age,omitempty"`
	UILocales    string `url:"ui_locales,omitempty"`
	IDTokenHint  string `url:"id_token_hint,omitempty"`
	LoginHint    string `url:"login_hint,omitempty"`
	ACRValues    string `url:"acr_values,omitempty"`
}

// signoutParams are the end-session request parameters.
type signoutParams struct {
	IDTokenHint           string `url:"id_token_hint,omitempty"`
	ClientID              string `url:"client_id,omitempty"`
	PostLogoutRedirectURI string `url:"post_logout_redirect_uri,omitempty"`
	State                 string `url:"state,omitempty"`
}

func uiLocales(args oidc.SigninRequestArgs) string {
	tags := make([]string, 0, len(args.UILocales))
	for _, t := range args.UILocales {
		tags = append(tags, t.String())
	}
	return strings.Join(tags, " ")
}
