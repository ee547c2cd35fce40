package oidc

import (
	"bytes"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/jkabonick-ft/oidc-client/oidc/internal/strutils"
	"github.com/jkabonick-ft/oidc-client/sdk/id"
	"github.com/stretchr/testify/require"
)

// TestProvider is a local TLS server which acts as an OpenID provider for
// tests.  It supports discovery, the authorization endpoint (code and
// id_token responses, prompt=none), the token endpoint (authorization_code
// with PKCE and refresh_token grants), userinfo, token revocation and
// end-session.
//
// The provider keeps a single session: an interactive authorization request
// signs the test subject in and an end-session request signs it out.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	jwks            *jose.JSONWebKeySet
	keyID           string
	ecdsaPublicKey  string
	ecdsaPrivateKey string

	mu                  sync.Mutex
	clientID            string
	clientSecret        string
	allowedRedirectURIs []string
	replySubject        string
	replyUserinfo       map[string]interface{}
	customClaims        map[string]interface{}
	sessionState        string
	signedIn            bool
	accessTokenLifetime time.Duration
	jwtAccessTokens     bool
	omitIDToken         bool
	disableUserInfo     bool
	disableRevocation   bool
	pendingCodes        map[string]testPendingCode
	refreshTokens       map[string]bool
	revokedTokens       []string
	endSessionRequests  []url.Values

	t *testing.T
}

type testPendingCode struct {
	nonce               string
	redirectURI         string
	codeChallenge       string
	codeChallengeMethod string
}

// StartTestProvider creates and starts a disposable TestProvider, which is
// stopped when the test completes.
//
// Supported options:
//
//	WithTestPort
func StartTestProvider(t *testing.T, opt ...Option) *TestProvider {
	t.Helper()
	require := require.New(t)
	opts := getTestProviderOpts(opt...)

	p := &TestProvider{
		allowedRedirectURIs: []string{"https://example.com/callback"},
		replySubject:        "alice@example.com",
		replyUserinfo: map[string]interface{}{
			"color":       "red",
			"temperature": "76",
			"flavor":      "umami",
		},
		clientID:            "test-client-id",
		sessionState:        "test-session-state",
		accessTokenLifetime: 5 * time.Minute,
		pendingCodes:        map[string]testPendingCode{},
		refreshTokens:       map[string]bool{},
		t:                   t,
	}
	p.ecdsaPublicKey, p.ecdsaPrivateKey = TestGenerateKeys(t)
	p.keyID = "test-key"
	p.jwks = testJWKS(t, p.ecdsaPublicKey, p.keyID)

	if opts.withPort != 0 {
		p.httpServer = httptestNewUnstartedServerWithPort(t, p, opts.withPort)
	} else {
		p.httpServer = httptest.NewUnstartedServer(p)
	}
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the base URL (and issuer) of the test provider.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// SigningKeys returns the test provider's pem-encoded keys used to sign JWTs.
func (p *TestProvider) SigningKeys() (pub, priv string) {
	return p.ecdsaPublicKey, p.ecdsaPrivateKey
}

// HTTPClient returns an http.Client which trusts the test provider and keeps
// cookies.
func (p *TestProvider) HTTPClient() *http.Client {
	p.t.Helper()
	pool := x509.NewCertPool()
	require.True(p.t, pool.AppendCertsFromPEM([]byte(p.caCert)))
	tr := cleanhttp.DefaultPooledTransport()
	tr.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	jar, err := cookiejar.New(nil)
	require.NoError(p.t, err)
	return &http.Client{Transport: tr, Jar: jar}
}

// SetClientCreds configures the client id and secret the provider expects.
// An empty secret allows public clients.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetAllowedRedirectURIs configures the allowed redirect URIs.  If not
// configured "https://example.com/callback" is allowed.
func (p *TestProvider) SetAllowedRedirectURIs(uris []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetSubject configures the subject of issued tokens.
func (p *TestProvider) SetSubject(sub string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replySubject = sub
}

// SetCustomClaims lets you set claims to return in issued id_tokens.
func (p *TestProvider) SetCustomClaims(customClaims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = customClaims
}

// SetUserInfoReply configures the userinfo endpoint's claims.
func (p *TestProvider) SetUserInfoReply(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyUserinfo = claims
}

// SetSessionState configures the session_state returned with authorization
// responses.
func (p *TestProvider) SetSessionState(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessionState = s
}

// SetSignedIn sets whether the provider has an active session, which is
// required for prompt=none requests to succeed.
func (p *TestProvider) SetSignedIn(signedIn bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signedIn = signedIn
}

// SignedIn reports whether the provider has an active session.
func (p *TestProvider) SignedIn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signedIn
}

// SetAccessTokenLifetime configures the expires_in of issued access tokens.
func (p *TestProvider) SetAccessTokenLifetime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accessTokenLifetime = d
}

// SetJWTAccessTokens makes the provider issue self-contained (JWT) access
// tokens instead of opaque ones.
func (p *TestProvider) SetJWTAccessTokens(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jwtAccessTokens = enabled
}

// OmitIDTokens forces an error state where the /token endpoint does not return
// id_token.
func (p *TestProvider) OmitIDTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = true
}

// DisableUserInfo makes the userinfo endpoint return 404 and omits it from the
// discovery config.
func (p *TestProvider) DisableUserInfo() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableUserInfo = true
}

// DisableRevocation makes the revocation endpoint return 404 and omits it
// from the discovery config.
func (p *TestProvider) DisableRevocation() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableRevocation = true
}

// RevokedTokens returns the tokens revoked so far.
func (p *TestProvider) RevokedTokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.revokedTokens...)
}

// EndSessionRequests returns the query of every end-session request so far.
func (p *TestProvider) EndSessionRequests() []url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]url.Values{}, p.endSessionRequests...)
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(out)
}

// writeAuthErrorResponse redirects an authorization error to the redirect
// uri.  Errors for id_token responses use the fragment.
func (p *TestProvider) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	qv := req.URL.Query()
	v := url.Values{}
	v.Set("error", errorCode)
	if errorMessage != "" {
		v.Set("error_description", errorMessage)
	}
	if s := qv.Get("state"); s != "" {
		v.Set("state", s)
	}
	sep := "?"
	if qv.Get("response_type") == "id_token" {
		sep = "#"
	}
	http.Redirect(w, req, qv.Get("redirect_uri")+sep+v.Encode(), http.StatusFound)
}

func (p *TestProvider) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(&body)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reply := struct {
			Issuer             string   `json:"issuer"`
			AuthEndpoint       string   `json:"authorization_endpoint"`
			TokenEndpoint      string   `json:"token_endpoint"`
			JWKSURI            string   `json:"jwks_uri"`
			UserinfoEndpoint   string   `json:"userinfo_endpoint,omitempty"`
			EndSessionEndpoint string   `json:"end_session_endpoint"`
			RevocationEndpoint string   `json:"revocation_endpoint,omitempty"`
			Algs               []string `json:"id_token_signing_alg_values_supported"`
		}{
			Issuer:             p.Addr(),
			AuthEndpoint:       p.Addr() + "/auth",
			TokenEndpoint:      p.Addr() + "/token",
			JWKSURI:            p.Addr() + "/certs",
			UserinfoEndpoint:   p.Addr() + "/userinfo",
			EndSessionEndpoint: p.Addr() + "/end-session",
			RevocationEndpoint: p.Addr() + "/revoke",
			Algs:               []string{string(jose.ES256)},
		}
		if p.disableUserInfo {
			reply.UserinfoEndpoint = ""
		}
		if p.disableRevocation {
			reply.RevocationEndpoint = ""
		}
		_ = p.writeJSON(w, &reply)

	case "/auth":
		p.handleAuth(w, req)

	case "/token":
		p.handleToken(w, req)

	case "/certs":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = p.writeJSON(w, p.jwks)

	case "/userinfo":
		if p.disableUserInfo {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if !strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		reply := map[string]interface{}{"sub": p.replySubject}
		for k, v := range p.replyUserinfo {
			reply[k] = v
		}
		_ = p.writeJSON(w, reply)

	case "/revoke":
		if p.disableRevocation {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !p.authenticatedClient(req) {
			p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "")
			return
		}
		if req.FormValue("token") == "" {
			p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "missing token")
			return
		}
		p.revokedTokens = append(p.revokedTokens, req.FormValue("token"))
		w.WriteHeader(http.StatusOK)

	case "/end-session":
		qv := req.URL.Query()
		p.endSessionRequests = append(p.endSessionRequests, qv)
		p.signedIn = false
		redirectURI := qv.Get("post_logout_redirect_uri")
		if redirectURI == "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if s := qv.Get("state"); s != "" {
			redirectURI += "?state=" + url.QueryEscape(s)
		}
		http.Redirect(w, req, redirectURI, http.StatusFound)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *TestProvider) handleAuth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	qv := req.URL.Query()
	redirectURI := qv.Get("redirect_uri")
	if !strutils.StrListContains(p.allowedRedirectURIs, redirectURI) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("redirect_uri is not allowed"))
		return
	}
	switch {
	case qv.Get("client_id") != p.clientID:
		p.writeAuthErrorResponse(w, req, "unauthorized_client", "unknown client_id")
		return
	case !strutils.StrListContains(strings.Fields(qv.Get("scope")), "openid"):
		p.writeAuthErrorResponse(w, req, "invalid_scope", "")
		return
	case qv.Get("state") == "":
		p.writeAuthErrorResponse(w, req, "invalid_request", "missing state parameter")
		return
	}
	if qv.Get("prompt") == "none" {
		if !p.signedIn {
			p.writeAuthErrorResponse(w, req, "login_required", "")
			return
		}
	} else {
		// an interactive request always signs the test subject in
		p.signedIn = true
	}

	v := url.Values{}
	v.Set("state", qv.Get("state"))
	if p.sessionState != "" {
		v.Set("session_state", p.sessionState)
	}
	switch qv.Get("response_type") {
	case "code":
		code, err := id.New("code")
		if err != nil {
			p.writeAuthErrorResponse(w, req, "server_error", err.Error())
			return
		}
		p.pendingCodes[code] = testPendingCode{
			nonce:               qv.Get("nonce"),
			redirectURI:         redirectURI,
			codeChallenge:       qv.Get("code_challenge"),
			codeChallengeMethod: qv.Get("code_challenge_method"),
		}
		v.Set("code", code)
		http.Redirect(w, req, redirectURI+"?"+v.Encode(), http.StatusFound)
	case "id_token":
		if qv.Get("nonce") == "" {
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing nonce parameter")
			return
		}
		v.Set("id_token", p.issueIDToken(qv.Get("nonce")))
		http.Redirect(w, req, redirectURI+"#"+v.Encode(), http.StatusFound)
	default:
		p.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
	}
}

func (p *TestProvider) handleToken(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !p.authenticatedClient(req) {
		p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "")
		return
	}
	var nonce string
	switch req.FormValue("grant_type") {
	case "authorization_code":
		pending, ok := p.pendingCodes[req.FormValue("code")]
		switch {
		case !ok:
			p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "unexpected auth code")
			return
		case pending.redirectURI != req.FormValue("redirect_uri"):
			p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "redirect_uri mismatch")
			return
		case pending.codeChallenge != "" && !testVerifyPKCE(pending, req.FormValue("code_verifier")):
			p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "code_verifier mismatch")
			return
		}
		delete(p.pendingCodes, req.FormValue("code"))
		nonce = pending.nonce
	case "refresh_token":
		if !p.refreshTokens[req.FormValue("refresh_token")] {
			p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "unknown refresh token")
			return
		}
	default:
		p.writeTokenErrorResponse(w, http.StatusBadRequest, "unsupported_grant_type", "")
		return
	}

	accessToken, err := id.New("at")
	if err != nil {
		p.writeTokenErrorResponse(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if p.jwtAccessTokens {
		accessToken = p.issueIDToken("")
	}
	refreshToken, err := id.New("rt")
	if err != nil {
		p.writeTokenErrorResponse(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	p.refreshTokens[refreshToken] = true

	reply := struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token,omitempty"`
		Scope        string `json:"scope"`
	}{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(p.accessTokenLifetime.Seconds()),
		RefreshToken: refreshToken,
		Scope:        "openid",
	}
	if !p.omitIDToken {
		reply.IDToken = p.issueIDToken(nonce)
	}
	_ = p.writeJSON(w, &reply)
}

// authenticatedClient checks the client credentials of a token endpoint
// request, from either basic auth or the form.
func (p *TestProvider) authenticatedClient(req *http.Request) bool {
	clientID, clientSecret, ok := req.BasicAuth()
	if ok {
		clientID, _ = url.QueryUnescape(clientID)
		clientSecret, _ = url.QueryUnescape(clientSecret)
	} else {
		clientID, clientSecret = req.FormValue("client_id"), req.FormValue("client_secret")
	}
	if clientID != p.clientID {
		return false
	}
	return p.clientSecret == "" || clientSecret == p.clientSecret
}

func (p *TestProvider) issueIDToken(nonce string) string {
	now := time.Now()
	stdClaims := jwt.Claims{
		Subject:   p.replySubject,
		Issuer:    p.Addr(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
		Expiry:    jwt.NewNumericDate(now.Add(5 * time.Minute)),
		Audience:  jwt.Audience{p.clientID},
	}
	privateClaims := map[string]interface{}{}
	for k, v := range p.customClaims {
		privateClaims[k] = v
	}
	if nonce != "" {
		privateClaims["nonce"] = nonce
	}
	return TestSignJWT(p.t, p.ecdsaPrivateKey, p.keyID, stdClaims, privateClaims)
}

func testVerifyPKCE(pending testPendingCode, verifier string) bool {
	if verifier == "" {
		return false
	}
	switch pending.codeChallengeMethod {
	case "S256":
		sum := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(sum[:]) == pending.codeChallenge
	default:
		return verifier == pending.codeChallenge
	}
}

// testJWKS converts a pem-encoded public key into JWKS data suitable for a
// verification endpoint response
func testJWKS(t *testing.T, pubKey, keyID string) *jose.JSONWebKeySet {
	t.Helper()
	require := require.New(t)

	block, _ := pem.Decode([]byte(pubKey))
	require.NotNil(block)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(err)

	return &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       pub,
				KeyID:     keyID,
				Algorithm: string(jose.ES256),
				Use:       "sig",
			},
		},
	}
}

// httptestNewUnstartedServerWithPort is roughly the same as
// httptest.NewUnstartedServer() but allows the caller to explicitly choose the
// port if desired.
func httptestNewUnstartedServerWithPort(t *testing.T, handler http.Handler, port int) *httptest.Server {
	t.Helper()
	require := require.New(t)
	require.NotEmpty(port)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	l, err := net.Listen("tcp", addr)
	require.NoError(err)

	return &httptest.Server{
		Listener: l,
		Config:   &http.Server{Handler: handler},
	}
}

// testProviderOptions is the set of available options for StartTestProvider
type testProviderOptions struct {
	withPort int
}

func testProviderDefaults() testProviderOptions {
	return testProviderOptions{}
}

func getTestProviderOpts(opt ...Option) testProviderOptions {
	opts := testProviderDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTestPort provides an optional port for the test provider.
func WithTestPort(port int) Option {
	return func(o interface{}) {
		if o, ok := o.(*testProviderOptions); ok {
			o.withPort = port
		}
	}
}
