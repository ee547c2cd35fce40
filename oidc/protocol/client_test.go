package protocol

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jkabonick-ft/oidc-client/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	// aliases for subtests whose parent shadows assert/require
	tassert "github.com/stretchr/testify/assert"
	trequire "github.com/stretchr/testify/require"
)

const testRedirectURI = "https://example.com/callback"

// testClient returns a Client for a started TestProvider.
func testClient(t *testing.T, tp *oidc.TestProvider, opt ...oidc.Option) *Client {
	t.Helper()
	tp.SetClientCreds("test-client", "test-secret")
	opts := append([]oidc.Option{
		WithClientSecret("test-secret"),
		WithProviderCA(tp.CACert()),
	}, opt...)
	c, err := NewClient(tp.Addr(), "test-client", opts...)
	require.NoError(t, err)
	return c
}

// testNavigate requests u and returns the redirect location.
func testNavigate(t *testing.T, tp *oidc.TestProvider, u string) string {
	t.Helper()
	hc := tp.HTTPClient()
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := hc.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	return resp.Header.Get("Location")
}

func TestNewClient(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		authority string
		clientID  string
		opts      []oidc.Option
		wantErr   error
	}{
		{name: "valid", authority: "https://example.com", clientID: "client"},
		{name: "missing-authority", clientID: "client", wantErr: oidc.ErrInvalidParameter},
		{name: "missing-client-id", authority: "https://example.com", wantErr: oidc.ErrInvalidParameter},
		{name: "provider-ca", authority: "https://localhost", clientID: "client", opts: []oidc.Option{WithProviderCA(oidc.TestGenerateCA(t, []string{"localhost", "127.0.0.1"}))}},
		{name: "bad-ca", authority: "https://example.com", clientID: "client", opts: []oidc.Option{WithProviderCA("bad")}, wantErr: oidc.ErrInvalidCACert},
		{name: "zero-ttl", authority: "https://example.com", clientID: "client", opts: []oidc.Option{WithRequestTTL(-1)}, wantErr: oidc.ErrInvalidParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			c, err := NewClient(tt.authority, tt.clientID, tt.opts...)
			if tt.wantErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantErr)
				return
			}
			require.NoError(err)
			assert.NotNil(c.HTTPClient())
			assert.NotNil(c.store)
		})
	}
}

func TestClient_CreateSigninRequest(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp := oidc.StartTestProvider(t)
	c := testClient(t, tp)
	ctx := context.Background()
	maxAge := 0

	req, err := c.CreateSigninRequest(ctx, oidc.SigninRequestArgs{
		RedirectURI:      testRedirectURI,
		ResponseType:     "code",
		Scope:            "email openid email",
		Prompt:           "login",
		MaxAge:           &maxAge,
		UILocales:        []language.Tag{language.German, language.BritishEnglish},
		LoginHint:        "alice",
		Data:             "app-data",
		ExtraQueryParams: map[string]string{"audience": "api"},
	})
	require.NoError(err)
	assert.NotEmpty(req.State)

	u, err := url.Parse(req.URL)
	require.NoError(err)
	assert.Equal(tp.Addr()+"/auth", u.Scheme+"://"+u.Host+u.Path)
	q := u.Query()
	assert.Equal("code", q.Get("response_type"))
	assert.Equal("email openid", q.Get("scope"))
	assert.Equal(req.State, q.Get("state"))
	assert.Equal("test-client", q.Get("client_id"))
	assert.Equal(testRedirectURI, q.Get("redirect_uri"))
	assert.Equal("login", q.Get("prompt"))
	assert.Equal("0", q.Get("max_age"))
	assert.Equal("de en-GB", q.Get("ui_locales"))
	assert.Equal("alice", q.Get("login_hint"))
	assert.Equal("api", q.Get("audience"))
	assert.Equal("S256", q.Get("code_challenge_method"))
	assert.NotEmpty(q.Get("code_challenge"))
	assert.NotEmpty(q.Get("nonce"))
	assert.Empty(q.Get("id_token_hint"))

	_, err = c.CreateSigninRequest(ctx, oidc.SigninRequestArgs{ResponseType: "code"})
	assert.ErrorIs(err, oidc.ErrInvalidParameter)
}

func TestClient_reservedExtraQueryParams(t *testing.T) {
	t.Parallel()
	tp := oidc.StartTestProvider(t)
	tests := []struct {
		name    string
		signout bool
		param   string
	}{
		{name: "signin-state", param: "state"},
		{name: "signin-nonce", param: "nonce"},
		{name: "signin-response-type", param: "response_type"},
		{name: "signin-code-challenge", param: "code_challenge"},
		{name: "signout-state", signout: true, param: "state"},
		{name: "signout-post-logout-redirect-uri", signout: true, param: "post_logout_redirect_uri"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)
			s, err := oidc.NewMemoryStore(0)
			require.NoError(t, err)
			c := testClient(t, tp, WithStore(s))
			extra := map[string]string{tt.param: "override"}
			if tt.signout {
				_, err = c.CreateSignoutRequest(context.Background(), oidc.SignoutRequestArgs{
					PostLogoutRedirectURI: "https://example.com/signed-out",
					ExtraQueryParams:      extra,
				})
			} else {
				_, err = c.CreateSigninRequest(context.Background(), oidc.SigninRequestArgs{
					RedirectURI:      testRedirectURI,
					ResponseType:     "code",
					ExtraQueryParams: extra,
				})
			}
			assert.ErrorIs(err, oidc.ErrInvalidParameter)
			assert.Equal(0, s.Len(), "nothing is pending")
		})
	}
}

func TestClient_CodeFlow(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp := oidc.StartTestProvider(t)
	tp.SetAllowedRedirectURIs([]string{testRedirectURI})
	tp.SetSessionState("ss-1")
	tp.SetCustomClaims(map[string]interface{}{"email": "alice@example.com"})
	c := testClient(t, tp, WithUserInfo())
	ctx := context.Background()

	req, err := c.CreateSigninRequest(ctx, oidc.SigninRequestArgs{
		RedirectURI:  testRedirectURI,
		ResponseType: "code",
		Scope:        "openid",
		Data:         "app-data",
	})
	require.NoError(err)
	callback := testNavigate(t, tp, req.URL)
	assert.True(strings.HasPrefix(callback, testRedirectURI+"?"))

	resp, err := c.ProcessSigninResponse(ctx, callback)
	require.NoError(err)
	assert.Equal("alice@example.com", resp.Profile["sub"])
	assert.Equal("alice@example.com", resp.Profile["email"])
	assert.Equal("red", resp.Profile["color"], "userinfo claims are merged")
	assert.NotEmpty(resp.AccessToken)
	assert.NotContains(resp.AccessToken, ".")
	assert.NotEmpty(resp.IDToken)
	assert.NotEmpty(resp.RefreshToken)
	assert.Equal("Bearer", resp.TokenType)
	assert.Equal("ss-1", resp.SessionState)
	assert.Equal("app-data", resp.State)
	assert.Greater(resp.ExpiresAt, time.Now().Unix())

	// a response is only accepted once
	_, err = c.ProcessSigninResponse(ctx, callback)
	require.Error(err)
	assert.ErrorIs(err, oidc.ErrProtocol)
	assert.ErrorIs(err, oidc.ErrResponseStateInvalid)

	t.Run("refresh", func(t *testing.T) {
		assert, require := tassert.New(t), trequire.New(t)
		u, err := oidc.NewUser(resp)
		require.NoError(err)
		refreshed, err := c.RefreshToken(ctx, u)
		require.NoError(err)
		assert.NotEmpty(refreshed.AccessToken)
		assert.NotEqual(u.AccessToken, refreshed.AccessToken)
		assert.NotEmpty(refreshed.IDToken)
		assert.Equal(u.Subject(), refreshed.Profile["sub"])

		_, err = c.RefreshToken(ctx, &oidc.User{RefreshToken: "unknown"})
		require.Error(err)
		var errResp *oidc.ErrorResponse
		require.True(errors.As(err, &errResp))
		assert.Equal("invalid_grant", errResp.Code)
		assert.ErrorIs(err, oidc.ErrProtocol)

		_, err = c.RefreshToken(ctx, &oidc.User{})
		assert.ErrorIs(err, oidc.ErrInvalidParameter)
	})
}

func TestClient_ProcessSigninResponse(t *testing.T) {
	t.Parallel()
	tp := oidc.StartTestProvider(t)
	tp.SetAllowedRedirectURIs([]string{testRedirectURI})
	ctx := context.Background()

	t.Run("login-required", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := testClient(t, tp)
		tp.SetSignedIn(false)
		req, err := c.CreateSigninRequest(ctx, oidc.SigninRequestArgs{
			RedirectURI:  testRedirectURI,
			ResponseType: "code",
			Prompt:       "none",
			Data:         "app-data",
		})
		require.NoError(err)
		_, err = c.ProcessSigninResponse(ctx, testNavigate(t, tp, req.URL))
		require.Error(err)
		assert.ErrorIs(err, oidc.ErrProtocol)
		var errResp *oidc.ErrorResponse
		require.True(errors.As(err, &errResp))
		assert.Equal("login_required", errResp.Code)
		assert.Equal("app-data", errResp.State)
	})
	t.Run("id-token-response", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := testClient(t, tp)
		tp.SetSignedIn(true)
		tp.SetSessionState("ss-2")
		req, err := c.CreateSigninRequest(ctx, oidc.SigninRequestArgs{
			RedirectURI:  testRedirectURI,
			ResponseType: "id_token",
			Scope:        "openid",
			Prompt:       "none",
		})
		require.NoError(err)
		q, err := url.Parse(req.URL)
		require.NoError(err)
		assert.Empty(q.Query().Get("code_challenge"))

		callback := testNavigate(t, tp, req.URL)
		assert.Contains(callback, "#")
		resp, err := c.ProcessSigninResponse(ctx, callback)
		require.NoError(err)
		assert.Equal("alice@example.com", resp.Profile["sub"])
		assert.Equal("ss-2", resp.SessionState)
		assert.Empty(resp.AccessToken)
	})
	t.Run("unknown-state", func(t *testing.T) {
		assert := assert.New(t)
		c := testClient(t, tp)
		_, err := c.ProcessSigninResponse(ctx, testRedirectURI+"?state=unknown&code=abc")
		assert.ErrorIs(err, oidc.ErrResponseStateInvalid)
		_, err = c.ProcessSigninResponse(ctx, testRedirectURI+"?code=abc")
		assert.ErrorIs(err, oidc.ErrResponseStateInvalid)
	})
	t.Run("expired", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		var mu sync.Mutex
		now := time.Now()
		c := testClient(t, tp, WithRequestTTL(time.Minute), WithNow(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}))
		req, err := c.CreateSigninRequest(ctx, oidc.SigninRequestArgs{RedirectURI: testRedirectURI, ResponseType: "code"})
		require.NoError(err)
		callback := testNavigate(t, tp, req.URL)
		mu.Lock()
		now = now.Add(2 * time.Minute)
		mu.Unlock()
		_, err = c.ProcessSigninResponse(ctx, callback)
		assert.ErrorIs(err, oidc.ErrExpiredState)
		assert.ErrorIs(err, oidc.ErrProtocol)
	})
	t.Run("missing-id-token", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		tp.OmitIDTokens()
		c := testClient(t, tp)
		req, err := c.CreateSigninRequest(ctx, oidc.SigninRequestArgs{RedirectURI: testRedirectURI, ResponseType: "code"})
		require.NoError(err)
		_, err = c.ProcessSigninResponse(ctx, testNavigate(t, tp, req.URL))
		assert.ErrorIs(err, oidc.ErrMissingIDToken)
	})
}

func TestClient_Signout(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp := oidc.StartTestProvider(t)
	c := testClient(t, tp)
	ctx := context.Background()
	tp.SetSignedIn(true)

	req, err := c.CreateSignoutRequest(ctx, oidc.SignoutRequestArgs{
		IDTokenHint:           "id-token",
		PostLogoutRedirectURI: "https://example.com/signed-out",
		Data:                  "bye",
		ExtraQueryParams:      map[string]string{"ui_locales": "en"},
	})
	require.NoError(err)
	assert.NotEmpty(req.State)

	callback := testNavigate(t, tp, req.URL)
	assert.False(tp.SignedIn())
	reqs := tp.EndSessionRequests()
	require.Len(reqs, 1)
	assert.Equal("id-token", reqs[0].Get("id_token_hint"))
	assert.Equal("en", reqs[0].Get("ui_locales"))
	assert.Empty(reqs[0].Get("client_id"))

	resp, err := c.ProcessSignoutResponse(ctx, callback)
	require.NoError(err)
	assert.Equal("bye", resp.State)

	// without a post logout redirect there's nothing pending
	req, err = c.CreateSignoutRequest(ctx, oidc.SignoutRequestArgs{})
	require.NoError(err)
	assert.Empty(req.State)
	assert.Contains(req.URL, "client_id=test-client")
	resp, err = c.ProcessSignoutResponse(ctx, "https://example.com/signed-out")
	require.NoError(err)
	assert.Empty(resp.State)

	_, err = c.ProcessSignoutResponse(ctx, "https://example.com/signed-out?state=unknown")
	assert.ErrorIs(err, oidc.ErrResponseStateInvalid)
}

func TestClient_RevocationEndpoint(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()

	tp := oidc.StartTestProvider(t)
	c := testClient(t, tp)
	got, err := c.RevocationEndpoint(ctx)
	require.NoError(err)
	assert.Equal(tp.Addr()+"/revoke", got)

	disabled := oidc.StartTestProvider(t)
	disabled.DisableRevocation()
	c = testClient(t, disabled)
	got, err = c.RevocationEndpoint(ctx)
	require.NoError(err)
	assert.Empty(got)

	c, err = NewClient("https://127.0.0.1:1", "client")
	require.NoError(err)
	_, err = c.RevocationEndpoint(ctx)
	assert.Error(err)
}
