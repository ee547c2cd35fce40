package oidc

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
)

// callLog records the order of calls made across the fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeClient struct {
	log *callLog

	mu            sync.Mutex
	signinArgs    []SigninRequestArgs
	signoutArgs   []SignoutRequestArgs
	processed     []string
	processSignin func(url string) (*SigninResponse, error)
	signoutResp   *SignoutResponse
	signoutErr    error
	revocationURL string

	revocationCalls atomic.Int32
}

var _ ProtocolClient = (*fakeClient)(nil)

func newFakeClient(log *callLog) *fakeClient {
	return &fakeClient{
		log:           log,
		revocationURL: "https://idp.example.com/revoke",
		processSignin: func(string) (*SigninResponse, error) {
			return testSigninResponse("alice"), nil
		},
	}
}

func testSigninResponse(sub string) *SigninResponse {
	return &SigninResponse{
		Profile:      map[string]interface{}{"sub": sub},
		AccessToken:  "at-" + sub,
		TokenType:    "Bearer",
		IDToken:      "header.id-" + sub + ".sig",
		RefreshToken: "rt-" + sub,
		Scope:        "openid profile",
		SessionState: "ss-1",
	}
}

func (c *fakeClient) CreateSigninRequest(_ context.Context, args SigninRequestArgs) (*SigninRequest, error) {
	c.log.add("createSigninRequest")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signinArgs = append(c.signinArgs, args)
	state := fmt.Sprintf("st%d", len(c.signinArgs))
	return &SigninRequest{URL: "https://idp.example.com/auth?state=" + state, State: state}, nil
}

func (c *fakeClient) ProcessSigninResponse(_ context.Context, u string) (*SigninResponse, error) {
	c.log.add("processSigninResponse")
	c.mu.Lock()
	c.processed = append(c.processed, u)
	fn := c.processSignin
	c.mu.Unlock()
	return fn(u)
}

func (c *fakeClient) CreateSignoutRequest(_ context.Context, args SignoutRequestArgs) (*SignoutRequest, error) {
	c.log.add("createSignoutRequest")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signoutArgs = append(c.signoutArgs, args)
	q := url.Values{}
	q.Set("state", "so1")
	if args.IDTokenHint != "" {
		q.Set("id_token_hint", args.IDTokenHint)
	}
	return &SignoutRequest{URL: "https://idp.example.com/end?" + q.Encode(), State: "so1"}, nil
}

func (c *fakeClient) ProcessSignoutResponse(_ context.Context, u string) (*SignoutResponse, error) {
	c.log.add("processSignoutResponse")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processed = append(c.processed, u)
	if c.signoutErr != nil {
		return nil, c.signoutErr
	}
	if c.signoutResp != nil {
		return c.signoutResp, nil
	}
	return &SignoutResponse{}, nil
}

func (c *fakeClient) RevocationEndpoint(context.Context) (string, error) {
	c.log.add("revocationEndpoint")
	c.revocationCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revocationURL, nil
}

func (c *fakeClient) lastSigninArgs() SigninRequestArgs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signinArgs[len(c.signinArgs)-1]
}

func (c *fakeClient) lastSignoutArgs() SignoutRequestArgs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signoutArgs[len(c.signoutArgs)-1]
}

// fakeRefreshingClient is a fakeClient which is also a TokenRefresher.
type fakeRefreshingClient struct {
	*fakeClient
	refresh func(u *User) (*SigninResponse, error)
}

var _ TokenRefresher = (*fakeRefreshingClient)(nil)

func (c *fakeRefreshingClient) RefreshToken(_ context.Context, u *User) (*SigninResponse, error) {
	c.log.add("refreshToken")
	return c.refresh(u)
}

type fakeNavigator struct {
	log *callLog

	mu          sync.Mutex
	prepared    []NavigateParams
	navigated   []NavigateParams
	callbacks   []string
	prepareErr  error
	navigateErr error
	responseURL string
}

var _ Navigator = (*fakeNavigator)(nil)

func newFakeNavigator(log *callLog) *fakeNavigator {
	return &fakeNavigator{log: log, responseURL: "https://app.example.com/cb?code=c1&state=st1"}
}

func (n *fakeNavigator) Prepare(_ context.Context, p NavigateParams) (NavigatorHandle, error) {
	n.log.add("prepare")
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prepared = append(n.prepared, p)
	if n.prepareErr != nil {
		return nil, n.prepareErr
	}
	return &fakeHandle{nav: n}, nil
}

func (n *fakeNavigator) Callback(_ context.Context, u string) (*NavigateResponse, error) {
	n.log.add("callback")
	n.mu.Lock()
	defer n.mu.Unlock()
	n.callbacks = append(n.callbacks, u)
	return &NavigateResponse{URL: u}, nil
}

func (n *fakeNavigator) prepareCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.prepared)
}

func (n *fakeNavigator) lastNavigated() NavigateParams {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.navigated[len(n.navigated)-1]
}

type fakeHandle struct {
	nav *fakeNavigator
}

func (h *fakeHandle) Navigate(_ context.Context, p NavigateParams) (*NavigateResponse, error) {
	h.nav.log.add("navigate")
	h.nav.mu.Lock()
	defer h.nav.mu.Unlock()
	h.nav.navigated = append(h.nav.navigated, p)
	if h.nav.navigateErr != nil {
		return nil, h.nav.navigateErr
	}
	return &NavigateResponse{URL: h.nav.responseURL}, nil
}

func (h *fakeHandle) Close() error {
	h.nav.log.add("close")
	return nil
}

type fakeRevocation struct {
	log *callLog

	mu     sync.Mutex
	tokens []string
	err    error
}

func (r *fakeRevocation) Revoke(_ context.Context, token string) error {
	r.log.add("revoke")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
	return r.err
}

func (r *fakeRevocation) revoked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tokens...)
}

// fakeRevocationFactory returns a factory for rc and a counter of its calls.
func fakeRevocationFactory(rc *fakeRevocation) (RevocationClientFactory, *atomic.Int32) {
	var calls atomic.Int32
	return func(string, string) (RevocationClient, error) {
		calls.Add(1)
		return rc, nil
	}, &calls
}

// loggingStore records the Store removals in the callLog.
type loggingStore struct {
	Store
	log *callLog
}

func (s *loggingStore) Remove(ctx context.Context, key string) error {
	s.log.add("store.remove")
	return s.Store.Remove(ctx, key)
}

// accessTokenExpiringForTest raises the access token expiring event without
// waiting on a timer.
func (e *Events) accessTokenExpiringForTest() {
	for _, h := range e.accessTokenExpiring.snapshot() {
		h()
	}
}
