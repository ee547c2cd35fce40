package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/jkabonick-ft/oidc-client/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionStore(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	_, err := NewSessionStore(nil)
	assert.ErrorIs(err, oidc.ErrNilParameter)
	_, err = NewSessionStore(sessions.NewCookieStore([]byte("test-key")), WithSessionName(""))
	assert.ErrorIs(err, oidc.ErrInvalidParameter)
	s, err := NewSessionStore(sessions.NewCookieStore([]byte("test-key")))
	assert.NoError(err)
	assert.Equal(DefaultSessionName, s.name)
}

func TestSessionStore(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s, err := NewSessionStore(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")), WithSessionName("test"))
	require.NoError(err)

	_, err = s.Get(context.Background(), "k")
	assert.ErrorIs(err, oidc.ErrInvalidParameter)

	// first request: set a value
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "https://app.example.com/", nil)
	ctx := WithHTTP(context.Background(), rec, req)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(err, oidc.ErrNotFound)
	require.NoError(s.Set(ctx, "k", "v1"))
	got, err := s.Get(ctx, "k")
	require.NoError(err)
	assert.Equal("v1", got)
	cookies := rec.Result().Cookies()
	require.NotEmpty(cookies)

	// second request: the value is read from the cookie, then removed
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "https://app.example.com/", nil)
	req.AddCookie(cookies[len(cookies)-1])
	ctx = WithHTTP(context.Background(), rec, req)
	got, err = s.Get(ctx, "k")
	require.NoError(err)
	assert.Equal("v1", got)
	require.NoError(s.Remove(ctx, "k"))
	require.NoError(s.Remove(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(err, oidc.ErrNotFound)
}
