package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jkabonick-ft/oidc-client/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testSQLStore(t *testing.T, opt ...oidc.Option) *SQLStore {
	t.Helper()
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "state", "store.sqlite")
	s, err := NewSQLStoreFromURL(context.Background(), dbURL, opt...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewSQLStoreFromURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tests := []struct {
		name      string
		url       string
		opts      []oidc.Option
		wantErrIs error
	}{
		{name: "sqlite", url: "sqlite://" + filepath.Join(t.TempDir(), "a", "b.sqlite")},
		{name: "empty-sqlite-path", url: "sqlite://", wantErrIs: oidc.ErrInvalidParameter},
		{name: "unsupported", url: "mysql://localhost/db", wantErrIs: oidc.ErrInvalidParameter},
		{name: "negative-ttl", url: "sqlite://" + filepath.Join(t.TempDir(), "c.sqlite"), opts: []oidc.Option{WithTTL(-time.Second)}, wantErrIs: oidc.ErrInvalidParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			s, err := NewSQLStoreFromURL(ctx, tt.url, tt.opts...)
			if tt.wantErrIs != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantErrIs)
				return
			}
			require.NoError(err)
			assert.NoError(s.Close())
		})
	}
	t.Run("nil-db", func(t *testing.T) {
		t.Parallel()
		_, err := NewSQLStore(ctx, nil)
		assert.ErrorIs(t, err, oidc.ErrNilParameter)
	})
}

func TestSQLStore(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	s := testSQLStore(t)

	_, err := s.Get(ctx, "user:a")
	assert.ErrorIs(err, oidc.ErrNotFound)

	require.NoError(s.Set(ctx, "user:a", `{"id_token":"1"}`))
	got, err := s.Get(ctx, "user:a")
	require.NoError(err)
	assert.Equal(`{"id_token":"1"}`, got)

	require.NoError(s.Set(ctx, "user:a", `{"id_token":"2"}`))
	got, err = s.Get(ctx, "user:a")
	require.NoError(err)
	assert.Equal(`{"id_token":"2"}`, got)

	require.NoError(s.Remove(ctx, "user:a"))
	_, err = s.Get(ctx, "user:a")
	assert.ErrorIs(err, oidc.ErrNotFound)
	assert.NoError(s.Remove(ctx, "user:a"))
}

func TestSQLStore_ttl(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := testSQLStore(t, WithTTL(time.Minute), WithNow(clock.Now))

	require.NoError(s.Set(ctx, "a", "1"))
	require.NoError(s.Set(ctx, "b", "2"))
	clock.Add(30 * time.Second)
	require.NoError(s.Set(ctx, "b", "3"))

	got, err := s.Get(ctx, "a")
	require.NoError(err)
	assert.Equal("1", got)

	clock.Add(45 * time.Second)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(err, oidc.ErrNotFound)
	got, err = s.Get(ctx, "b")
	require.NoError(err)
	assert.Equal("3", got)

	require.NoError(s.Set(ctx, "c", "4"))
	clock.Add(2 * time.Minute)
	n, err := s.PurgeExpired(ctx)
	require.NoError(err)
	assert.Equal(int64(2), n)
}
