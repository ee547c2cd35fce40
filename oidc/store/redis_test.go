package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jkabonick-ft/oidc-client/oidc"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewRedisStore(t *testing.T) {
	t.Parallel()
	_, client := testRedis(t)
	tests := []struct {
		name      string
		client    redis.UniversalClient
		opts      []oidc.Option
		wantErrIs error
	}{
		{name: "valid", client: client},
		{name: "nil-client", wantErrIs: oidc.ErrNilParameter},
		{name: "negative-ttl", client: client, opts: []oidc.Option{WithTTL(-time.Second)}, wantErrIs: oidc.ErrInvalidParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			s, err := NewRedisStore(tt.client, tt.opts...)
			if tt.wantErrIs != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantErrIs)
				return
			}
			require.NoError(err)
			assert.Equal(DefaultKeyPrefix, s.keyPrefix)
		})
	}
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	mr, client := testRedis(t)

	s, err := NewRedisStore(client, WithKeyPrefix("test:"), WithTTL(time.Minute))
	require.NoError(err)
	require.NoError(s.Ping(ctx))

	_, err = s.Get(ctx, "user:a")
	assert.ErrorIs(err, oidc.ErrNotFound)

	require.NoError(s.Set(ctx, "user:a", "v1"))
	got, err := s.Get(ctx, "user:a")
	require.NoError(err)
	assert.Equal("v1", got)
	assert.True(mr.Exists("test:user:a"))
	assert.Equal(time.Minute, mr.TTL("test:user:a"))

	require.NoError(s.Set(ctx, "user:a", "v2"))
	got, err = s.Get(ctx, "user:a")
	require.NoError(err)
	assert.Equal("v2", got)

	require.NoError(s.Remove(ctx, "user:a"))
	require.NoError(s.Remove(ctx, "user:a"))
	_, err = s.Get(ctx, "user:a")
	assert.ErrorIs(err, oidc.ErrNotFound)

	require.NoError(s.Set(ctx, "user:b", "v"))
	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "user:b")
	assert.ErrorIs(err, oidc.ErrNotFound)
}

func TestNewRedisStoreFromURL(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedisStoreFromURL(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(ctx, "k", "v"))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"k"))

	_, err = NewRedisStoreFromURL(ctx, "not-a-url")
	assert.ErrorIs(t, err, oidc.ErrInvalidParameter)
}
