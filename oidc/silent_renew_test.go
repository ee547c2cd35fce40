package oidc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSilentRenewService(t *testing.T) {
	t.Parallel()
	_, err := NewSilentRenewService(nil)
	assert.ErrorIs(t, err, ErrNilParameter)
}

func TestSilentRenewService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("renews-expiring-token", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		var refreshes atomic.Int32
		h := newTestHarness(t, nil, func(*User) (*SigninResponse, error) {
			refreshes.Add(1)
			return &SigninResponse{AccessToken: "at-renewed", ExpiresAt: time.Now().Add(time.Hour).Unix()}, nil
		})
		svc, err := NewSilentRenewService(h.m)
		require.NoError(err)
		svc.Start()
		svc.Start()
		defer svc.Stop()

		// the stored token is within the expiring notification time
		u := h.storeUser(t, "alice")
		u.ExpiresAt = time.Now().Add(30 * time.Second).Unix()
		require.NoError(h.m.StoreUser(ctx, u))
		_, err = h.m.GetUser(ctx)
		require.NoError(err)

		assert.Eventually(func() bool {
			stored, err := h.m.loadUser(ctx)
			return err == nil && stored != nil && stored.AccessToken == "at-renewed"
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(int32(1), refreshes.Load())
	})
	t.Run("raises-errors", func(t *testing.T) {
		t.Parallel()
		h := newTestHarness(t, nil, func(*User) (*SigninResponse, error) {
			return nil, errors.New("refresh failed")
		})
		var renewErr atomic.Value
		h.m.Events().AddSilentRenewError(func(err error) { renewErr.Store(err) })
		svc, err := NewSilentRenewService(h.m)
		require.NoError(t, err)
		svc.Start()
		defer svc.Stop()

		u := h.storeUser(t, "alice")
		h.m.Events().Load(u, false)
		h.m.Events().accessTokenExpiringForTest()

		assert.Eventually(t, func() bool { return renewErr.Load() != nil }, 2*time.Second, 10*time.Millisecond)
	})
	t.Run("stopped", func(t *testing.T) {
		t.Parallel()
		var refreshes atomic.Int32
		h := newTestHarness(t, nil, func(*User) (*SigninResponse, error) {
			refreshes.Add(1)
			return &SigninResponse{AccessToken: "at-renewed"}, nil
		})
		svc, err := NewSilentRenewService(h.m)
		require.NoError(t, err)
		svc.Start()
		svc.Stop()
		svc.Stop()

		h.storeUser(t, "alice")
		h.m.Events().accessTokenExpiringForTest()
		assert.Equal(t, int32(0), refreshes.Load())
	})
	t.Run("single-renewal", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		release := make(chan struct{})
		var refreshes atomic.Int32
		h := newTestHarness(t, nil, func(*User) (*SigninResponse, error) {
			refreshes.Add(1)
			<-release
			return &SigninResponse{AccessToken: "at-renewed"}, nil
		})
		svc, err := NewSilentRenewService(h.m)
		require.NoError(err)
		svc.Start()
		h.storeUser(t, "alice")

		go h.m.Events().accessTokenExpiringForTest()
		assert.Eventually(func() bool { return refreshes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
		h.m.Events().accessTokenExpiringForTest()
		close(release)
		svc.Stop()
		assert.Equal(int32(1), refreshes.Load(), "an expiring event during a renewal is dropped")
	})
}
