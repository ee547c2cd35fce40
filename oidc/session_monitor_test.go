package oidc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) record(name string) func() {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, name)
	}
}

func (r *eventRecorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestNewSessionMonitor(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	_, err := NewSessionMonitor(nil)
	assert.ErrorIs(err, ErrNilParameter)

	h := newTestHarness(t, nil, nil)
	h.m.settings.CheckSessionInterval = 0
	_, err = NewSessionMonitor(h.m)
	assert.ErrorIs(err, ErrInvalidParameter)
}

func TestSessionMonitor_check(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	h := newTestHarness(t, nil, nil)

	var status struct {
		sync.Mutex
		sub, sessionState string
		err               error
	}
	setStatus := func(sub, sessionState string, err error) {
		status.Lock()
		defer status.Unlock()
		status.sub, status.sessionState, status.err = sub, sessionState, err
	}
	h.client.processSignin = func(string) (*SigninResponse, error) {
		status.Lock()
		defer status.Unlock()
		if status.err != nil {
			return nil, status.err
		}
		return &SigninResponse{Profile: map[string]interface{}{"sub": status.sub}, SessionState: status.sessionState}, nil
	}

	var rec eventRecorder
	h.m.Events().AddUserSignedIn(rec.record("signed-in"))
	h.m.Events().AddUserSignedOut(rec.record("signed-out"))
	h.m.Events().AddUserSessionChanged(rec.record("session-changed"))

	h.storeUser(t, "alice") // session state ss-1
	mon, err := NewSessionMonitor(h.m)
	require.NoError(err)
	mon.Start()
	mon.Start()
	defer mon.Stop()

	// unchanged session
	setStatus("alice", "ss-1", nil)
	mon.check(ctx)
	assert.Empty(rec.get())

	// same subject, new session state
	setStatus("alice", "ss-2", nil)
	mon.check(ctx)
	mon.check(ctx)
	assert.Equal([]string{"session-changed"}, rec.get())

	// the provider session ended
	setStatus("", "", &ErrorResponse{Code: "login_required"})
	mon.check(ctx)
	mon.check(ctx)
	assert.Equal([]string{"session-changed", "signed-out"}, rec.get())

	// another subject signed in at the provider
	setStatus("bob", "ss-3", nil)
	mon.check(ctx)
	mon.check(ctx)
	assert.Equal([]string{"session-changed", "signed-out", "signed-in"}, rec.get())

	// other errors are ignored
	setStatus("", "", errors.New("network down"))
	mon.check(ctx)
	assert.Len(rec.get(), 3)
}

func TestSessionMonitor_providerSessionEnds(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	h := newTestHarness(t, nil, nil)

	var status struct {
		sync.Mutex
		sub string
		err error
	}
	setStatus := func(sub string, err error) {
		status.Lock()
		defer status.Unlock()
		status.sub, status.err = sub, err
	}
	h.client.processSignin = func(string) (*SigninResponse, error) {
		status.Lock()
		defer status.Unlock()
		if status.err != nil {
			return nil, status.err
		}
		return &SigninResponse{Profile: map[string]interface{}{"sub": status.sub}, SessionState: "ss-b"}, nil
	}
	var rec eventRecorder
	h.m.Events().AddUserSignedIn(rec.record("signed-in"))
	h.m.Events().AddUserSignedOut(rec.record("signed-out"))

	mon, err := NewSessionMonitor(h.m)
	require.NoError(err)
	mon.Start()
	defer mon.Stop()

	setStatus("bob", nil)
	mon.check(ctx)
	mon.check(ctx)
	assert.Equal([]string{"signed-in"}, rec.get())

	setStatus("", &ErrorResponse{Code: "login_required"})
	mon.check(ctx)
	assert.Equal([]string{"signed-in"}, rec.get())

	// the same subject signing in again is announced again
	setStatus("bob", nil)
	mon.check(ctx)
	assert.Equal([]string{"signed-in", "signed-in"}, rec.get())

	// so is one after a response without a subject
	setStatus("", nil)
	mon.check(ctx)
	setStatus("bob", nil)
	mon.check(ctx)
	assert.Equal([]string{"signed-in", "signed-in", "signed-in"}, rec.get())
}

func TestSessionMonitor_tracksEvents(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	h := newTestHarness(t, nil, nil)
	h.client.processSignin = func(string) (*SigninResponse, error) {
		return &SigninResponse{Profile: map[string]interface{}{"sub": "carol"}, SessionState: "ss-c"}, nil
	}
	var rec eventRecorder
	h.m.Events().AddUserSignedOut(rec.record("signed-out"))
	h.m.Events().AddUserSignedIn(rec.record("signed-in"))

	mon, err := NewSessionMonitor(h.m)
	require.NoError(err)
	mon.Start()
	defer mon.Stop()

	// a sign-in through the UserManager is tracked
	_, err = h.m.SigninRedirectCallback(ctx, "https://app.example.com/cb?code=c&state=st1")
	require.NoError(err)
	mon.check(ctx)
	assert.Empty(rec.get())

	// a local sign-out is tracked, so the provider session is a new sign-in
	require.NoError(h.m.RemoveUser(ctx))
	mon.check(ctx)
	assert.Equal([]string{"signed-in"}, rec.get())
}

func TestSessionMonitor_polls(t *testing.T) {
	t.Parallel()
	h := newTestHarness(t, func(s *Settings) { s.CheckSessionInterval = 10 * time.Millisecond }, nil)
	h.client.processSignin = func(string) (*SigninResponse, error) {
		return &SigninResponse{Profile: map[string]interface{}{"sub": "dave"}, SessionState: "ss-d"}, nil
	}
	var rec eventRecorder
	h.m.Events().AddUserSignedIn(rec.record("signed-in"))

	mon, err := NewSessionMonitor(h.m)
	require.NoError(t, err)
	mon.Start()
	assert.Eventually(t, func() bool { return len(rec.get()) == 1 }, 2*time.Second, 5*time.Millisecond)
	mon.Stop()
	mon.Stop()
	assert.Equal(t, []string{"signed-in"}, rec.get())
}
