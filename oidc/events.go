package oidc

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Events notifies subscribers of changes to the current User and its
// session.  It's shared by a UserManager and its background services for the
// lifetime of the UserManager.
//
// Handlers are called synchronously, outside of any internal lock, so a
// handler may subscribe, unsubscribe or raise other events.  Access token
// timer handlers run on their own goroutine.
//
// Events is safe for concurrent use.
type Events struct {
	logger                   hclog.Logger
	expiringNotificationTime time.Duration

	userLoaded          handlerList[func(*User)]
	userUnloaded        handlerList[func()]
	accessTokenExpiring handlerList[func()]
	accessTokenExpired  handlerList[func()]
	silentRenewError    handlerList[func(error)]
	userSignedIn        handlerList[func()]
	userSignedOut       handlerList[func()]
	userSessionChanged  handlerList[func()]

	timerMu       sync.Mutex
	generation    uint64
	expiringTimer *time.Timer
	expiredTimer  *time.Timer
}

// NewEvents creates a new Events.
//
// Supported options:
//
//	WithLogger
//	WithExpiringNotificationTime
func NewEvents(opt ...Option) *Events {
	opts := getEventsOpts(opt...)
	return &Events{
		logger:                   opts.withLogger.Named("events"),
		expiringNotificationTime: opts.withExpiringNotificationTime,
	}
}

// Load raises the user loaded event, unless the user was read back from
// storage, and (re)arms the access token expiring and expired timers from the
// user's expiry.  Timers are only armed for a user with an access token and a
// known expiry.
func (e *Events) Load(u *User, fromStorage bool) {
	e.armTimers(u)
	if fromStorage {
		return
	}
	for _, h := range e.userLoaded.snapshot() {
		h(u)
	}
}

// Unload cancels the access token timers and raises the user unloaded event.
func (e *Events) Unload() {
	e.stopTimers()
	for _, h := range e.userUnloaded.snapshot() {
		h()
	}
}

// AddUserLoaded subscribes to user loaded events.  It returns a func which
// removes the subscription.
func (e *Events) AddUserLoaded(h func(*User)) (unsubscribe func()) {
	return e.userLoaded.add(h)
}

// AddUserUnloaded subscribes to user unloaded events.
func (e *Events) AddUserUnloaded(h func()) (unsubscribe func()) {
	return e.userUnloaded.add(h)
}

// AddAccessTokenExpiring subscribes to access token expiring events, raised
// the configured notification time before the access token expires.
func (e *Events) AddAccessTokenExpiring(h func()) (unsubscribe func()) {
	return e.accessTokenExpiring.add(h)
}

// AddAccessTokenExpired subscribes to access token expired events.
func (e *Events) AddAccessTokenExpired(h func()) (unsubscribe func()) {
	return e.accessTokenExpired.add(h)
}

// AddSilentRenewError subscribes to silent renew failures.
func (e *Events) AddSilentRenewError(h func(error)) (unsubscribe func()) {
	return e.silentRenewError.add(h)
}

// AddUserSignedIn subscribes to the SessionMonitor noticing a user signed in
// at the provider.
func (e *Events) AddUserSignedIn(h func()) (unsubscribe func()) {
	return e.userSignedIn.add(h)
}

// AddUserSignedOut subscribes to the SessionMonitor noticing the user signed
// out at the provider.
func (e *Events) AddUserSignedOut(h func()) (unsubscribe func()) {
	return e.userSignedOut.add(h)
}

// AddUserSessionChanged subscribes to the SessionMonitor noticing the user's
// provider session changed.
func (e *Events) AddUserSessionChanged(h func()) (unsubscribe func()) {
	return e.userSessionChanged.add(h)
}

// RaiseSilentRenewError raises the silent renew error event.
func (e *Events) RaiseSilentRenewError(err error) {
	for _, h := range e.silentRenewError.snapshot() {
		h(err)
	}
}

// RaiseUserSignedIn raises the user signed in event.
func (e *Events) RaiseUserSignedIn() {
	for _, h := range e.userSignedIn.snapshot() {
		h()
	}
}

// RaiseUserSignedOut raises the user signed out event.
func (e *Events) RaiseUserSignedOut() {
	for _, h := range e.userSignedOut.snapshot() {
		h()
	}
}

// RaiseUserSessionChanged raises the user session changed event.
func (e *Events) RaiseUserSessionChanged() {
	for _, h := range e.userSessionChanged.snapshot() {
		h()
	}
}

func (e *Events) armTimers(u *User) {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	e.stopTimersLocked()
	if u == nil || u.AccessToken == "" || u.ExpiresAt == 0 {
		return
	}
	gen := e.generation
	expiresIn := u.ExpiresIn()
	expiring := expiresIn - e.expiringNotificationTime
	if expiring < 0 {
		expiring = 0
	}
	if expiresIn < 0 {
		expiresIn = 0
	}
	e.logger.Debug("arming access token timers", "expiring_in", expiring, "expires_in", expiresIn)
	e.expiringTimer = time.AfterFunc(expiring, func() {
		if !e.current(gen) {
			return
		}
		e.logger.Debug("access token expiring")
		for _, h := range e.accessTokenExpiring.snapshot() {
			h()
		}
	})
	e.expiredTimer = time.AfterFunc(expiresIn, func() {
		if !e.current(gen) {
			return
		}
		e.logger.Debug("access token expired")
		for _, h := range e.accessTokenExpired.snapshot() {
			h()
		}
	})
}

// current reports whether the timers of generation gen are still armed.
func (e *Events) current(gen uint64) bool {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	return e.generation == gen
}

func (e *Events) stopTimers() {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	e.stopTimersLocked()
}

func (e *Events) stopTimersLocked() {
	e.generation++
	if e.expiringTimer != nil {
		e.expiringTimer.Stop()
		e.expiringTimer = nil
	}
	if e.expiredTimer != nil {
		e.expiredTimer.Stop()
		e.expiredTimer = nil
	}
}

// handlerList is an ordered set of subscribed handlers.
type handlerList[T any] struct {
	mu       sync.Mutex
	next     uint64
	handlers []handlerEntry[T]
}

type handlerEntry[T any] struct {
	id uint64
	h  T
}

func (l *handlerList[T]) add(h T) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	id := l.next
	l.handlers = append(l.handlers, handlerEntry[T]{id: id, h: h})
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, e := range l.handlers {
			if e.id == id {
				l.handlers = append(l.handlers[:i:i], l.handlers[i+1:]...)
				return
			}
		}
	}
}

func (l *handlerList[T]) snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	hs := make([]T, 0, len(l.handlers))
	for _, e := range l.handlers {
		hs = append(hs, e.h)
	}
	return hs
}

// eventsOptions is the set of available options for NewEvents
type eventsOptions struct {
	withLogger                   hclog.Logger
	withExpiringNotificationTime time.Duration
}

// eventsDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func eventsDefaults() eventsOptions {
	return eventsOptions{
		withLogger:                   hclog.NewNullLogger(),
		withExpiringNotificationTime: DefaultAccessTokenExpiringNotificationTime,
	}
}

// getEventsOpts gets the defaults and applies the opt overrides passed in.
func getEventsOpts(opt ...Option) eventsOptions {
	opts := eventsDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}

// WithExpiringNotificationTime provides an optional duration before access
// token expiry at which the expiring event is raised.
func WithExpiringNotificationTime(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*eventsOptions); ok {
			o.withExpiringNotificationTime = d
		}
	}
}
