package oidc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc/internal/strutils"
)

// interactionRequiredErrors are the prompt=none error codes which mean there
// isn't an active provider session for the agent.
var interactionRequiredErrors = []string{
	"login_required",
	"interaction_required",
	"consent_required",
	"account_selection_required",
}

// SessionMonitor polls the provider with QuerySessionStatus and raises events
// when the provider's session no longer matches the loaded user:
//
//   - the same subject with a new session state raises user session changed
//   - no session, or another subject, raises user signed out when a user was
//     loaded
//   - a session while no user is loaded raises user signed in
type SessionMonitor struct {
	manager  *UserManager
	logger   hclog.Logger
	interval time.Duration

	mu           sync.Mutex
	sub          string
	sessionState string
	announcedSub string

	unsubscribe         []func()
	backgroundCtxCancel context.CancelFunc
	wg                  sync.WaitGroup
}

// NewSessionMonitor creates a SessionMonitor for the UserManager, polling
// every Settings.CheckSessionInterval.  It does nothing until it's started.
//
// Supported options:
//
//	WithLogger
func NewSessionMonitor(m *UserManager, opt ...Option) (*SessionMonitor, error) {
	const op = "NewSessionMonitor"
	if m == nil {
		return nil, fmt.Errorf("%s: user manager is nil: %w", op, ErrNilParameter)
	}
	if m.settings.CheckSessionInterval <= 0 {
		return nil, fmt.Errorf("%s: check session interval must be positive: %w", op, ErrInvalidParameter)
	}
	opts := getServiceOpts(opt...)
	return &SessionMonitor{
		manager:  m,
		logger:   opts.withLogger.Named("session-monitor"),
		interval: m.settings.CheckSessionInterval,
	}, nil
}

// Start tracking the loaded user and polling.  Starting a started monitor is
// a no-op.
func (s *SessionMonitor) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backgroundCtxCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.backgroundCtxCancel = cancel

	s.unsubscribe = []func(){
		s.manager.events.AddUserLoaded(s.track),
		s.manager.events.AddUserUnloaded(func() { s.track(nil) }),
	}
	if u, err := s.manager.loadUser(ctx); err != nil {
		s.logger.Warn("unable to load user", "error", err)
	} else {
		s.trackLocked(u)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.check(ctx)
			}
		}
	}()
	s.logger.Debug("started", "interval", s.interval)
}

// Stop polling and wait for a check in progress to return.
func (s *SessionMonitor) Stop() {
	s.mu.Lock()
	if s.backgroundCtxCancel == nil {
		s.mu.Unlock()
		return
	}
	for _, u := range s.unsubscribe {
		u()
	}
	s.unsubscribe = nil
	s.backgroundCtxCancel()
	s.backgroundCtxCancel = nil
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Debug("stopped")
}

func (s *SessionMonitor) track(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackLocked(u)
}

func (s *SessionMonitor) trackLocked(u *User) {
	if u == nil {
		s.sub, s.sessionState = "", ""
		return
	}
	s.sub, s.sessionState = u.Subject(), u.SessionState
	s.announcedSub = ""
}

// check queries the session status once and raises the resulting event.
func (s *SessionMonitor) check(ctx context.Context) {
	status, err := s.manager.QuerySessionStatus(ctx, nil)
	if err != nil {
		var errResp *ErrorResponse
		if !errors.As(err, &errResp) || !strutils.StrListContains(interactionRequiredErrors, errResp.Code) {
			s.logger.Warn("unable to query session status", "error", err)
			return
		}
		s.logger.Debug("no provider session", "error", errResp.Code)
		status = nil
	}

	s.mu.Lock()
	var raise func()
	switch {
	case status != nil && s.sub != "" && status.Sub == s.sub:
		if status.SessionState != s.sessionState {
			s.sessionState = status.SessionState
			raise = s.manager.events.RaiseUserSessionChanged
		}
	case s.sub != "":
		s.sub, s.sessionState = "", ""
		raise = s.manager.events.RaiseUserSignedOut
	case status == nil:
		// the announced provider session ended
		s.announcedSub = ""
	case status != nil && status.Sub != s.announcedSub:
		s.announcedSub = status.Sub
		raise = s.manager.events.RaiseUserSignedIn
	}
	s.mu.Unlock()

	if raise != nil {
		raise()
	}
}
