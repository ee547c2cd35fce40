package oidc

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// SilentRenewService renews the current user's tokens with SigninSilent when
// the access token is about to expire.  Failures are raised as silent renew
// errors on the UserManager's Events.
type SilentRenewService struct {
	manager *UserManager
	logger  hclog.Logger

	mu                  sync.Mutex
	unsubscribe         func()
	backgroundCtx       context.Context
	backgroundCtxCancel context.CancelFunc
	renewing            sync.Mutex
	wg                  sync.WaitGroup
}

// NewSilentRenewService creates a SilentRenewService for the UserManager.  It
// does nothing until it's started.
//
// Supported options:
//
//	WithLogger
func NewSilentRenewService(m *UserManager, opt ...Option) (*SilentRenewService, error) {
	const op = "NewSilentRenewService"
	if m == nil {
		return nil, fmt.Errorf("%s: user manager is nil: %w", op, ErrNilParameter)
	}
	opts := getServiceOpts(opt...)
	return &SilentRenewService{
		manager: m,
		logger:  opts.withLogger.Named("silent-renew"),
	}, nil
}

// Start subscribing to access token expiring events.  Starting a started
// service is a no-op.
func (s *SilentRenewService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		return
	}
	s.backgroundCtx, s.backgroundCtxCancel = context.WithCancel(context.Background())
	ctx := s.backgroundCtx
	s.unsubscribe = s.manager.events.AddAccessTokenExpiring(func() {
		s.mu.Lock()
		if s.unsubscribe == nil {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()
		s.renew(ctx)
	})
	s.logger.Debug("started")
}

// Stop unsubscribes, cancels any renewal in progress and waits for it to
// return.
func (s *SilentRenewService) Stop() {
	s.mu.Lock()
	if s.unsubscribe == nil {
		s.mu.Unlock()
		return
	}
	s.unsubscribe()
	s.unsubscribe = nil
	s.backgroundCtxCancel()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Debug("stopped")
}

// renew runs one silent sign-in.  An expiring event raised while a renewal
// is already running is dropped.
func (s *SilentRenewService) renew(ctx context.Context) {
	if !s.renewing.TryLock() {
		s.logger.Debug("renewal already in progress")
		return
	}
	defer s.renewing.Unlock()
	if ctx.Err() != nil {
		return
	}
	s.logger.Debug("renewing tokens")
	if _, err := s.manager.SigninSilent(ctx, nil); err != nil {
		s.logger.Error("silent renew failed", "error", err)
		s.manager.events.RaiseSilentRenewError(err)
		return
	}
	s.logger.Debug("tokens renewed")
}

// serviceOptions is the set of available options for the background services
type serviceOptions struct {
	withLogger hclog.Logger
}

// serviceDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func serviceDefaults() serviceOptions {
	return serviceOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

// getServiceOpts gets the defaults and applies the opt overrides passed in.
func getServiceOpts(opt ...Option) serviceOptions {
	opts := serviceDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}
