package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
	"github.com/jkabonick-ft/oidc-client/oidc/navigator"
	"github.com/jkabonick-ft/oidc-client/oidc/protocol"
	"github.com/jkabonick-ft/oidc-client/oidc/revocation"
	"github.com/jkabonick-ft/oidc-client/oidc/store"
)

// closableStore is an oidc.Store holding a connection.
type closableStore interface {
	oidc.Store
	Close() error
}

// openStore opens Redis when a url is configured, otherwise the SQL
// database.
func openStore(ctx context.Context, cfg config) (closableStore, error) {
	const op = "openStore"
	if cfg.RedisURL != "" {
		s, err := store.NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	}
	dbURL, err := cfg.databaseURL()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s, err := store.NewSQLStoreFromURL(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// newProtocolClient creates the protocol client, keeping pending requests in
// the store.
func newProtocolClient(cfg config, s *oidc.Settings, st oidc.Store, logger hclog.Logger) (*protocol.Client, error) {
	const op = "newProtocolClient"
	caPEM, err := cfg.providerCA()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := []oidc.Option{
		protocol.WithProviderCA(caPEM),
		protocol.WithStore(st),
		protocol.WithRequestTTL(cfg.Timeout),
		protocol.WithLogger(logger),
	}
	if cfg.UserInfo {
		opts = append(opts, protocol.WithUserInfo())
	}
	pc, err := protocol.NewClientFromSettings(s, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pc, nil
}

// newCLIManager creates a UserManager for the terminal: popup navigations
// open the system browser and wait on a loopback listener, silent
// navigations follow redirects with the protocol client's http.Client.
func newCLIManager(ctx context.Context, cfg config, logger hclog.Logger) (*oidc.UserManager, func(), error) {
	const op = "newCLIManager"
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warn("unable to close store", "error", err)
		}
	}
	s, err := cfg.settings()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	pc, err := newProtocolClient(cfg, s, st, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	silent, err := navigator.NewHeadless(
		navigator.WithHTTPClient(pc.HTTPClient()),
		navigator.WithLogger(logger),
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	m, err := oidc.NewUserManager(s, pc,
		oidc.WithStore(st),
		oidc.WithPopupNavigator(navigator.NewLoopback(navigator.WithLogger(logger))),
		oidc.WithSilentNavigator(silent),
		oidc.WithRevocationClientFactory(oidc.NewRevocationClientFactory(s,
			revocation.WithHTTPClient(pc.HTTPClient()),
			revocation.WithLogger(logger),
		)),
		oidc.WithLogger(logger),
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, func() {
		m.Done()
		cleanup()
	}, nil
}
