package oidc

import (
	"context"
	"fmt"
	"strings"

	"github.com/jkabonick-ft/oidc-client/oidc/revocation"
)

// RevocationClient revokes tokens at a provider's revocation endpoint.
type RevocationClient interface {
	Revoke(ctx context.Context, token string) error
}

// RevocationClientFactory builds a RevocationClient bound to a revocation
// endpoint URL and client id.
type RevocationClientFactory func(url, clientID string) (RevocationClient, error)

// NewRevocationClientFactory returns the default RevocationClientFactory,
// which builds a *revocation.Client using the client secret from settings.
func NewRevocationClientFactory(s *Settings, opt ...revocation.Option) RevocationClientFactory {
	return func(url, clientID string) (RevocationClient, error) {
		opts := append([]revocation.Option{}, opt...)
		if s != nil && s.ClientSecret != "" {
			opts = append(opts, revocation.WithClientSecret(string(s.ClientSecret)))
		}
		return revocation.NewClient(url, clientID, opts...)
	}
}

// isStructuredToken reports whether the token is a self-contained
// (dot-delimited) token.  Those can't be revoked and are left to expire.
func isStructuredToken(token string) bool {
	return strings.Contains(token, ".")
}

// revokeInternal revokes the user's access token.  It's a no-op when there's
// no user, no access token or the access token isn't an opaque reference
// token.
func (m *UserManager) revokeInternal(ctx context.Context, u *User) error {
	const op = "UserManager.revokeInternal"
	if u == nil || u.AccessToken == "" || isStructuredToken(u.AccessToken) {
		m.logger.Debug("no opaque access token to revoke")
		return nil
	}
	c, err := m.revocationClient(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.Revoke(ctx, u.AccessToken); err != nil {
		return fmt.Errorf("%s: unable to revoke access token: %w", op, err)
	}
	m.logger.Debug("access token revoked")
	return nil
}

// revocationClient returns the cached RevocationClient, building it on first
// use.  Concurrent first uses share one discovery and construction.  A
// provider without a revocation endpoint yields ErrUnsupported and nothing is
// cached.
func (m *UserManager) revocationClient(ctx context.Context) (RevocationClient, error) {
	const op = "UserManager.revocationClient"
	m.revocationMu.Lock()
	c := m.revocation
	m.revocationMu.Unlock()
	if c != nil {
		return c, nil
	}
	v, err, _ := m.revocationGroup.Do("revocation", func() (interface{}, error) {
		m.revocationMu.Lock()
		if m.revocation != nil {
			defer m.revocationMu.Unlock()
			return m.revocation, nil
		}
		m.revocationMu.Unlock()

		url, err := m.client.RevocationEndpoint(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to discover revocation endpoint: %w", err)
		}
		if url == "" {
			return nil, fmt.Errorf("revocation not supported: %w", ErrUnsupported)
		}
		rc, err := m.revocationFactory(url, m.settings.ClientID)
		if err != nil {
			return nil, fmt.Errorf("unable to create revocation client: %w", err)
		}
		m.revocationMu.Lock()
		m.revocation = rc
		m.revocationMu.Unlock()
		return rc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v.(RevocationClient), nil
}
