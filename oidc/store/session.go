package store

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/jkabonick-ft/oidc-client/oidc"
)

type httpKey struct{}

type httpPair struct {
	w http.ResponseWriter
	r *http.Request
}

// WithHTTP returns a ctx carrying the current request and its
// ResponseWriter, which a SessionStore reads and writes the session with.
func WithHTTP(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	return context.WithValue(ctx, httpKey{}, httpPair{w: w, r: r})
}

func fromContext(ctx context.Context) (httpPair, bool) {
	p, ok := ctx.Value(httpKey{}).(httpPair)
	return p, ok && p.w != nil && p.r != nil
}

// SessionStore is an oidc.Store which keeps values in a gorilla/sessions
// session.  Every call needs a ctx from WithHTTP.  Sessions backed by
// cookies are limited in size; a sessions.FilesystemStore keeps only the
// session id in the cookie.
type SessionStore struct {
	store sessions.Store
	name  string
}

var _ oidc.Store = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore using the sessions.Store.
//
// Supported options:
//
//	WithSessionName
func NewSessionStore(s sessions.Store, opt ...oidc.Option) (*SessionStore, error) {
	const op = "store.NewSessionStore"
	if s == nil {
		return nil, fmt.Errorf("%s: sessions store is nil: %w", op, oidc.ErrNilParameter)
	}
	opts := getStoreOpts(opt...)
	if opts.withSessionName == "" {
		return nil, fmt.Errorf("%s: session name is empty: %w", op, oidc.ErrInvalidParameter)
	}
	return &SessionStore{store: s, name: opts.withSessionName}, nil
}

func (s *SessionStore) session(ctx context.Context) (*sessions.Session, httpPair, error) {
	p, ok := fromContext(ctx)
	if !ok {
		return nil, p, fmt.Errorf("no http request in ctx: %w", oidc.ErrInvalidParameter)
	}
	// an invalid or expired cookie still returns a new, usable session
	sess, err := s.store.Get(p.r, s.name)
	if sess == nil {
		return nil, p, fmt.Errorf("unable to get session: %w", err)
	}
	return sess, p, nil
}

// Get returns oidc.ErrNotFound when there's no value for the key.
func (s *SessionStore) Get(ctx context.Context, key string) (string, error) {
	const op = "SessionStore.Get"
	sess, _, err := s.session(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	v, ok := sess.Values[key].(string)
	if !ok {
		return "", fmt.Errorf("%s: %w", op, oidc.ErrNotFound)
	}
	return v, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	const op = "SessionStore.Set"
	sess, p, err := s.session(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	sess.Values[key] = value
	if err := sess.Save(p.r, p.w); err != nil {
		return fmt.Errorf("%s: unable to save session: %w", op, err)
	}
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, key string) error {
	const op = "SessionStore.Remove"
	sess, p, err := s.session(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := sess.Values[key]; !ok {
		return nil
	}
	delete(sess.Values, key)
	if err := sess.Save(p.r, p.w); err != nil {
		return fmt.Errorf("%s: unable to save session: %w", op, err)
	}
	return nil
}
