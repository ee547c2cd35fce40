package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jkabonick-ft/oidc-client/oidc"
)

// requestKeyPrefix namespaces pending requests in the oidc.Store.
const requestKeyPrefix = "oidc.request:"

// pendingRequest is the state of a request waiting for its response.  It's
// stored under its state id and consumed by the response.
type pendingRequest struct {
	ID           string `json:"id"`
	Nonce        string `json:"nonce,omitempty"`
	CodeVerifier string `json:"code_verifier,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	ResponseType string `json:"response_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	Data         string `json:"data,omitempty"`
	Signout      bool   `json:"signout,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (r *pendingRequest) expired(now time.Time) bool {
	return !time.Unix(r.ExpiresAt, 0).After(now)
}

func (c *Client) saveRequest(ctx context.Context, r *pendingRequest) error {
	const op = "Client.saveRequest"
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%s: unable to marshal request: %w", op, err)
	}
	if err := c.store.Set(ctx, requestKeyPrefix+r.ID, string(b)); err != nil {
		return fmt.Errorf("%s: unable to store request: %w", op, err)
	}
	return nil
}

// consumeRequest reads and removes the pending request for the state.  An
// unknown state is an ErrResponseStateInvalid error.
func (c *Client) consumeRequest(ctx context.Context, state string) (*pendingRequest, error) {
	const op = "Client.consumeRequest"
	key := requestKeyPrefix + state
	v, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, oidc.ErrNotFound):
		return nil, fmt.Errorf("%s: no request for state %q: %w: %w", op, state, oidc.ErrProtocol, oidc.ErrResponseStateInvalid)
	case err != nil:
		return nil, fmt.Errorf("%s: unable to read request: %w", op, err)
	}
	if err := c.store.Remove(ctx, key); err != nil {
		return nil, fmt.Errorf("%s: unable to remove request: %w", op, err)
	}
	var r pendingRequest
	if err := json.Unmarshal([]byte(v), &r); err != nil {
		return nil, fmt.Errorf("%s: unable to unmarshal request: %w", op, err)
	}
	if r.ID != state {
		return nil, fmt.Errorf("%s: request and response state are not equal: %w: %w", op, oidc.ErrProtocol, oidc.ErrResponseStateInvalid)
	}
	if r.expired(c.now()) {
		return nil, fmt.Errorf("%s: request is expired: %w: %w", op, oidc.ErrProtocol, oidc.ErrExpiredState)
	}
	return &r, nil
}
