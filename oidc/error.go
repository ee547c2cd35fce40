package oidc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter          = errors.New("invalid parameter")
	ErrNilParameter              = errors.New("nil parameter")
	ErrInvalidCACert             = errors.New("invalid CA certificate")
	ErrIdGeneratorFailed         = errors.New("id generation failed")
	ErrExpiredState              = errors.New("state is expired")
	ErrResponseStateInvalid      = errors.New("oidc response state")
	ErrMissingIDToken            = errors.New("id_token is missing")
	ErrIDTokenVerificationFailed = errors.New("id_token verification failed")
	ErrInvalidNonce              = errors.New("invalid nonce")
	ErrNotFound                  = errors.New("not found")

	// ErrConfiguration is returned when a flow can't be started because a
	// required setting (like a redirect URI) can't be resolved.  It's always
	// returned before any navigator is touched.
	ErrConfiguration = errors.New("configuration error")

	// ErrNavigation is returned by navigators when the navigation surface
	// could not be acquired, was closed by the user, or failed to load.
	ErrNavigation = errors.New("navigation failed")

	// ErrProtocol is returned when a callback response is malformed, invalid
	// or is an authorization server error response.
	ErrProtocol = errors.New("protocol error")

	// ErrTimeout is returned when a popup or silent navigation doesn't
	// complete within its configured timeout.
	ErrTimeout = errors.New("timed out")

	// ErrUnsupported is returned when an operation requires a provider
	// capability that wasn't discovered (for example: token revocation).
	ErrUnsupported = errors.New("unsupported operation")
)

// ErrorResponse represents an OAuth2/OIDC error response returned to a
// callback URL. See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
//
// An *ErrorResponse always satisfies errors.Is(err, ErrProtocol).
type ErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	URI         string `json:"error_uri,omitempty"`

	// State is the application data associated with the request, when the
	// error response could be matched to one.
	State string `json:"state,omitempty"`
}

// Error satisfies the error interface.
func (e *ErrorResponse) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// Is reports whether the target is ErrProtocol.
func (e *ErrorResponse) Is(target error) bool {
	return target == ErrProtocol
}
