package revocation

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidCACert    = errors.New("invalid CA certificate")

	// ErrRevocationFailed is returned when the revocation endpoint doesn't
	// accept the request.
	ErrRevocationFailed = errors.New("revocation failed")
)
