package oidc

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// User represents the locally held authenticated identity and its tokens.
// A User is either fully present or absent (nil); the UserManager never
// persists a partial one.
type User struct {
	// Profile holds the identity claims (sub, name, email, etc).
	Profile map[string]interface{} `json:"profile"`

	AccessToken  string `json:"access_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`

	// ExpiresAt is the access token expiry in seconds since the epoch.  Zero
	// means the expiry is unknown.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// SessionState is the provider's session_state marker.
	SessionState string `json:"session_state,omitempty"`

	// State is the application data passed through the sign-in request.
	State string `json:"state,omitempty"`
}

// SessionStatus is the compact result of a session status query.
type SessionStatus struct {
	SessionState string `json:"session_state"`
	Sub          string `json:"sub"`
}

// NewUser creates a User from a sign-in response.
func NewUser(r *SigninResponse) (*User, error) {
	const op = "NewUser"
	if r == nil {
		return nil, fmt.Errorf("%s: signin response is nil: %w", op, ErrNilParameter)
	}
	profile := make(map[string]interface{}, len(r.Profile))
	for k, v := range r.Profile {
		profile[k] = v
	}
	return &User{
		Profile:      profile,
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		Scope:        r.Scope,
		ExpiresAt:    r.ExpiresAt,
		SessionState: r.SessionState,
		State:        r.State,
	}, nil
}

// Subject returns the "sub" claim from the profile, or an empty string.
func (u *User) Subject() string {
	if u == nil {
		return ""
	}
	sub, _ := u.Profile["sub"].(string)
	return sub
}

// Scopes returns the granted scopes.
func (u *User) Scopes() []string {
	if u == nil {
		return nil
	}
	return strings.Fields(u.Scope)
}

// ExpiresIn returns the time until the access token expires.  It returns
// zero when the expiry is unknown and a negative duration once it's expired.
func (u *User) ExpiresIn() time.Duration {
	if u == nil || u.ExpiresAt == 0 {
		return 0
	}
	return time.Until(time.Unix(u.ExpiresAt, 0))
}

// DefaultUserExpirySkew defines a default time skew when checking a User's
// access token expiration.
const DefaultUserExpirySkew = 10 * time.Second

// Expired returns true if the access token has expired.  A User without a
// known expiry is never expired.  Supports the WithExpirySkew option and if
// none is provided it will use the DefaultUserExpirySkew.
func (u *User) Expired(opt ...Option) bool {
	if u == nil || u.ExpiresAt == 0 {
		return false
	}
	opts := getUserOpts(opt...)
	return time.Unix(u.ExpiresAt, 0).Before(time.Now().Add(opts.withExpirySkew))
}

// clearAccessToken drops the access token related fields while keeping the
// identity.
func (u *User) clearAccessToken() {
	u.AccessToken = ""
	u.ExpiresAt = 0
	u.TokenType = ""
}

func (u *User) toStorageString() (string, error) {
	const op = "User.toStorageString"
	b, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("%s: unable to marshal user: %w", op, err)
	}
	return string(b), nil
}

func userFromStorageString(s string) (*User, error) {
	const op = "userFromStorageString"
	var u User
	if err := json.Unmarshal([]byte(s), &u); err != nil {
		return nil, fmt.Errorf("%s: unable to unmarshal user: %w", op, err)
	}
	return &u, nil
}

// userOptions is the set of available options for User functions
type userOptions struct {
	withExpirySkew time.Duration
}

// userDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func userDefaults() userOptions {
	return userOptions{
		withExpirySkew: DefaultUserExpirySkew,
	}
}

// getUserOpts gets the user defaults and applies the opt overrides passed in
func getUserOpts(opt ...Option) userOptions {
	opts := userDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
