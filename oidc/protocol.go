package oidc

import (
	"context"

	"golang.org/x/text/language"
)

// ProtocolClient builds authorization and end-session requests and turns
// their callback URLs into structured responses.  It owns the cryptographic
// and state validation of those responses.
//
// See the protocol package for an implementation.
type ProtocolClient interface {
	// CreateSigninRequest builds an authorization request.
	CreateSigninRequest(ctx context.Context, args SigninRequestArgs) (*SigninRequest, error)

	// ProcessSigninResponse validates the callback URL of an authorization
	// request and returns its result.
	ProcessSigninResponse(ctx context.Context, url string) (*SigninResponse, error)

	// CreateSignoutRequest builds an end-session request.
	CreateSignoutRequest(ctx context.Context, args SignoutRequestArgs) (*SignoutRequest, error)

	// ProcessSignoutResponse validates the callback URL of an end-session
	// request.
	ProcessSignoutResponse(ctx context.Context, url string) (*SignoutResponse, error)

	// RevocationEndpoint returns the discovered revocation endpoint, or an
	// empty string when the provider doesn't advertise one.
	RevocationEndpoint(ctx context.Context) (string, error)
}

// TokenRefresher is optionally implemented by a ProtocolClient which can
// renew a User's tokens with its refresh token, without a navigation.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, u *User) (*SigninResponse, error)
}

// SigninRequestArgs are the arguments used to build an authorization request.
// Empty fields are omitted from the request.
type SigninRequestArgs struct {
	RedirectURI  string
	ResponseType string
	Scope        string
	ResponseMode string
	Prompt       string
	Display      string
	MaxAge       *int
	UILocales    []language.Tag
	IDTokenHint  string
	LoginHint    string
	ACRValues    string

	// Data is application state which is returned with the User.
	Data string

	// ExtraQueryParams are added to the request as-is.
	ExtraQueryParams map[string]string
}

// SigninRequest is a built authorization request.
type SigninRequest struct {
	URL   string
	State string
}

// SigninResponse is the validated result of an authorization request.
type SigninResponse struct {
	Profile      map[string]interface{}
	AccessToken  string
	TokenType    string
	IDToken      string
	RefreshToken string
	Scope        string
	ExpiresAt    int64
	SessionState string

	// State is the application data from SigninRequestArgs.Data.
	State string
}

// SignoutRequestArgs are the arguments used to build an end-session request.
type SignoutRequestArgs struct {
	IDTokenHint           string
	PostLogoutRedirectURI string

	// Data is application state which is returned with the SignoutResponse.
	Data string

	ExtraQueryParams map[string]string
}

// SignoutRequest is a built end-session request.
type SignoutRequest struct {
	URL   string
	State string
}

// SignoutResponse is the validated result of an end-session request.
type SignoutResponse struct {
	// State is the application data from SignoutRequestArgs.Data.
	State string
}
