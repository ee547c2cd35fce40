// Package protocol implements oidc.ProtocolClient for OpenID providers, on
// top of github.com/coreos/go-oidc and golang.org/x/oauth2.
//
// Authorization requests use the authorization code flow with PKCE unless an
// id_token response type is requested (as QuerySessionStatus does).
// End-session requests follow OpenID Connect RP-Initiated Logout.
package protocol
