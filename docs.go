// oidcclient provides a collection of related packages which implement the
// session lifecycle of an OpenID Connect relying party: sign-in and sign-out
// flows, token renewal and revocation, and provider session monitoring.
//
// See oidc.UserManager and cmd/oidc-session.
package oidcclient
