/*
oidc is a package for managing the session lifecycle of an OpenID Connect
relying party: signing users in and out, persisting them, renewing their
tokens and tracking the provider's session.

Primary types provided by the package

* Settings: the relying party's configuration (for example: authority,
client id/secret, redirect URIs, scopes, silent renew and session monitoring)

* UserManager: orchestrates the sign-in and sign-out flows.  Each flow is a
chain of a Navigator, the ProtocolClient, the Store and Events: redirect
flows leave the agent at the provider and complete in a callback, popup and
silent flows wait for the provider's response and complete in place.

* User: the signed-in user, with its tokens, expiry, profile claims and
provider session state.

* Events: the observable lifecycle of the User (loaded, unloaded, access
token expiring and expired, silent renew errors, and provider session
changes).

* Store: persistence of the User (and the protocol client's pending
requests).  MemoryStore is an in-process LRU; see the store package for
Redis and gorilla/sessions implementations.

* SilentRenewService and SessionMonitor: background services started by the
UserManager when its Settings enable them.

Sub-packages

* protocol: a ProtocolClient which builds and processes authorization and
end-session requests with provider discovery, PKCE, and id_token
verification.

* navigator: Navigators for server side redirects, the system browser with a
loopback listener, and headless redirect following.

* revocation: an RFC 7009 token revocation client.

* callback: http.HandlerFuncs which complete redirect, popup and silent flows
when the provider redirects back to the application.

* store: Store implementations backed by Redis and gorilla/sessions.
*/
package oidc
