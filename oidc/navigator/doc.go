/*
Package navigator provides the oidc.Navigator implementations used by a
UserManager to carry the user agent through an authorization server round
trip.

Redirect answers the current http request with a redirect to the
authorization server.  The flow continues on the page receiving the
callback (see UserManager.SigninRedirectCallback).  The ResponseWriter is
carried by the ctx:

	ctx := navigator.WithResponseWriter(r.Context(), w)
	err := mgr.SigninRedirect(ctx, nil)

Loopback is the popup navigator of native apps: it opens the system browser
and listens on the loopback redirect URI for the callback.

Headless is the silent navigator: it follows the authorization server's
redirects with an http.Client (and its cookie jar) until they reach the
redirect URI, without any user interaction.
*/
package navigator
