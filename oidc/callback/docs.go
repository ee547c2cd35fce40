/*
callback is a package that provides callbacks (in the form of http.HandlerFunc)
which complete the sign-in and sign-out flows of an oidc.UserManager when the
authorization server redirects the user agent back to the application.
*/
package callback
