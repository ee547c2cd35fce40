// Package store provides oidc.Store implementations which outlive a single
// process: a Redis store, shared by every instance of a service, a SQL store
// (sqlite or postgres through gorm), and a session store, which keeps the
// values in the user agent's gorilla/sessions session.
package store
