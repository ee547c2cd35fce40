package callback

import (
	"net/http"

	"github.com/jkabonick-ft/oidc-client/oidc"
)

// SuccessResponseFunc is used by SigninRedirect to create a http response
// when the sign-in is completed.  The oidc.User has already been stored by
// the UserManager.  Its State field carries the application data of the
// request.
type SuccessResponseFunc func(u *oidc.User, w http.ResponseWriter, req *http.Request)

// SignoutResponseFunc is used by SignoutRedirect to create a http response
// when the sign-out is completed.
type SignoutResponseFunc func(resp *oidc.SignoutResponse, w http.ResponseWriter, req *http.Request)

// DoneResponseFunc is used by the popup and silent callbacks to create a
// http response once the callback was handed to the waiting navigator.
type DoneResponseFunc func(w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by callbacks to create a http response when the
// callback fails.
//
// The state is the request's application data when the response could be
// matched to its request, otherwise the response's state parameter.  It
// also gets the authorization server's error response (when there was one)
// or the error raised while processing the callback.
type ErrorResponseFunc func(state string, respErr *oidc.ErrorResponse, e error, w http.ResponseWriter, req *http.Request)
