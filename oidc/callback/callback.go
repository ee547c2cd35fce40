package callback

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jkabonick-ft/oidc-client/oidc"
)

// SigninRedirect creates a callback handler which completes a sign-in
// started with UserManager.SigninRedirect.
//
// The SuccessResponseFunc is used to create a response when callback is
// successful. The ErrorResponseFunc is to create a response when the callback
// fails.
func SigninRedirect(m *oidc.UserManager, sFn SuccessResponseFunc, eFn ErrorResponseFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		const op = "callback.SigninRedirect"
		if m == nil {
			eFn(req.FormValue("state"), nil, fmt.Errorf("%s: user manager is nil: %w", op, oidc.ErrNilParameter), w, req)
			return
		}
		u, err := m.SigninRedirectCallback(req.Context(), callbackURL(req))
		if err != nil {
			handleError(req, err, w, eFn)
			return
		}
		sFn(u, w, req)
	}
}

// SignoutRedirect creates a callback handler which completes a sign-out
// started with UserManager.SignoutRedirect.
func SignoutRedirect(m *oidc.UserManager, sFn SignoutResponseFunc, eFn ErrorResponseFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		const op = "callback.SignoutRedirect"
		if m == nil {
			eFn(req.FormValue("state"), nil, fmt.Errorf("%s: user manager is nil: %w", op, oidc.ErrNilParameter), w, req)
			return
		}
		resp, err := m.SignoutRedirectCallback(req.Context(), callbackURL(req))
		if err != nil {
			handleError(req, err, w, eFn)
			return
		}
		sFn(resp, w, req)
	}
}

// SigninPopup creates a callback handler which hands the callback to the
// popup navigator waiting in UserManager.SigninPopup.
func SigninPopup(m *oidc.UserManager, dFn DoneResponseFunc, eFn ErrorResponseFunc) http.HandlerFunc {
	return navigatorCallback("callback.SigninPopup", m, (*oidc.UserManager).SigninPopupCallback, dFn, eFn)
}

// SignoutPopup creates a callback handler which hands the callback to the
// popup navigator waiting in UserManager.SignoutPopup.
func SignoutPopup(m *oidc.UserManager, dFn DoneResponseFunc, eFn ErrorResponseFunc) http.HandlerFunc {
	return navigatorCallback("callback.SignoutPopup", m, (*oidc.UserManager).SignoutPopupCallback, dFn, eFn)
}

// SigninSilent creates a callback handler which hands the callback to the
// silent navigator waiting in UserManager.SigninSilent.
func SigninSilent(m *oidc.UserManager, dFn DoneResponseFunc, eFn ErrorResponseFunc) http.HandlerFunc {
	return navigatorCallback("callback.SigninSilent", m, (*oidc.UserManager).SigninSilentCallback, dFn, eFn)
}

func navigatorCallback(
	op string,
	m *oidc.UserManager,
	fn func(*oidc.UserManager, context.Context, string) error,
	dFn DoneResponseFunc,
	eFn ErrorResponseFunc,
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if m == nil {
			eFn(req.FormValue("state"), nil, fmt.Errorf("%s: user manager is nil: %w", op, oidc.ErrNilParameter), w, req)
			return
		}
		if err := fn(m, req.Context(), callbackURL(req)); err != nil {
			handleError(req, err, w, eFn)
			return
		}
		dFn(w, req)
	}
}

func handleError(req *http.Request, err error, w http.ResponseWriter, eFn ErrorResponseFunc) {
	var respErr *oidc.ErrorResponse
	if errors.As(err, &respErr) {
		eFn(respErr.State, respErr, nil, w, req)
		return
	}
	eFn(req.FormValue("state"), nil, err, w, req)
}

// callbackURL rebuilds the absolute URL of the callback.  Parameters of a
// form_post response are moved into the query.
func callbackURL(req *http.Request) string {
	u := *req.URL
	if u.Host == "" {
		u.Host = req.Host
	}
	if u.Scheme == "" {
		u.Scheme = "http"
		if req.TLS != nil {
			u.Scheme = "https"
		}
	}
	if req.Method == http.MethodPost {
		if err := req.ParseForm(); err == nil && len(req.PostForm) > 0 {
			q := u.Query()
			for k, v := range req.PostForm {
				q[k] = v
			}
			u.RawQuery = q.Encode()
		}
	}
	return u.String()
}
