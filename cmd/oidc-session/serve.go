package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
	"github.com/jkabonick-ft/oidc-client/oidc/callback"
	"github.com/jkabonick-ft/oidc-client/oidc/navigator"
	"github.com/jkabonick-ft/oidc-client/oidc/revocation"
	"github.com/jkabonick-ft/oidc-client/oidc/store"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "run a web application which signs users in with redirects",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "listen address (default: 127.0.0.1:$OIDC_PORT)"},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx.StringSlice("env-file")...)
		if err != nil {
			return err
		}
		logger := cfg.logger()
		srv, cleanup, err := newServer(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		addr := cctx.String("addr")
		if addr == "" {
			addr = net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Port))
		}
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt)
		defer stop()
		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting http server", "addr", addr, "url", cfg.baseURL())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

// server is a web application which keeps each browser's user and pending
// requests in its session.
type server struct {
	manager *oidc.UserManager
	logger  hclog.Logger
}

func newServer(cfg config, logger hclog.Logger) (*server, func(), error) {
	const op = "newServer"
	if cfg.SessionSecret == "" {
		return nil, nil, fmt.Errorf("%s: OIDC_SESSION_SECRET is empty: %w", op, oidc.ErrInvalidParameter)
	}
	dir, err := cfg.sessionDir()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	fs := sessions.NewFilesystemStore(dir, []byte(cfg.SessionSecret))
	fs.Options.HttpOnly = true
	fs.Options.SameSite = http.SameSiteLaxMode
	fs.Options.Secure = strings.HasPrefix(cfg.baseURL(), "https://")
	ss, err := store.NewSessionStore(fs)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s, err := cfg.settings()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	pc, err := newProtocolClient(cfg, s, ss, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	m, err := oidc.NewUserManager(s, pc,
		oidc.WithStore(ss),
		oidc.WithRedirectNavigator(navigator.NewRedirect(navigator.WithLogger(logger))),
		oidc.WithRevocationClientFactory(oidc.NewRevocationClientFactory(s,
			revocation.WithHTTPClient(pc.HTTPClient()),
			revocation.WithLogger(logger),
		)),
		oidc.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return &server{manager: m, logger: logger.Named("server")}, m.Done, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(httpContext)

	r.Get("/", s.home)
	r.Get("/login", s.login)
	r.Get(callbackPath, callback.SigninRedirect(s.manager, s.signedIn, s.callbackError))
	r.Post("/logout", s.logout)
	r.Get(signedOutPath, callback.SignoutRedirect(s.manager, s.signedOut, s.callbackError))
	r.Post("/revoke", s.revoke)
	return r
}

// httpContext makes the request and its ResponseWriter available to the
// redirect navigator and the session store.
func httpContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := navigator.WithResponseWriter(r.Context(), w)
		ctx = store.WithHTTP(ctx, w, r)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>oidc-session</title></head>
<body>
{{with .Message}}<p>{{.}}</p>{{end}}
{{if .User}}
<p>Signed in as <b>{{.User.Subject}}</b>{{if .ExpiresAt}}, access token expires at {{.ExpiresAt}}{{end}}.</p>
<form method="post" action="/revoke"><button type="submit">Revoke access token</button></form>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
{{else}}
<p><a href="/login">Sign in</a></p>
{{end}}
</body>
</html>
`))

type homePage struct {
	User      *oidc.User
	ExpiresAt string
	Message   string
}

func (s *server) render(w http.ResponseWriter, status int, u *oidc.User, msg string) {
	p := homePage{User: u, Message: msg}
	if u != nil && u.ExpiresAt > 0 {
		p.ExpiresAt = time.Unix(u.ExpiresAt, 0).UTC().Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := homeTemplate.Execute(w, p); err != nil {
		s.logger.Error("unable to render page", "error", err)
	}
}

func (s *server) home(w http.ResponseWriter, r *http.Request) {
	u, err := s.manager.GetUser(r.Context())
	if err != nil {
		s.logger.Error("unable to get user", "error", err)
		s.render(w, http.StatusInternalServerError, nil, "Unable to read your session.")
		return
	}
	var msg string
	switch r.URL.Query().Get("msg") {
	case "revoked":
		msg = "Your access token was revoked."
	case "signed-out":
		msg = "You're signed out."
	}
	s.render(w, http.StatusOK, u, msg)
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	args := &oidc.SigninArgs{Data: localPath(r.URL.Query().Get("return_to"))}
	if err := s.manager.SigninRedirect(r.Context(), args); err != nil {
		s.logger.Error("unable to start sign-in", "error", err)
		s.render(w, http.StatusInternalServerError, nil, "Unable to start the sign-in.")
	}
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.SignoutRedirect(r.Context(), nil); err != nil {
		s.logger.Error("unable to start sign-out", "error", err)
		s.render(w, http.StatusInternalServerError, nil, "Unable to start the sign-out.")
	}
}

func (s *server) revoke(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.RevokeAccessToken(r.Context()); err != nil {
		s.logger.Error("unable to revoke access token", "error", err)
		s.render(w, http.StatusBadGateway, nil, "Unable to revoke your access token.")
		return
	}
	http.Redirect(w, r, "/?msg=revoked", http.StatusSeeOther)
}

func (s *server) signedIn(u *oidc.User, w http.ResponseWriter, r *http.Request) {
	s.logger.Info("signed in", "sub", u.Subject())
	http.Redirect(w, r, localPath(u.State), http.StatusSeeOther)
}

func (s *server) signedOut(_ *oidc.SignoutResponse, w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/?msg=signed-out", http.StatusSeeOther)
}

func (s *server) callbackError(state string, respErr *oidc.ErrorResponse, e error, w http.ResponseWriter, r *http.Request) {
	switch {
	case respErr != nil:
		s.logger.Warn("provider returned an error", "error", respErr.Code, "description", respErr.Description)
		s.render(w, http.StatusUnauthorized, nil, "The provider refused the request: "+respErr.Code)
	case errors.Is(e, oidc.ErrProtocol):
		s.logger.Warn("invalid callback", "error", e)
		s.render(w, http.StatusBadRequest, nil, "The callback is invalid or expired.")
	default:
		s.logger.Error("callback failed", "error", e)
		s.render(w, http.StatusInternalServerError, nil, "Unable to complete the request.")
	}
}

// localPath returns p when it's a path on this host, otherwise "/".
func localPath(p string) string {
	u, err := url.Parse(p)
	if err != nil || p == "" || u.IsAbs() || u.Host != "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}
