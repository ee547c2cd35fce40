package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
	"github.com/urfave/cli/v2"
)

var loginCommand = &cli.Command{
	Name:  "login",
	Usage: "sign in with the system browser",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "login-hint", Usage: "hint of the user's login identifier"},
		&cli.StringFlag{Name: "prompt", Usage: "prompt parameter (login, consent, select_account)"},
		&cli.IntFlag{Name: "max-age", Value: -1, Usage: "max age of the user's authentication, in seconds"},
	},
	Action: withManager(func(cctx *cli.Context, m *oidc.UserManager, cfg config) error {
		args := &oidc.SigninArgs{
			LoginHint: cctx.String("login-hint"),
			Prompt:    cctx.String("prompt"),
			Timeout:   cfg.Timeout,
		}
		if maxAge := cctx.Int("max-age"); maxAge >= 0 {
			args.MaxAge = &maxAge
		}
		fmt.Fprintf(cctx.App.ErrWriter, "Complete the sign-in with your provider in the browser.\n")
		u, err := m.SigninPopup(cctx.Context, args)
		if err != nil {
			return err
		}
		return printUser(cctx.App.Writer, u, false)
	}),
}

var whoamiCommand = &cli.Command{
	Name:  "whoami",
	Usage: "show the signed in user",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "show-tokens", Usage: "include the tokens"},
	},
	Action: withManager(func(cctx *cli.Context, m *oidc.UserManager, _ config) error {
		u, err := m.GetUser(cctx.Context)
		if err != nil {
			return err
		}
		if u == nil {
			return errNotSignedIn
		}
		return printUser(cctx.App.Writer, u, cctx.Bool("show-tokens"))
	}),
}

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "query the provider's session without user interaction",
	Action: withManager(func(cctx *cli.Context, m *oidc.UserManager, _ config) error {
		status, err := m.QuerySessionStatus(cctx.Context, nil)
		var errResp *oidc.ErrorResponse
		switch {
		case errors.As(err, &errResp):
			fmt.Fprintf(cctx.App.Writer, "no provider session: %s\n", errResp.Code)
			return nil
		case err != nil:
			return err
		case status == nil:
			fmt.Fprintln(cctx.App.Writer, "no provider session")
			return nil
		}
		return writeJSON(cctx.App.Writer, status)
	}),
}

var renewCommand = &cli.Command{
	Name:  "renew",
	Usage: "renew the tokens with the refresh token or a silent sign-in",
	Action: withManager(func(cctx *cli.Context, m *oidc.UserManager, _ config) error {
		u, err := m.SigninSilent(cctx.Context, nil)
		if err != nil {
			return err
		}
		return printUser(cctx.App.Writer, u, false)
	}),
}

var revokeCommand = &cli.Command{
	Name:  "revoke",
	Usage: "revoke the access token at the provider",
	Action: withManager(func(cctx *cli.Context, m *oidc.UserManager, _ config) error {
		if err := m.RevokeAccessToken(cctx.Context); err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, "access token revoked")
		return nil
	}),
}

var logoutCommand = &cli.Command{
	Name:  "logout",
	Usage: "sign out at the provider with the system browser",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "local", Usage: "only forget the user, without signing out at the provider"},
	},
	Action: withManager(func(cctx *cli.Context, m *oidc.UserManager, cfg config) error {
		if cctx.Bool("local") {
			if err := m.RemoveUser(cctx.Context); err != nil {
				return err
			}
			fmt.Fprintln(cctx.App.Writer, "signed out locally")
			return nil
		}
		if _, err := m.SignoutPopup(cctx.Context, &oidc.SignoutArgs{Timeout: cfg.Timeout}); err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, "signed out")
		return nil
	}),
}

var errNotSignedIn = errors.New("not signed in")

// withManager loads the configuration and creates a UserManager for the
// action.  Ctrl-C cancels the action's context.
func withManager(fn func(*cli.Context, *oidc.UserManager, config) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx.StringSlice("env-file")...)
		if err != nil {
			return err
		}
		logger := cfg.logger()

		ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt)
		defer stop()
		cctx.Context = ctx

		m, cleanup, err := newCLIManager(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		logEvents(m.Events(), logger)
		return fn(cctx, m, cfg)
	}
}

func logEvents(e *oidc.Events, logger hclog.Logger) {
	e.AddUserLoaded(func(u *oidc.User) { logger.Debug("user loaded", "sub", u.Subject()) })
	e.AddUserUnloaded(func() { logger.Debug("user unloaded") })
	e.AddAccessTokenExpired(func() { logger.Info("access token expired") })
	e.AddSilentRenewError(func(err error) { logger.Error("silent renew failed", "error", err) })
}

// printableUser is the user as it's printed.  The tokens are left out unless
// they're asked for.
type printableUser struct {
	Subject      string                 `json:"sub"`
	Scopes       []string               `json:"scopes"`
	ExpiresAt    time.Time              `json:"expires_at,omitempty"`
	Expired      bool                   `json:"expired"`
	SessionState string                 `json:"session_state,omitempty"`
	Profile      map[string]interface{} `json:"profile"`
	AccessToken  string                 `json:"access_token,omitempty"`
	IDToken      string                 `json:"id_token,omitempty"`
	RefreshToken string                 `json:"refresh_token,omitempty"`
}

func newPrintableUser(u *oidc.User, showTokens bool) printableUser {
	p := printableUser{
		Subject:      u.Subject(),
		Scopes:       u.Scopes(),
		Expired:      u.Expired(),
		SessionState: u.SessionState,
		Profile:      u.Profile,
	}
	if u.ExpiresAt > 0 {
		p.ExpiresAt = time.Unix(u.ExpiresAt, 0).UTC()
	}
	if showTokens {
		p.AccessToken = u.AccessToken
		p.IDToken = u.IDToken
		p.RefreshToken = u.RefreshToken
	}
	return p
}

func printUser(w io.Writer, u *oidc.User, showTokens bool) error {
	return writeJSON(w, newPrintableUser(u, showTokens))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
