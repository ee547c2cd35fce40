package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-hclog"
	"github.com/jkabonick-ft/oidc-client/oidc"
	"github.com/joho/godotenv"
)

const (
	callbackPath   = "/callback"
	signedOutPath  = "/signed-out"
	stateDirName   = "oidc-session"
	defaultDBName  = "store.sqlite"
	sessionDirName = "sessions"
)

// config is read from the environment, after loading an optional .env file.
type config struct {
	Issuer         string        `env:"OIDC_ISSUER,required,notEmpty"`
	ClientID       string        `env:"OIDC_CLIENT_ID,required,notEmpty"`
	ClientSecret   string        `env:"OIDC_CLIENT_SECRET"`
	Port           int           `env:"OIDC_PORT" envDefault:"8250"`
	PublicURL      string        `env:"OIDC_PUBLIC_URL"`
	Scopes         []string      `env:"OIDC_SCOPES" envSeparator:"," envDefault:"openid,profile,email"`
	ProviderCAFile string        `env:"OIDC_PROVIDER_CA_FILE"`
	UserInfo       bool          `env:"OIDC_USER_INFO"`
	Timeout        time.Duration `env:"OIDC_TIMEOUT" envDefault:"2m"`
	RevokeOnLogout bool          `env:"OIDC_REVOKE_ON_LOGOUT" envDefault:"true"`

	RedisURL      string `env:"OIDC_REDIS_URL"`
	DatabaseURL   string `env:"OIDC_DATABASE_URL"`
	SessionDir    string `env:"OIDC_SESSION_DIR"`
	SessionSecret string `env:"OIDC_SESSION_SECRET"`

	LogLevel string `env:"OIDC_LOG_LEVEL" envDefault:"warn"`
}

// loadConfig loads the env files (".env" when none are given, which may be
// missing) and parses the environment.
func loadConfig(envFiles ...string) (config, error) {
	const op = "loadConfig"
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return config{}, fmt.Errorf("%s: unable to load env file: %w", op, err)
		}
	}
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return config{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func (c config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("OIDC_PORT %d is out of range: %w", c.Port, oidc.ErrInvalidParameter)
	case c.Timeout <= 0:
		return fmt.Errorf("OIDC_TIMEOUT must be positive: %w", oidc.ErrInvalidParameter)
	case hclog.LevelFromString(c.LogLevel) == hclog.NoLevel:
		return fmt.Errorf("OIDC_LOG_LEVEL %q is unknown: %w", c.LogLevel, oidc.ErrInvalidParameter)
	}
	return nil
}

// baseURL is where the provider redirects the user agent back to.  The CLI
// uses a loopback address; serve may be given a public url.
func (c config) baseURL() string {
	if c.PublicURL != "" {
		return strings.TrimSuffix(c.PublicURL, "/")
	}
	return "http://127.0.0.1:" + strconv.Itoa(c.Port)
}

func (c config) settings(opt ...oidc.Option) (*oidc.Settings, error) {
	opts := []oidc.Option{
		oidc.WithClientSecret(oidc.ClientSecret(c.ClientSecret)),
		oidc.WithRedirectURI(c.baseURL() + callbackPath),
		oidc.WithPostLogoutRedirectURI(c.baseURL() + signedOutPath),
		oidc.WithScopes(c.Scopes...),
		oidc.WithSilentRequestTimeout(c.Timeout),
	}
	if c.RevokeOnLogout {
		opts = append(opts, oidc.WithRevokeAccessTokenOnSignout())
	}
	return oidc.NewSettings(c.Issuer, c.ClientID, append(opts, opt...)...)
}

func (c config) providerCA() (string, error) {
	if c.ProviderCAFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.ProviderCAFile)
	if err != nil {
		return "", fmt.Errorf("unable to read OIDC_PROVIDER_CA_FILE: %w", err)
	}
	return string(b), nil
}

// databaseURL defaults to a sqlite file in the user's state directory.
func (c config) databaseURL() (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	p, err := xdg.StateFile(filepath.Join(stateDirName, defaultDBName))
	if err != nil {
		return "", fmt.Errorf("unable to locate state directory: %w", err)
	}
	return "sqlite://" + p, nil
}

// sessionDir defaults to a directory in the user's state directory.
func (c config) sessionDir() (string, error) {
	dir := c.SessionDir
	if dir == "" {
		var err error
		if dir, err = xdg.StateFile(filepath.Join(stateDirName, sessionDirName, ".keep")); err != nil {
			return "", fmt.Errorf("unable to locate state directory: %w", err)
		}
		dir = filepath.Dir(dir)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("unable to create session directory: %w", err)
	}
	return dir, nil
}

func (c config) logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "oidc-session",
		Level:  hclog.LevelFromString(c.LogLevel),
		Output: os.Stderr,
	})
}
