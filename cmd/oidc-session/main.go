package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "oidc-session",
		Usage: "sign in to an OpenID Connect provider and manage the session",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "env files to load before reading the configuration (default: .env, if present)",
			},
		},
		Commands: []*cli.Command{
			loginCommand,
			whoamiCommand,
			statusCommand,
			renewCommand,
			revokeCommand,
			logoutCommand,
			serveCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
