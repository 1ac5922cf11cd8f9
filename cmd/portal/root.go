package main

import (
	"os"
	"strings"

	"github.com/jrsteele09/go-portal-session/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "portal",
		Short: "Portal session shell",
		Long: `portal hosts the session and authorization layer of the portal.

It keeps one visitor's session, verifies the stored credential against the
portal API on start, polls for account revocation and serves the portal shell
with route guards and the maintenance gate in front of every page.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.New()
			if err != nil {
				return err
			}
			app.cfg = c
			setupLogging(c)
			return nil
		},
	}

	rootCmd.AddCommand(
		newServeCmd(app),
		newStatusCmd(app),
		newLoginCmd(app, false),
		newLoginCmd(app, true),
		newLogoutCmd(app),
		newFakeAPICmd(app),
	)
	return rootCmd
}

// app carries what every subcommand shares.
type app struct {
	cfg config.Config
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
