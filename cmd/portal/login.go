package main

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-portal-session/session"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app, admin bool) *cobra.Command {
	var email, password string

	use, short := "login", "Sign in and store the credential"
	if admin {
		use, short = "admin-login", "Sign in as an admin and store the credential"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPortal(app.cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			p.start(cmd.Context())

			login := p.manager.Login
			if admin {
				login = p.manager.AdminLogin
			}
			if err := login(cmd.Context(), email, password); err != nil {
				return errors.New(session.Message(err))
			}

			snap := p.manager.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", snap.Principal.DisplayName(), snap.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Erase the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPortal(app.cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			p.manager.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
