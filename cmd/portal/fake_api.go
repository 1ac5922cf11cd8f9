package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-portal-session/apiclient/apifake"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newFakeAPICmd(app *app) *cobra.Command {
	var (
		addr        string
		users       []string
		admins      []string
		maintenance bool
	)

	cmd := &cobra.Command{
		Use:   "fake-api",
		Short: "Run an in-memory portal API for local development",
		Example: `  portal fake-api --user reader@example.com:Password123 --admin editor@example.com:AdminPass123
  PORTAL_API_ORIGIN=http://localhost:5000 portal serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := apifake.New(app.cfg.GetFakeAPISecret())
			if err := seedAccounts(users, api.AddUser); err != nil {
				return err
			}
			if err := seedAccounts(admins, api.AddAdmin); err != nil {
				return err
			}
			api.SetMaintenanceMode(maintenance)

			srv := &http.Server{Addr: addr, Handler: api}
			errs := make(chan error, 1)
			go func() {
				errs <- listenAndServe(srv)
			}()

			select {
			case err := <-errs:
				return err
			case <-cmd.Context().Done():
			}
			return shutdown(srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5000", "listen address")
	cmd.Flags().StringArrayVar(&users, "user", nil, "user account as email:password (repeatable)")
	cmd.Flags().StringArrayVar(&admins, "admin", nil, "admin account as email:password (repeatable)")
	cmd.Flags().BoolVar(&maintenance, "maintenance", false, "report maintenance mode from the public settings")
	return cmd
}

func seedAccounts(specs []string, add func(email, password, name string) (string, error)) error {
	for _, spec := range specs {
		email, password, ok := strings.Cut(spec, ":")
		if !ok || email == "" || password == "" {
			return fmt.Errorf("invalid account %q, want email:password", spec)
		}
		name, _, _ := strings.Cut(email, "@")
		if _, err := add(email, password, name); err != nil {
			return fmt.Errorf("seed %s: %w", email, err)
		}
		log.Info().Str("email", email).Msg("account seeded")
	}
	return nil
}
