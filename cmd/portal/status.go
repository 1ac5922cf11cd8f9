package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jrsteele09/go-portal-session/maintenance"
	"github.com/jrsteele09/go-portal-session/session"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Verify the stored credential and show the session",
		Long: `Verify the stored credential against the portal API and print the
resulting session. A credential the API rejects is erased.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPortal(app.cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			p.start(cmd.Context())
			return printStatus(cmd.OutOrStdout(), p.manager.Snapshot(), p.gate.Status(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session as JSON")
	return cmd
}

type statusReport struct {
	State        string             `json:"state"`
	Role         string             `json:"role"`
	Name         string             `json:"name,omitempty"`
	Email        string             `json:"email,omitempty"`
	Verification string             `json:"verification"`
	Reason       string             `json:"reason,omitempty"`
	Maintenance  maintenance.Status `json:"maintenance"`
}

func printStatus(w io.Writer, snap session.Snapshot, ms maintenance.Status, asJSON bool) error {
	report := statusReport{
		State:        snap.State.String(),
		Role:         snap.Role.String(),
		Verification: snap.Verification.String(),
		Maintenance:  ms,
	}
	if snap.Principal != nil {
		report.Name = snap.Principal.DisplayName()
		report.Email = snap.Principal.Email
	}
	if snap.Reason != session.ReasonNone {
		report.Reason = snap.Reason.String()
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "State:        %s\n", report.State)
	fmt.Fprintf(w, "Role:         %s\n", report.Role)
	if report.Email != "" {
		fmt.Fprintf(w, "User:         %s <%s>\n", report.Name, report.Email)
	}
	fmt.Fprintf(w, "Verification: %s\n", report.Verification)
	if msg := snap.Reason.Message(); msg != "" {
		fmt.Fprintf(w, "Notice:       %s\n", msg)
	}
	fmt.Fprintf(w, "Maintenance:  %t\n", ms.Active)
	return nil
}
