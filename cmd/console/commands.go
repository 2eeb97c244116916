package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/hms-console/internal/domain"
	"github.com/ashureev/hms-console/internal/notify"
	"github.com/ashureev/hms-console/internal/views"
	"github.com/spf13/cobra"
)

const cliTabID = "cli"

var viewCmd = &cobra.Command{
	Use:       "view <dashboard|doctors|messages>",
	Short:     "Load a console view and print it",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(views.NameDashboard), string(views.NameDoctors), string(views.NameMessages)},
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := views.ParseName(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		v, err := a.registry(nil, nil).Activate(cmd.Context(), cliTabID, name)
		if err != nil {
			return loginHint(err)
		}
		renderView(cmd.OutOrStdout(), v)
		return nil
	},
}

var setStatusCmd = &cobra.Command{
	Use:   "set-status <appointment-id> <Pending|Accepted|Rejected>",
	Short: "Update an appointment's status",
	Long: `Loads the dashboard, asks the backend to change the appointment's status and,
once the backend confirms, prints the updated row. Nothing changes locally when
the backend refuses the update.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		status, err := domain.ParseStatus(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		recorder := &notify.Recorder{}
		registry := a.registry(recorder, nil)
		if _, err := registry.Activate(cmd.Context(), cliTabID, views.NameDashboard); err != nil {
			return loginHint(err)
		}
		dash, err := registry.Dashboard(cliTabID)
		if err != nil {
			return err
		}

		out := dash.UpdateStatus(cmd.Context(), key, status)
		w := cmd.OutOrStdout()
		for _, n := range recorder.All() {
			renderNotification(w, n)
		}
		if !out.Applied {
			return fmt.Errorf("status not updated: %w", out.Err)
		}
		if !out.Matched {
			fmt.Fprintln(w, emptyStyle.Render("Appointment "+key+" is not in the loaded dashboard."))
			return nil
		}

		for _, row := range dash.DashboardModel().Appointments {
			if row.ID == key {
				renderTable(w, [][]string{
					{"ID", "Patient", "Date", "Status"},
					{row.ID, row.Patient, row.Date, renderStatus(row.Status)},
				})
			}
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <appointment-id>",
	Short: "Show confirmed status changes for an appointment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		ts, err := a.journal.ListTransitions(cmd.Context(), args[0], limit)
		if err != nil {
			return fmt.Errorf("list transitions: %w", err)
		}
		renderTransitions(cmd.OutOrStdout(), args[0], ts)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries (0 for all)")
	rootCmd.AddCommand(viewCmd, setStatusCmd, historyCmd)
}

func loginHint(err error) error {
	var redirect *views.RedirectError
	if errors.As(err, &redirect) {
		return fmt.Errorf("not signed in (log in at %s and set SESSION_TOKEN): %w", redirect.To, err)
	}
	return err
}
