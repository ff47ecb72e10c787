// Package main provides prodashctl, the administration tool for a prodash
// deployment. It works directly against the configured backend.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"prodash/internal/cli"
	applog "prodash/internal/log"
	"prodash/internal/sheets"
	gsheet "prodash/internal/sheets/google"
	"prodash/internal/worker"
)

const (
	Version = "0.1.0"
	appName = "prodashctl"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	d := deps{
		open: func(ctx context.Context) (*cli.App, error) {
			return cli.NewApp(ctx, cfg, logger)
		},
		exporter: func(ctx context.Context, app *cli.App) (sheets.BudgetExporter, error) {
			if app.Config.GoogleSpreadsheetID == "" {
				return nil, fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set")
			}
			return gsheet.New(ctx, app.Config.GoogleSpreadsheetID, app.Config.GoogleSheetName, app.Logger)
		},
	}

	if err := rootCmd(d).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deps are the seams between the commands and the running environment.
type deps struct {
	open     func(ctx context.Context) (*cli.App, error)
	exporter func(ctx context.Context, app *cli.App) (sheets.BudgetExporter, error)
}

// withApp opens the application for the duration of one command.
func (d deps) withApp(cmd *cobra.Command, fn func(app *cli.App) error) error {
	app, err := d.open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func rootCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Administer a prodash deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		migrateCmd(d),
		usersCmd(d),
		habitsCmd(d),
		budgetCmd(d),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func migrateCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a SQL backend runs the migrations.
			return d.withApp(cmd, func(app *cli.App) error {
				if app.Config.DataBackend == "memory" {
					fmt.Fprintln(cmd.OutOrStdout(), "memory backend: nothing to migrate")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", app.Config.DataBackend)
				return nil
			})
		},
	}
}

func usersCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect users and manage their labels",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every user with their labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.withApp(cmd, func(app *cli.App) error {
				users, err := app.Identity.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "EMAIL\tNAME\tLABELS\tCREATED")
				for _, u := range users {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Email, u.Name, strings.Join(u.Labels, ","), u.CreatedAt.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	}

	label := &cobra.Command{
		Use:   "label",
		Short: "Grant or revoke a label such as admin",
	}
	label.AddCommand(
		labelCmd(d, "add", "Grant a label to a user"),
		labelCmd(d, "remove", "Revoke a label from a user"),
	)

	cmd.AddCommand(list, label)
	return cmd
}

func labelCmd(d deps, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <email> <label>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.withApp(cmd, func(app *cli.App) error {
				edit := app.Identity.AddLabel
				if action == "remove" {
					edit = app.Identity.RemoveLabel
				}
				user, err := edit(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s labels: [%s]\n", user.Email, strings.Join(user.Labels, ","))
				return nil
			})
		},
	}
}

func habitsCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habits",
		Short: "Habit maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "recompute",
		Short: "Rewrite every stored streak for today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.withApp(cmd, func(app *cli.App) error {
				n, err := app.Services.Habits.RecomputeAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d habits\n", n)
				return nil
			})
		},
	})
	return cmd
}

func budgetCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Budget ledger maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export <email>",
		Short: "Append every budget entry of a user to the spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.withApp(cmd, func(app *cli.App) error {
				user, err := app.Identity.UserByEmail(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("load user %s: %w", args[0], err)
				}
				exporter, err := d.exporter(cmd.Context(), app)
				if err != nil {
					return err
				}
				n, err := worker.NewExportWorker(app.Backend.Store.Budget, exporter, app.Logger).ExportUser(cmd.Context(), user.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries\n", n)
				return err
			})
		},
	})
	return cmd
}
