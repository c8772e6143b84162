package cli

import (
	"time"

	"github.com/safedep/safeguard/core/audit"
	"github.com/safedep/safeguard/tui"
	"github.com/spf13/cobra"
)

// NewRetentionCmd creates the retention command.
func NewRetentionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Manage data retention",
		Long: `Manage data retention.

Commands for managing the check history retention policy including
cleaning up runs older than the configured retention period.`,
	}

	cmd.AddCommand(newRetentionCleanupCmd())
	cmd.AddCommand(newRetentionStatusCmd())

	return cmd
}

func newRetentionCleanupCmd() *cobra.Command {
	var (
		dryRun bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete runs older than retention policy",
		Long: `Delete runs older than retention policy.

Removes recorded runs and their violations older than the configured
retention_days setting. Self-audit entries are preserved.`,
		Example: `  safeguard retention cleanup
  safeguard retention cleanup --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := loadApp()
			if err != nil {
				return err
			}

			app.UsePresenter(cmd, format)

			if err := app.InitStore(ctx); err != nil {
				return ErrDatabase("failed to open database", err)
			}
			defer closeApp(app)

			retention := audit.NewRetentionPolicy(app.Config.Storage.RetentionDays)
			view := &tui.RetentionView{
				Enabled:       retention.IsEnabled(),
				RetentionDays: retention.RetentionDays,
				DryRun:        dryRun,
			}

			if !retention.IsEnabled() {
				return app.Presenter.RenderRetention(view)
			}

			view.Cutoff = retention.CutoffTime(time.Now())

			if dryRun {
				count, err := app.Store.CountRunsBefore(ctx, view.Cutoff)
				if err != nil {
					return err
				}
				view.RunsAffected = count
				return app.Presenter.RenderRetention(view)
			}

			deleted, err := tui.RunWithSpinner("Cleaning up old runs...", func() (int, error) {
				return app.Store.DeleteRunsBefore(ctx, view.Cutoff)
			}, tui.WithWriter(cmd.ErrOrStderr()))

			entry := newSelfAudit(audit.ActionRetentionCleanup).WithDetails(audit.RetentionCleanupDetails{
				RunsDeleted:   deleted,
				RetentionDays: retention.RetentionDays,
				Cutoff:        view.Cutoff,
			})
			if err != nil {
				logSelfAudit(ctx, app.Store, entry.WithError(err))
				return err
			}
			logSelfAudit(ctx, app.Store, entry)

			view.RunsAffected = deleted
			view.Deleted = true

			return app.Presenter.RenderRetention(view)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without deleting")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json")

	return cmd
}

func newRetentionStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show retention policy status",
		Long: `Show retention policy status.

Displays the current retention configuration and how many runs the
next cleanup would remove.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := loadApp()
			if err != nil {
				return err
			}

			app.UsePresenter(cmd, format)

			if err := app.InitStore(ctx); err != nil {
				return ErrDatabase("failed to open database", err)
			}
			defer closeApp(app)

			retention := audit.NewRetentionPolicy(app.Config.Storage.RetentionDays)
			view := &tui.RetentionView{
				Enabled:       retention.IsEnabled(),
				RetentionDays: retention.RetentionDays,
			}

			if retention.IsEnabled() {
				view.Cutoff = retention.CutoffTime(time.Now())

				count, err := app.Store.CountRunsBefore(ctx, view.Cutoff)
				if err != nil {
					return err
				}
				view.RunsAffected = count
			}

			return app.Presenter.RenderRetention(view)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json")

	return cmd
}
