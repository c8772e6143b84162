package cli

import (
	"os"
	"time"

	"github.com/safedep/safeguard/core/audit"
	"github.com/safedep/safeguard/tui"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tool status",
		Long: `Show tool status.

Displays the tool version, history database, engine configuration and
report sinks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := loadApp()
			if err != nil {
				return err
			}

			app.UsePresenter(cmd, format)

			view := &tui.StatusView{
				Version: getVersion(),
				Database: tui.DatabaseView{
					Location: app.Paths.DatabaseFile,
				},
				Config: tui.ConfigStatusView{
					Location:       app.Paths.ConfigFile,
					Workers:        app.Config.Engine.Workers,
					DisclosureMode: string(app.Config.Disclosure.Mode),
					RetentionDays:  app.Config.Storage.RetentionDays,
				},
			}

			// Status never creates the database.
			if _, err := os.Stat(app.Paths.DatabaseFile); err == nil {
				if err := app.InitStore(ctx); err == nil {
					defer closeApp(app)

					if info, err := app.Store.GetDatabaseInfo(ctx); err == nil {
						view.Database.SizeBytes = info.SizeBytes
						view.Database.SizeHuman = tui.FormatBytes(info.SizeBytes)
						view.Database.RunCount = info.RunCount
						view.Database.ViolationCount = info.ViolationCount
						view.Database.SelfAuditCount = info.SelfAuditCount
						view.Database.OldestRun = info.OldestRun
						view.Database.NewestRun = info.NewestRun
					}

					retention := audit.NewRetentionPolicy(app.Config.Storage.RetentionDays)
					if retention.IsEnabled() {
						view.Config.RetentionCutoff = retention.CutoffTime(time.Now())
						if count, err := app.Store.CountRunsBefore(ctx, view.Config.RetentionCutoff); err == nil {
							view.Config.RunsToClean = count
						}
					}
				}
			}

			for _, tc := range app.Config.Streams.Targets {
				view.Sinks = append(view.Sinks, tui.SinkView{
					Name:    tc.Name,
					Type:    tc.Type,
					Enabled: tc.Enabled,
				})
			}

			return app.Presenter.RenderStatus(view)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json")

	return cmd
}
