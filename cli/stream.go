package cli

import (
	"fmt"

	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/storage"
	"github.com/safedep/safeguard/stream"
	"github.com/spf13/cobra"
)

// NewStreamCmd creates the stream parent command.
func NewStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Report sink management",
	}

	cmd.AddCommand(newStreamSyncCmd())
	return cmd
}

func newStreamSyncCmd() *cobra.Command {
	var (
		since string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay recorded outcomes to the configured report sinks",
		Long: `Replay recorded outcomes to the configured report sinks, oldest
first. Useful after adding a sink or when a sink was unavailable.`,
		Example: `  safeguard stream sync --since 1d`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := loadApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			if err := app.InitStore(ctx); err != nil {
				return ErrDatabase("failed to open database", err)
			}

			registry := buildStreamRegistry(app.Config, cmd.OutOrStdout())
			defer registry.Close()

			if len(registry.Enabled()) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No enabled stream targets configured.")
				return nil
			}

			filter := &storage.RunFilter{Limit: limit}
			if since != "" {
				t, err := parseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid --since %q: %w", since, err)
				}
				filter.Since = &t
			}

			runs, err := app.Store.QueryRuns(ctx, filter)
			if err != nil {
				return err
			}

			outcomes := make([]report.Outcome, 0, len(runs))
			for i := len(runs) - 1; i >= 0; i-- {
				run, err := app.Store.GetRun(ctx, runs[i].ID)
				if err != nil {
					return err
				}
				if run != nil {
					outcomes = append(outcomes, run.Outcome())
				}
			}

			result := stream.NewPublisher(registry).Publish(ctx, outcomes...)

			for _, tr := range result.TargetResults {
				if tr.Error != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] error: %v\n", tr.TargetName, tr.Error)
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] synced %d outcomes\n", tr.TargetName, tr.OutcomesSent)
				}
			}

			if result.Failed() {
				return fmt.Errorf("one or more sinks failed")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "only runs after time (e.g. 1h, 2d, 1w)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum runs")

	return cmd
}
