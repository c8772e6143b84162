package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/storage"
	"github.com/safedep/safeguard/tui"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var (
		since     string
		until     string
		kind      string
		operation string
		failed    bool
		limit     int
		offset    int
		format    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded check runs",
		Long: `List recorded check runs, newest first.

Every pass and every single check is recorded together with the
violations it disclosed.`,
		Example: `  safeguard history
  safeguard history --failed --since 1w
  safeguard history --kind root --format json
  safeguard history show a1b2c3d4`,
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

			filter := &storage.RunFilter{
				Operation:  operation,
				FailedOnly: failed,
				Limit:      limit,
				Offset:     offset,
			}

			if kind != "" {
				k, err := check.ParseKind(kind)
				if err != nil {
					return ErrUnknownCheck(kind, err)
				}
				filter.CheckKind = k.Key()
			}

			if since != "" {
				t, err := parseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid --since %q: %w", since, err)
				}
				filter.Since = &t
			}

			if until != "" {
				t, err := parseDuration(until)
				if err != nil {
					return fmt.Errorf("invalid --until %q: %w", until, err)
				}
				filter.Until = &t
			}

			runs, err := app.Store.QueryRuns(ctx, filter)
			if err != nil {
				return err
			}

			if len(runs) == 0 && tui.ParseFormat(format) == tui.FormatTable {
				return app.Presenter.RenderMessage("No runs found.")
			}

			views := make([]*tui.RunView, len(runs))
			for i, r := range runs {
				views[i] = runToView(r)
			}

			return app.Presenter.RenderRuns(views)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "show runs after time (e.g. 1h, 2d, 1w, 2025-01-15)")
	cmd.Flags().StringVar(&until, "until", "", "show runs before time")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by check kind")
	cmd.Flags().StringVar(&operation, "operation", "", "filter by operation: startChecks, checkAll, check")
	cmd.Flags().BoolVar(&failed, "failed", false, "only runs that did not pass")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many runs")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json, jsonl, csv")

	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run and its violations",
		Long: `Show a recorded run and its violations in detection order.
The run may be given by its full ID or a unique prefix.`,
		Args: cobra.ExactArgs(1),
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

			var run *storage.RunRecord
			if id, perr := uuid.Parse(args[0]); perr == nil {
				run, err = app.Store.GetRun(ctx, id)
			} else {
				run, err = app.Store.GetRunByPrefix(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run not found: %s", args[0])
			}

			return app.Presenter.RenderRun(runToView(run))
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json, jsonl, csv")

	return cmd
}

// parseDuration parses a relative duration (1h, 2d, 1w) into the time that
// far in the past, or an absolute date.
func parseDuration(s string) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(-d), nil
	}

	if len(s) > 1 {
		unit := s[len(s)-1]
		value := s[:len(s)-1]
		var multiplier time.Duration
		switch unit {
		case 'd':
			multiplier = 24 * time.Hour
		case 'w':
			multiplier = 7 * 24 * time.Hour
		}
		if multiplier > 0 {
			if d, err := time.ParseDuration(value + "h"); err == nil {
				return time.Now().Add(-d * time.Duration(multiplier/time.Hour)), nil
			}
		}
	}

	layouts := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse duration")
}
