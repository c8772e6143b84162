package cli

import (
	"github.com/safedep/safeguard/core/audit"
	"github.com/safedep/safeguard/storage"
	"github.com/safedep/safeguard/tui"
	"github.com/spf13/cobra"
)

// NewSelfLogCmd creates the self-log command.
func NewSelfLogCmd() *cobra.Command {
	var (
		since  string
		action string
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "self-log",
		Short: "View the tool's own audit trail",
		Long: `View the tool's own audit trail.

Shows actions performed by safeguard itself: configuration changes,
policy fallbacks, session terminations and retention cleanups.`,
		Example: `  safeguard self-log
  safeguard self-log --limit 10
  safeguard self-log --action session_terminated --since 1w`,
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

			filter := &storage.SelfAuditFilter{
				Action: action,
				Limit:  limit,
			}

			if action != "" && !knownAction(action) {
				return NewCLIError(ExitGeneral, "unknown action: "+action)
			}

			if since != "" {
				if sinceTime, err := parseDuration(since); err == nil {
					filter.Since = &sinceTime
				}
			}

			entries, err := app.Store.QuerySelfAudits(ctx, filter)
			if err != nil {
				return err
			}

			if len(entries) == 0 && tui.ParseFormat(format) == tui.FormatTable {
				return app.Presenter.RenderMessage("No self-audit entries found.")
			}

			views := make([]*tui.SelfAuditView, len(entries))
			for i, e := range entries {
				views[i] = selfAuditToView(e)
			}

			return app.Presenter.RenderSelfAudits(views)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "filter by time")
	cmd.Flags().StringVar(&action, "action", "", "filter by action")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json, jsonl, csv")

	return cmd
}

func knownAction(name string) bool {
	for _, a := range audit.Actions {
		if a.String() == name {
			return true
		}
	}
	return false
}
