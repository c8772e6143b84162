package cli

import (
	"fmt"
	"os"

	"github.com/safedep/safeguard/core/policy"
	"github.com/safedep/safeguard/tui"
	"github.com/spf13/cobra"
)

// NewPolicyCmd creates the policy command.
func NewPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the enforcement policy",
	}

	cmd.AddCommand(newPolicyShowCmd())

	return cmd
}

func newPolicyShowCmd() *cobra.Command {
	var (
		format string
		diff   bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective policy",
		Long: `Display the effective policy.

Shows the level bound to every check after resolution. Values that are
not a known level name fall back to the check's default and are marked.
With --diff, prints a unified diff of the effective policy against the
defaults.`,
		Example: `  safeguard policy show
  safeguard policy show --format yaml
  safeguard policy show --diff`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}

			app.UsePresenter(cmd, format)

			if diff {
				content, err := policy.Diff(policy.Default().Document(), app.Policy.Document(), "defaults", "effective")
				if err != nil {
					return err
				}

				return app.Presenter.RenderDiff(&tui.DiffView{
					From:      "defaults",
					To:        "effective",
					Content:   content,
					Identical: content == "",
				})
			}

			if format == "yaml" {
				out, err := app.Policy.Document().YAML()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}

			return app.Presenter.RenderPolicy(policyToView(policySource(app), app.Policy, app.Config.PolicySettings().Levels))
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json, jsonl, csv, yaml")
	cmd.Flags().BoolVar(&diff, "diff", false, "show differences from the default policy")

	return cmd
}

func policySource(app *App) string {
	if _, err := os.Stat(app.Paths.ConfigFile); err == nil {
		return app.Paths.ConfigFile
	}
	return "defaults"
}
