package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/safedep/safeguard/config"
	"github.com/safedep/safeguard/core/audit"
	"github.com/safedep/safeguard/tui"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or modify configuration",
		Long: `View or modify configuration.

Subcommands allow viewing and modifying configuration values.
Changes are logged to the self-audit trail.`,
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigResetCmd(),
	)

	return cmd
}

func loadManager() (*App, *config.Manager, error) {
	app, err := loadApp()
	if err != nil {
		return nil, nil, err
	}

	mgr, err := config.NewManager(app.Paths.ConfigFile)
	if err != nil {
		return nil, nil, ErrConfig("failed to read configuration", err)
	}

	return app, mgr, nil
}

func newConfigShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, mgr, err := loadManager()
			if err != nil {
				return err
			}

			app.UsePresenter(cmd, format)

			return app.Presenter.RenderConfig(&tui.ConfigView{
				Location: mgr.ConfigPath(),
				Values:   mgr.AllSettings(),
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json")

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get specific config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, err := loadManager()
			if err != nil {
				return err
			}

			value := mgr.Get(args[0])
			if value == nil {
				return fmt.Errorf("key not found: %s", args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set config value",
		Long: `Set config value.

Only known keys are accepted. Policy levels are stored as given; a value
that is not IGNORE, WARNING or ERROR falls back to the check's default
when the policy is loaded.`,
		Example: `  safeguard config set policy.screen_mirroring ERROR
  safeguard config set checks.ongoing_call true
  safeguard config set disclosure.mode line`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, value := args[0], args[1]

			app, mgr, err := loadManager()
			if err != nil {
				return err
			}
			defer closeApp(app)

			parsed := config.ParseValue(value)

			old, err := mgr.Set(key, parsed)

			details := audit.ConfigChangeDetails{Key: key, NewValue: value}
			if old != nil {
				details.OldValue = fmt.Sprintf("%v", old)
			}
			entry := newSelfAudit(audit.ActionConfigChange).WithDetails(details)
			if err != nil {
				auditConfig(ctx, app, entry.WithError(err))
				if errors.Is(err, config.ErrUnknownKey) {
					return ErrConfig("cannot set "+key, err)
				}
				return ErrConfig("invalid configuration value", err)
			}

			auditConfig(ctx, app, entry)

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, parsed)
			return nil
		},
	}

	return cmd
}

func newConfigResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset to default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reset must work on a file that no longer loads.
			app, err := loadApp()
			if err != nil {
				app = NewApp(config.Default())
			}
			defer closeApp(app)

			entry := newSelfAudit(audit.ActionConfigReset)
			if err := os.Remove(app.Paths.ConfigFile); err != nil && !os.IsNotExist(err) {
				auditConfig(cmd.Context(), app, entry.WithError(err))
				return err
			}

			auditConfig(cmd.Context(), app, entry)

			fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
			return nil
		},
	}

	return cmd
}

// auditConfig records a configuration change when the database is usable.
func auditConfig(ctx context.Context, app *App, entry *audit.SelfAudit) {
	if err := app.InitStore(ctx); err != nil {
		return
	}
	logSelfAudit(ctx, app.Store, entry)
}
