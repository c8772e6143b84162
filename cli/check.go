package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safedep/safeguard/bridge"
	"github.com/safedep/safeguard/config"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/core/security"
	"github.com/spf13/cobra"
)

// checkFlags are shared by the commands that run checks.
type checkFlags struct {
	scenario        string
	disclosure      string
	format          string
	failOnViolation bool
}

func (f *checkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scenario, "scenario", "", "YAML file with scripted detector results")
	cmd.Flags().StringVar(&f.disclosure, "disclosure", "", "override disclosure mode: auto, interactive, line, accept, decline")
	cmd.Flags().StringVar(&f.format, "format", "table", "output format: table, json, jsonl, csv")
	cmd.Flags().BoolVar(&f.failOnViolation, "fail-on-violation", false, "exit with code 5 when the operation does not pass")
}

type operation func(ctx context.Context, b *bridge.Bridge) (report.Outcome, error)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check <kind>",
		Short: "Run a single check",
		Long: `Run a single check on demand.

The check goes through the same policy, disclosure and enforcement path
as a full pass. The kind is a configuration key or action name:

` + kindHelp(),
		Example: `  safeguard check root
  safeguard check checkKeyLogger --format json
  safeguard check app_spoofing --scenario rehearsal.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := check.ParseKind(args[0])
			if err != nil {
				return ErrUnknownCheck(args[0], err)
			}

			return runOperation(cmd, flags, func(ctx context.Context, b *bridge.Bridge) (report.Outcome, error) {
				outcome, err := b.Check(ctx, kind)
				if errors.Is(err, security.ErrKindDisabled) {
					return outcome, ErrUnknownCheck(args[0], err)
				}
				return outcome, err
			})
		},
	}

	flags.register(cmd)

	return cmd
}

// NewCheckAllCmd creates the check-all command.
func NewCheckAllCmd() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check-all",
		Short: "Run every enabled check and report the aggregate outcome",
		Long: `Run every enabled check and report the aggregate outcome.

Violations are disclosed one at a time in detection order. A violation
that ends the session stops the pass.`,
		Example: `  safeguard check-all
  safeguard check-all --fail-on-violation
  safeguard check-all --disclosure decline --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, flags, func(ctx context.Context, b *bridge.Bridge) (report.Outcome, error) {
				return b.CheckAll(ctx)
			})
		},
	}

	flags.register(cmd)

	return cmd
}

// NewStartCmd creates the start command.
func NewStartCmd() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a full pass and deliver the outcome to report sinks",
		Long: `Start a full pass in the background and deliver its outcome to the
configured report sinks. The command returns once the pass is delivered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, flags, func(ctx context.Context, b *bridge.Bridge) (report.Outcome, error) {
				b.StartChecks(ctx)
				b.Wait()
				return report.Outcome{}, nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func runOperation(cmd *cobra.Command, flags checkFlags, op operation) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	defer closeApp(app)

	if flags.disclosure != "" {
		app.Config.Disclosure.Mode = config.DisclosureMode(flags.disclosure)
	}

	app.UsePresenter(cmd, flags.format)

	engine, err := newEngine(cmd.Context(), app, engineOptions{
		Scenario:   flags.scenario,
		Input:      cmd.InOrStdin(),
		Output:     cmd.ErrOrStderr(),
		SinkOutput: cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	if _, err := op(engine.Session.Context(), engine.Bridge); err != nil {
		return err
	}

	// Every operation delivers through the engine, including start.
	outcome, ok := engine.LastOutcome()
	if !ok {
		return fmt.Errorf("no outcome was delivered")
	}

	if !globalFlags.Quiet || !outcome.Passed {
		if err := app.Presenter.RenderOutcome(outcomeToView(outcome, engine.Run(outcome.RunID))); err != nil {
			return err
		}
	}

	return exitForOutcome(outcome, flags.failOnViolation)
}

func exitForOutcome(o report.Outcome, failOnViolation bool) error {
	if o.Terminated {
		reason := "violation"
		if o.Primary != nil {
			reason = o.Primary.Title + ": " + o.Primary.Message
		}
		return ErrTerminated(reason)
	}

	if failOnViolation && !o.Passed {
		return ErrViolation(fmt.Sprintf("%s did not pass", o.Operation))
	}

	return nil
}

func kindHelp() string {
	var b strings.Builder
	for _, kind := range check.All() {
		optional := ""
		if kind.Optional() {
			optional = " (optional)"
		}
		fmt.Fprintf(&b, "  %-22s %-26s %s%s\n", kind.Key(), kind.Action(), kind.Title(), optional)
	}
	return b.String()
}
