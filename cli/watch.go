package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/config"
	"github.com/safedep/safeguard/tui"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	var (
		flags    checkFlags
		interval time.Duration
		count    int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run full passes periodically until the session ends",
		Long: `Run a full pass immediately and then every interval, for as long as
the session is active. The command stops when a violation ends the
session or on SIGINT/SIGTERM.`,
		Example: `  safeguard watch
  safeguard watch --interval 30s
  safeguard watch --count 3 --format jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			if flags.disclosure != "" {
				app.Config.Disclosure.Mode = config.DisclosureMode(flags.disclosure)
			}
			if interval <= 0 {
				interval = app.Config.Engine.Interval
			}

			app.UsePresenter(cmd, flags.format)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, err := newEngine(ctx, app, engineOptions{
				Scenario:   flags.scenario,
				Input:      cmd.InOrStdin(),
				Output:     cmd.ErrOrStderr(),
				SinkOutput: cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			defer engine.Close()

			progress := tui.NewProgressWriter(cmd.ErrOrStderr(), app.Config.ShouldUseColors())
			sessionCtx := engine.Session.Context()

			for pass := 1; ; pass++ {
				progress.Update("Running pass %d...", pass)
				engine.Bridge.StartChecks(sessionCtx)
				engine.Bridge.Wait()
				progress.Clear()

				if sessionCtx.Err() != nil && !engine.Session.Terminated() {
					log.Infof("Watch interrupted during pass %d", pass)
					return nil
				}

				if outcome, ok := engine.LastOutcome(); ok {
					if !globalFlags.Quiet || !outcome.Passed {
						if err := app.Presenter.RenderOutcome(outcomeToView(outcome, engine.Run(outcome.RunID))); err != nil {
							return err
						}
					}

					if outcome.Terminated || (flags.failOnViolation && !outcome.Passed) {
						return exitForOutcome(outcome, flags.failOnViolation)
					}
				}

				if count > 0 && pass >= count {
					return nil
				}

				progress.Update("Next pass at %s", tui.FormatTimeShort(time.Now().Add(interval)))

				select {
				case <-sessionCtx.Done():
					progress.Clear()
					log.Infof("Watch stopped: %s", engine.Session.State())
					return nil
				case <-time.After(interval):
				}
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between passes (default engine.interval)")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many passes (0 runs until interrupted)")

	return cmd
}
