// Package cli provides the command-line interface for safeguard.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/config"
	"github.com/safedep/safeguard/core/audit"
	"github.com/safedep/safeguard/core/policy"
	"github.com/safedep/safeguard/detector"
	"github.com/safedep/safeguard/internal/version"
	"github.com/safedep/safeguard/storage"
	"github.com/safedep/safeguard/tui"
	"github.com/spf13/cobra"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Store     storage.Store
	Detectors *detector.Registry
	Policy    *policy.Config
	Presenter tui.Presenter
	Paths     *config.Paths
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config) *App {
	paths := config.ResolvePaths()
	if globalFlags.ConfigPath != "" {
		paths.ConfigFile = globalFlags.ConfigPath
	}
	paths.DatabaseFile = cfg.GetDatabasePath()

	pol := policy.New(cfg.PolicySettings())

	// Host probes serve every kind; scenarios may override them later.
	registry := detector.NewRegistry()
	detector.NewHost(detector.Environment{
		RunningAppID: config.RunningAppID,
	}, detector.Signatures{
		Malware:         cfg.Signatures.Malware,
		Keylogger:       cfg.Signatures.Keylogger,
		ScreenMirroring: cfg.Signatures.ScreenMirroring,
		OngoingCall:     cfg.Signatures.OngoingCall,
	}, pol.Identity()).Register(registry)

	presenter := tui.NewPresenter(tui.FormatTable, tui.PresenterOptions{
		Writer:    os.Stdout,
		UseColors: cfg.ShouldUseColors(),
		Verbose:   globalFlags.Verbose,
	})

	return &App{
		Config:    cfg,
		Detectors: registry,
		Policy:    pol,
		Presenter: presenter,
		Paths:     paths,
	}
}

// InitStore initializes the database store.
func (a *App) InitStore(ctx context.Context) error {
	if a.Store != nil {
		return nil
	}

	_, statErr := os.Stat(a.Paths.DatabaseFile)
	created := errors.Is(statErr, fs.ErrNotExist)

	store, err := storage.NewSQLiteStore(a.Paths.DatabaseFile)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return err
	}
	a.Store = store

	if created {
		logSelfAudit(ctx, store, newSelfAudit(audit.ActionDatabaseInit).
			WithDetails(audit.DatabaseInitDetails{
				Path:          a.Paths.DatabaseFile,
				SchemaVersion: storage.SchemaVersion,
			}))
	}

	return nil
}

// Close closes the application resources.
func (a *App) Close() error {
	if a.Store != nil {
		err := a.Store.Close()
		a.Store = nil
		return err
	}
	return nil
}

// UsePresenter switches the presenter to format, writing to cmd's output.
func (a *App) UsePresenter(cmd *cobra.Command, format string) {
	a.Presenter = tui.NewPresenter(tui.ParseFormat(format), tui.PresenterOptions{
		Writer:    cmd.OutOrStdout(),
		UseColors: a.Config.ShouldUseColors(),
		Verbose:   globalFlags.Verbose,
	})
}

// GlobalFlags holds the global command flags.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	NoColor    bool
}

var globalFlags GlobalFlags

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	globalFlags = GlobalFlags{}

	rootCmd := &cobra.Command{
		Use:   "safeguard",
		Short: "Runtime integrity checks with policy enforcement",
		Long: `Safeguard runs a fixed set of runtime integrity checks against the
current host, classifies every finding against an operator policy and
discloses violations one at a time.

Each check is bound to IGNORE, WARNING or ERROR. Warnings are shown and
the session continues. Errors end the session unless the user chooses to
continue anyway.`,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("NO_COLOR") != "" {
				globalFlags.NoColor = true
			}

			if os.Getenv("SAFEGUARD_NO_COLOR") != "" {
				globalFlags.NoColor = true
			}

			setupInternalLogger()

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "increase output verbosity")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.NoColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		NewStartCmd(),
		NewCheckCmd(),
		NewCheckAllCmd(),
		NewWatchCmd(),
		NewPolicyCmd(),
		NewConfigCmd(),
		NewHistoryCmd(),
		NewSelfLogCmd(),
		NewStreamCmd(),
		NewStatusCmd(),
		NewDoctorCmd(),
		NewRetentionCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func setupInternalLogger() {
	// The CLI owns stdout for rendering results.
	_ = os.Setenv("APP_LOG_SKIP_STDOUT_LOGGER", "true")

	log.Init("safeguard", "cli")
}

// loadApp loads the application with configuration. A missing config file
// means defaults; an unreadable or invalid one is a config error.
func loadApp() (*App, error) {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfig("invalid configuration", err)
		}
		cfg = config.Default()
	}

	if globalFlags.NoColor {
		cfg.Display.Colors = config.ColorNever
	}

	return NewApp(cfg), nil
}

// closeApp closes app and logs a failure.
func closeApp(app *App) {
	if err := app.Close(); err != nil {
		log.Errorf("failed to close app: %v", err)
	}
}
