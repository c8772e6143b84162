package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/safedep/safeguard/config"
	"github.com/safedep/safeguard/tui"
	"github.com/safedep/safeguard/tui/component/dialog"
	"github.com/spf13/cobra"
)

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and installation issues",
		Long: `Diagnose configuration and installation issues.

Performs various health checks:
- Config file exists and is valid
- Every policy value names a known level
- Disclosure mode can be used
- Every enabled check has a detector
- Identity values match the running binary
- Database is accessible and the schema is up to date`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			configCheck := tui.DoctorCheck{
				Name:        "Config file",
				Description: "Check if config file exists and is valid",
			}

			cfg, err := config.Load(globalFlags.ConfigPath)
			switch {
			case err == nil:
				configCheck.Status = tui.CheckOK
			case errors.Is(err, fs.ErrNotExist):
				cfg = config.Default()
				configCheck.Status = tui.CheckWarn
				configCheck.Message = "Config file not found (using defaults)"
				configCheck.Suggestion = "Run 'safeguard config set' to create"
			default:
				cfg = config.Default()
				configCheck.Status = tui.CheckFail
				configCheck.Message = err.Error()
				configCheck.Suggestion = "Fix the file or run 'safeguard config reset'"
			}
			if globalFlags.NoColor {
				cfg.Display.Colors = config.ColorNever
			}

			app := NewApp(cfg)
			app.UsePresenter(cmd, format)

			if configCheck.Status == tui.CheckOK {
				configCheck.Message = app.Paths.ConfigFile
			}

			view, err := tui.RunWithSpinner("Checking configuration health...", func() (*tui.DoctorView, error) {
				v := &tui.DoctorView{AllOK: true}
				add := func(c tui.DoctorCheck) {
					if c.Status == tui.CheckFail {
						v.AllOK = false
					}
					v.Checks = append(v.Checks, c)
				}

				add(configCheck)

				policyCheck := tui.DoctorCheck{
					Name:        "Policy values",
					Description: "Check that every policy value names a known level",
					Status:      tui.CheckOK,
					Message:     "All policy values resolved",
				}
				if fallbacks := app.Policy.Fallbacks(); len(fallbacks) > 0 {
					parts := make([]string, 0, len(fallbacks))
					for _, fb := range fallbacks {
						parts = append(parts, fmt.Sprintf("%s=%q uses %s", fb.Kind.Key(), fb.Raw, fb.Applied))
					}
					policyCheck.Status = tui.CheckWarn
					policyCheck.Message = strings.Join(parts, ", ")
					policyCheck.Suggestion = "Use IGNORE, WARNING or ERROR"
				}
				add(policyCheck)

				disclosureCheck := tui.DoctorCheck{
					Name:        "Disclosure",
					Description: "Check that violations can be shown",
					Status:      tui.CheckOK,
					Message:     string(cfg.Disclosure.Mode),
				}
				if _, err := dialog.New(cfg.Disclosure.Mode, dialog.Options{}); err != nil {
					disclosureCheck.Status = tui.CheckFail
					disclosureCheck.Message = err.Error()
				} else if cfg.Disclosure.Mode == config.DisclosureAccept {
					disclosureCheck.Status = tui.CheckWarn
					disclosureCheck.Message = "Every ERROR violation is continued automatically"
				}
				add(disclosureCheck)

				coverageCheck := tui.DoctorCheck{
					Name:        "Detectors",
					Description: "Check that every enabled check has a detector",
					Status:      tui.CheckOK,
					Message:     fmt.Sprintf("%d checks enabled", len(app.Policy.EnabledKinds())),
				}
				if missing := app.Detectors.Missing(app.Policy.EnabledKinds()); len(missing) > 0 {
					coverageCheck.Status = tui.CheckFail
					coverageCheck.Message = fmt.Sprintf("No detector for %v", missing)
				}
				add(coverageCheck)

				identityCheck := tui.DoctorCheck{
					Name:        "Identity",
					Description: "Check that the expected identity matches this binary",
					Status:      tui.CheckOK,
					Message:     app.Policy.Identity().ExpectedAppID,
				}
				if running := config.RunningAppID(); app.Policy.Identity().ExpectedAppID != running {
					identityCheck.Status = tui.CheckWarn
					identityCheck.Message = fmt.Sprintf("Expected %q, running %q", app.Policy.Identity().ExpectedAppID, running)
					identityCheck.Suggestion = "App spoofing check will report a violation"
				}
				if cfg.Identity.ExpectedCertFingerprint != "" && !cfg.Checks.CertificateMismatch {
					identityCheck.Status = tui.CheckWarn
					identityCheck.Message = "Certificate fingerprint is pinned but the check is disabled"
					identityCheck.Suggestion = "Run 'safeguard config set checks.certificate_mismatch true'"
				}
				add(identityCheck)

				dbCheck := tui.DoctorCheck{
					Name:        "Database",
					Description: "Check if database is accessible and schema is up to date",
				}
				if err := app.InitStore(ctx); err != nil {
					dbCheck.Status = tui.CheckFail
					dbCheck.Message = "Cannot open database: " + err.Error()
					dbCheck.Suggestion = "Check storage.path and its permissions"
				} else {
					dbCheck.Status = tui.CheckOK
					dbCheck.Message = app.Paths.DatabaseFile
				}
				add(dbCheck)

				return v, nil
			}, tui.WithWriter(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			defer closeApp(app)

			return app.Presenter.RenderDoctor(view)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json")

	return cmd
}
