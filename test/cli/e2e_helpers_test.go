package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safedep/safeguard/cli"
	"github.com/safedep/safeguard/storage"
	"github.com/safedep/safeguard/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `storage:
  path: {{db}}
  retention_days: 30
disclosure:
  mode: decline
display:
  colors: never
streams:
  targets:
    - name: local
      type: file
      enabled: true
      config:
        path: {{sink}}
`

type testEnv struct {
	t          *testing.T
	tmpDir     string
	dbPath     string
	configPath string
	sinkPath   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, "")
}

// newTestEnvWithExtra appends extra top-level sections to the base config.
func newTestEnvWithExtra(t *testing.T, extra string) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, baseConfig+extra)
}

// newTestEnvWithConfig writes configYAML, or a default config when empty.
// The placeholders {{db}} and {{sink}} expand to the database and sink paths.
func newTestEnvWithConfig(t *testing.T, configYAML string) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	configPath := filepath.Join(tmpDir, "config.yaml")
	sinkPath := filepath.Join(tmpDir, "outcomes.jsonl")

	if configYAML == "" {
		configYAML = baseConfig
	}

	err := os.WriteFile(configPath, []byte(strings.NewReplacer("{{db}}", dbPath, "{{sink}}", sinkPath).Replace(configYAML)), 0o600)
	require.NoError(t, err)

	return &testEnv{
		t:          t,
		tmpDir:     tmpDir,
		dbPath:     dbPath,
		configPath: configPath,
		sinkPath:   sinkPath,
	}
}

func (env *testEnv) run(args ...string) (stdout, stderr string, err error) {
	env.t.Helper()

	var outBuf, errBuf bytes.Buffer
	rootCmd := cli.NewRootCmd()
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetIn(bytes.NewReader(nil))

	fullArgs := append([]string{"--config", env.configPath, "--no-color"}, args...)
	rootCmd.SetArgs(fullArgs)
	err = rootCmd.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}

// scenario writes a scenario file and returns its path.
func (env *testEnv) scenario(body string) string {
	env.t.Helper()

	path := filepath.Join(env.tmpDir, fmt.Sprintf("scenario-%s.yaml", uuid.NewString()[:8]))
	require.NoError(env.t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (env *testEnv) openStore() (storage.Store, func()) {
	env.t.Helper()

	store, err := storage.NewSQLiteStore(env.dbPath)
	require.NoError(env.t, err)
	err = store.Init(context.Background())
	require.NoError(env.t, err)

	return store, func() {
		err := store.Close()
		require.NoError(env.t, err)
	}
}

func (env *testEnv) seedStore(fn func(ctx context.Context, store storage.Store)) {
	env.t.Helper()

	store, cleanup := env.openStore()
	defer cleanup()

	fn(context.Background(), store)
}

// seedRunsAt seeds one passing checkAll run per age.
func seedRunsAt(ages ...time.Duration) func(env *testEnv) {
	return func(env *testEnv) {
		env.seedStore(func(ctx context.Context, store storage.Store) {
			sessionID := uuid.New()
			for _, age := range ages {
				started := time.Now().UTC().Add(-age)
				run := &storage.RunRecord{
					ID:         uuid.New(),
					SessionID:  sessionID,
					Operation:  "checkAll",
					StartedAt:  started,
					FinishedAt: started.Add(time.Second),
					Passed:     true,
					Message:    "All security checks passed",
				}
				require.NoError(env.t, store.SaveRun(ctx, run))
			}
		})
	}
}

func (env *testEnv) countRuns() int {
	env.t.Helper()

	store, cleanup := env.openStore()
	defer cleanup()

	n, err := store.CountRuns(context.Background(), &storage.RunFilter{})
	require.NoError(env.t, err)
	return n
}

// --- Assertion helpers ---

func exitCode(err error) int {
	if err == nil {
		return cli.ExitSuccess
	}

	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return cli.ExitGeneral
}

func decodeOutcome(t *testing.T, stdout string) tui.OutcomeView {
	t.Helper()

	var out tui.OutcomeView
	require.NoError(t, json.Unmarshal([]byte(stdout), &out), "stdout: %s", stdout)
	return out
}

func reportKinds(o tui.OutcomeView) []string {
	kinds := make([]string, len(o.Reports))
	for i, r := range o.Reports {
		kinds[i] = r.Kind
	}
	return kinds
}

func assertExit(code int) func(*testing.T, error) {
	return func(t *testing.T, err error) {
		t.Helper()
		assert.Equal(t, code, exitCode(err), "err: %v", err)
	}
}
