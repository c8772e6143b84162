package tui

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terminatedOutcome() *OutcomeView {
	return &OutcomeView{
		RunID:      "3f2a9c1e-0000-4000-8000-000000000001",
		ShortRunID: "3f2a9c1e",
		Operation:  "checkAll",
		Terminated: true,
		Reports: []ReportView{
			{Kind: "developer_options", Title: "Developer Options Enabled", Message: "debugger attached", Severity: "warning", Continued: true},
			{Kind: "root", Title: "Root Access Detected", Message: "su found", Severity: "error"},
		},
		Faults:     1,
		Duration:   120 * time.Millisecond,
		FinishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func render(t *testing.T, format Format, verbose bool, fn func(p Presenter) error) string {
	t.Helper()

	var buf bytes.Buffer
	p := NewPresenter(format, PresenterOptions{Writer: &buf, Verbose: verbose, TerminalWidth: 100})
	require.NoError(t, fn(p))
	return buf.String()
}

func TestRenderOutcome(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		verbose bool
		outcome *OutcomeView
		assert  func(t *testing.T, out string)
	}{
		{
			name:    "table_terminated",
			format:  FormatTable,
			verbose: true,
			outcome: terminatedOutcome(),
			assert: func(t *testing.T, out string) {
				assert.Contains(t, out, "Session terminated")
				assert.Contains(t, out, "Root Access Detected")
				assert.Contains(t, out, "su found")
				assert.Contains(t, out, "continued")
				assert.Contains(t, out, "run 3f2a9c1e")
				assert.Contains(t, out, "1 detector fault(s)")
			},
		},
		{
			name:   "table_passed",
			format: FormatTable,
			outcome: &OutcomeView{
				Operation: "checkAll",
				Passed:    true,
				Message:   "All security checks passed",
			},
			assert: func(t *testing.T, out string) {
				assert.Contains(t, out, "All security checks passed")
				assert.NotContains(t, out, "run ")
			},
		},
		{
			name:   "table_aborted",
			format: FormatTable,
			outcome: &OutcomeView{
				Operation: "startChecks",
				Aborted:   true,
			},
			assert: func(t *testing.T, out string) {
				assert.Contains(t, out, "Checks abandoned")
			},
		},
		{
			name:    "json",
			format:  FormatJSON,
			outcome: terminatedOutcome(),
			assert: func(t *testing.T, out string) {
				var got OutcomeView
				require.NoError(t, json.Unmarshal([]byte(out), &got))
				assert.True(t, got.Terminated)
				assert.Len(t, got.Reports, 2)
				assert.Equal(t, "error", got.Reports[1].Severity)
				assert.NotContains(t, out, "ShortRunID")
			},
		},
		{
			name:    "jsonl_single_line",
			format:  FormatJSONL,
			outcome: terminatedOutcome(),
			assert: func(t *testing.T, out string) {
				assert.Equal(t, 1, strings.Count(out, "\n"))
			},
		},
		{
			name:    "csv_row_per_report",
			format:  FormatCSV,
			outcome: terminatedOutcome(),
			assert: func(t *testing.T, out string) {
				records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
				require.NoError(t, err)
				require.Len(t, records, 3)
				assert.Equal(t, "root", records[2][4])
				assert.Equal(t, "false", records[2][9])
			},
		},
		{
			name:   "csv_passed_has_summary_row",
			format: FormatCSV,
			outcome: &OutcomeView{
				Operation: "check",
				Kind:      "root",
				Passed:    true,
				Message:   "Root Access Check: Passed",
			},
			assert: func(t *testing.T, out string) {
				records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
				require.NoError(t, err)
				require.Len(t, records, 2)
				assert.Equal(t, "Root Access Check: Passed", records[1][6])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, tt.format, tt.verbose, func(p Presenter) error {
				return p.RenderOutcome(tt.outcome)
			})
			tt.assert(t, out)
		})
	}
}

func TestRenderRuns(t *testing.T) {
	runs := []*RunView{
		{
			ID:         "aaaaaaaa-0000-4000-8000-000000000001",
			ShortID:    "aaaaaaaa",
			Operation:  "checkAll",
			StartedAt:  time.Now().Add(-time.Hour),
			Terminated: true,
			Message:    "Root Access Detected: su found",
		},
		{
			ID:             "bbbbbbbb-0000-4000-8000-000000000002",
			ShortID:        "bbbbbbbb",
			Operation:      "check",
			CheckKind:      "keylogger",
			StartedAt:      time.Now().Add(-2 * time.Hour),
			ViolationCount: 2,
		},
	}

	t.Run("table", func(t *testing.T) {
		out := render(t, FormatTable, false, func(p Presenter) error { return p.RenderRuns(runs) })
		assert.Contains(t, out, "Check runs (2)")
		assert.Contains(t, out, "terminated")
		assert.Contains(t, out, "2 warn")
		assert.Contains(t, out, "keylogger")
	})

	t.Run("table_empty", func(t *testing.T) {
		out := render(t, FormatTable, false, func(p Presenter) error { return p.RenderRuns(nil) })
		assert.Contains(t, out, "No check runs found.")
	})

	t.Run("json_empty_is_array", func(t *testing.T) {
		out := render(t, FormatJSON, false, func(p Presenter) error { return p.RenderRuns(nil) })
		assert.JSONEq(t, "[]", out)
	})

	t.Run("csv", func(t *testing.T) {
		out := render(t, FormatCSV, false, func(p Presenter) error { return p.RenderRuns(runs) })
		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})
}

func TestRenderRun(t *testing.T) {
	run := &RunView{
		ID:        "aaaaaaaa-0000-4000-8000-000000000001",
		Operation: "checkAll",
		StartedAt: time.Now(),
		Violations: []*ViolationView{
			{Sequence: 0, CheckKind: "malware_tampering", Title: "Malware Detected", Message: "scanner failed", Level: "WARNING", RawSeverity: "critical", ReportSeverity: "error", Fault: true, Continued: true},
			{Sequence: 1, CheckKind: "root", Title: "Root Access Detected", Message: "su found", Level: "ERROR", RawSeverity: "critical"},
		},
	}

	t.Run("table", func(t *testing.T) {
		out := render(t, FormatTable, false, func(p Presenter) error { return p.RenderRun(run) })
		assert.Contains(t, out, "Violations")
		assert.Contains(t, out, "detector fault")
		assert.Contains(t, out, "not reported")
	})

	t.Run("jsonl_header_then_violations", func(t *testing.T) {
		out := render(t, FormatJSONL, false, func(p Presenter) error { return p.RenderRun(run) })
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.NotContains(t, lines[0], "violations")
	})
}

func TestRenderPolicy(t *testing.T) {
	pv := &PolicyView{
		Source: "defaults",
		Entries: []PolicyEntryView{
			{Kind: "root", Level: "ERROR", Default: "ERROR", Enabled: true},
			{Kind: "keylogger", Level: "WARNING", Default: "WARNING", Raw: "shout", Fallback: true, Enabled: true},
			{Kind: "ongoing_call", Level: "WARNING", Default: "WARNING", Optional: true},
		},
		Identity: IdentityView{ExpectedAppID: "safeguard", RunningAppID: "safeguard"},
	}

	t.Run("table", func(t *testing.T) {
		out := render(t, FormatTable, false, func(p Presenter) error { return p.RenderPolicy(pv) })
		assert.Contains(t, out, "Effective Policy")
		assert.Contains(t, out, `unrecognised value "shout"`)
		assert.Contains(t, out, "disabled")
	})

	t.Run("csv", func(t *testing.T) {
		out := render(t, FormatCSV, false, func(p Presenter) error { return p.RenderPolicy(pv) })
		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"keylogger", "WARNING", "WARNING", "shout", "true", "true"}, records[2])
	})
}

func TestRenderDiff(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		out := render(t, FormatTable, false, func(p Presenter) error {
			return p.RenderDiff(&DiffView{From: "defaults", To: "effective", Identical: true})
		})
		assert.Contains(t, out, "No differences between defaults and effective.")
	})

	t.Run("content", func(t *testing.T) {
		content := "--- defaults\n+++ effective\n@@ -1 +1 @@\n-    keylogger: WARNING\n+    keylogger: ERROR\n"
		out := render(t, FormatTable, false, func(p Presenter) error {
			return p.RenderDiff(&DiffView{From: "defaults", To: "effective", Content: content})
		})
		assert.Equal(t, content, out)
	})
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatCSV, ParseFormat("csv"))
	assert.Equal(t, FormatTable, ParseFormat("yaml"))
	assert.Equal(t, FormatTable, ParseFormat(""))
}
