package stream_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/stream"
	"github.com/safedep/safeguard/stream/file"
	"github.com/safedep/safeguard/stream/nop"
	"github.com/safedep/safeguard/stream/stdout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{ name string }

func (f *failingSink) Name() string  { return f.name }
func (f *failingSink) Enabled() bool { return true }
func (f *failingSink) Send(context.Context, []report.Outcome) error {
	return errors.New("sink unavailable")
}
func (f *failingSink) Close() error { return nil }

func sampleOutcome() report.Outcome {
	r := report.Report{
		Kind:     check.KindDeveloperOptions,
		Title:    "Developer Options Enabled",
		Message:  "debugger attached",
		Severity: report.SeverityWarning,
	}
	return report.Outcome{
		RunID:     uuid.New(),
		Operation: report.OperationCheckAll,
		Primary:   &r,
		Reports:   []report.Report{r},
	}
}

func TestRegistry(t *testing.T) {
	r := stream.NewRegistry()
	r.Register(nop.New("b", true))
	r.Register(nop.New("a", false))
	r.Register(stdout.New("c", true, &bytes.Buffer{}))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Name())

	enabled := r.Enabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, "b", enabled[0].Name())
	assert.Equal(t, "c", enabled[1].Name())

	_, ok := r.Get("a")
	assert.True(t, ok)
	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.NoError(t, r.Close())
}

func TestPublisher_FansOutAndIsolatesFailures(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "out", "outcomes.jsonl")

	r := stream.NewRegistry()
	r.Register(&failingSink{name: "broken"})
	r.Register(stdout.New("console", true, &buf))
	r.Register(file.New("history", true, path))
	defer r.Close()

	outcome := sampleOutcome()
	result := stream.NewPublisher(r).Publish(context.Background(), outcome)

	require.Len(t, result.TargetResults, 3)
	assert.True(t, result.Failed())

	for _, tr := range result.TargetResults {
		if tr.TargetName == "broken" {
			assert.Error(t, tr.Error)
			assert.Equal(t, 0, tr.OutcomesSent)
		} else {
			assert.NoError(t, tr.Error)
			assert.Equal(t, 1, tr.OutcomesSent)
		}
	}

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "checkAll", decoded["operation"])
	primary := decoded["primary"].(map[string]any)
	assert.Equal(t, "warning", primary["type"])
	assert.Equal(t, "developer_options", primary["kind"])

	require.NoError(t, r.Close())
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 1, lines)
}

func TestPublisher_FileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outcomes.jsonl")

	for i := 0; i < 2; i++ {
		r := stream.NewRegistry()
		r.Register(file.New("history", true, path))

		result := stream.NewPublisher(r).Publish(context.Background(), sampleOutcome(), sampleOutcome())
		assert.False(t, result.Failed())
		require.NoError(t, r.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, bytes.Count(data, []byte("\n")))
}

func TestPublisher_NoOutcomes(t *testing.T) {
	r := stream.NewRegistry()
	r.Register(&failingSink{name: "broken"})

	result := stream.NewPublisher(r).Publish(context.Background())
	assert.Empty(t, result.TargetResults)
	assert.False(t, result.Failed())
}
