package tui

import (
	"encoding/json"
	"io"
)

// JSONLPresenter renders output as newline-delimited JSON.
type JSONLPresenter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewJSONLPresenter creates a new JSONL presenter.
func NewJSONLPresenter(opts PresenterOptions) *JSONLPresenter {
	encoder := json.NewEncoder(opts.Writer)
	// No indentation for JSONL
	return &JSONLPresenter{
		w:       opts.Writer,
		encoder: encoder,
	}
}

// RenderOutcome renders the outcome as a single line.
func (p *JSONLPresenter) RenderOutcome(outcome *OutcomeView) error {
	return p.encoder.Encode(outcome)
}

// RenderRuns renders a list of runs as JSONL (one per line).
func (p *JSONLPresenter) RenderRuns(runs []*RunView) error {
	for _, r := range runs {
		if err := p.encoder.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// RenderRun renders a run followed by one line per violation.
func (p *JSONLPresenter) RenderRun(run *RunView) error {
	header := *run
	header.Violations = nil
	if err := p.encoder.Encode(&header); err != nil {
		return err
	}
	for _, v := range run.Violations {
		if err := p.encoder.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

// RenderPolicy renders one line per policy entry.
func (p *JSONLPresenter) RenderPolicy(policy *PolicyView) error {
	for _, e := range policy.Entries {
		if err := p.encoder.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// RenderDiff renders a diff view as JSONL.
func (p *JSONLPresenter) RenderDiff(diff *DiffView) error {
	return p.encoder.Encode(diff)
}

// RenderStatus renders the tool status as JSONL.
func (p *JSONLPresenter) RenderStatus(status *StatusView) error {
	return p.encoder.Encode(status)
}

// RenderDoctor renders the doctor check results as JSONL.
func (p *JSONLPresenter) RenderDoctor(result *DoctorView) error {
	for _, check := range result.Checks {
		if err := p.encoder.Encode(check); err != nil {
			return err
		}
	}
	return nil
}

// RenderConfig renders the configuration as JSONL.
func (p *JSONLPresenter) RenderConfig(config *ConfigView) error {
	return p.encoder.Encode(config)
}

// RenderSelfAudits renders self-audit entries as JSONL (one per line).
func (p *JSONLPresenter) RenderSelfAudits(entries []*SelfAuditView) error {
	for _, e := range entries {
		if err := p.encoder.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// RenderRetention renders retention information as JSONL.
func (p *JSONLPresenter) RenderRetention(retention *RetentionView) error {
	return p.encoder.Encode(retention)
}

// RenderError renders an error message as JSONL.
func (p *JSONLPresenter) RenderError(err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return p.encoder.Encode(output)
}

// RenderMessage renders a simple message as JSONL.
func (p *JSONLPresenter) RenderMessage(message string) error {
	output := struct {
		Message string `json:"message"`
	}{
		Message: message,
	}
	return p.encoder.Encode(output)
}

// Ensure JSONLPresenter implements Presenter
var _ Presenter = (*JSONLPresenter)(nil)
