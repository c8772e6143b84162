package tui

import (
	"encoding/json"
	"io"
)

// JSONPresenter renders output as JSON.
type JSONPresenter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewJSONPresenter creates a new JSON presenter.
func NewJSONPresenter(opts PresenterOptions) *JSONPresenter {
	encoder := json.NewEncoder(opts.Writer)
	encoder.SetIndent("", "  ")
	return &JSONPresenter{
		w:       opts.Writer,
		encoder: encoder,
	}
}

// RenderOutcome renders the outcome as JSON.
func (p *JSONPresenter) RenderOutcome(outcome *OutcomeView) error {
	return p.encoder.Encode(outcome)
}

// RenderRuns renders a list of runs as JSON.
func (p *JSONPresenter) RenderRuns(runs []*RunView) error {
	if runs == nil {
		runs = []*RunView{}
	}
	return p.encoder.Encode(runs)
}

// RenderRun renders a single run as JSON.
func (p *JSONPresenter) RenderRun(run *RunView) error {
	return p.encoder.Encode(run)
}

// RenderPolicy renders the effective policy as JSON.
func (p *JSONPresenter) RenderPolicy(policy *PolicyView) error {
	return p.encoder.Encode(policy)
}

// RenderDiff renders a diff view as JSON.
func (p *JSONPresenter) RenderDiff(diff *DiffView) error {
	return p.encoder.Encode(diff)
}

// RenderStatus renders the tool status as JSON.
func (p *JSONPresenter) RenderStatus(status *StatusView) error {
	return p.encoder.Encode(status)
}

// RenderDoctor renders the doctor check results as JSON.
func (p *JSONPresenter) RenderDoctor(result *DoctorView) error {
	return p.encoder.Encode(result)
}

// RenderConfig renders the configuration as JSON.
func (p *JSONPresenter) RenderConfig(config *ConfigView) error {
	return p.encoder.Encode(config)
}

// RenderSelfAudits renders self-audit entries as JSON.
func (p *JSONPresenter) RenderSelfAudits(entries []*SelfAuditView) error {
	if entries == nil {
		entries = []*SelfAuditView{}
	}
	return p.encoder.Encode(entries)
}

// RenderRetention renders retention information as JSON.
func (p *JSONPresenter) RenderRetention(retention *RetentionView) error {
	return p.encoder.Encode(retention)
}

// RenderError renders an error message as JSON.
func (p *JSONPresenter) RenderError(err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return p.encoder.Encode(output)
}

// RenderMessage renders a simple message as JSON.
func (p *JSONPresenter) RenderMessage(message string) error {
	output := struct {
		Message string `json:"message"`
	}{
		Message: message,
	}
	return p.encoder.Encode(output)
}

// Ensure JSONPresenter implements Presenter
var _ Presenter = (*JSONPresenter)(nil)
