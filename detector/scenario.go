package detector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/safedep/safeguard/core/check"
	"gopkg.in/yaml.v3"
)

// Step scripts the answer of one detector.
type Step struct {
	Severity string `yaml:"severity"`
	Message  string `yaml:"message"`
	Fault    string `yaml:"fault"`
	Panic    bool   `yaml:"panic"`
	Delay    string `yaml:"delay"`
}

// Scenario is a scripted set of detector answers used to rehearse a policy
// without a compromised host. Kinds it does not mention pass.
type Scenario struct {
	Name   string          `yaml:"name"`
	Checks map[string]Step `yaml:"checks"`

	steps map[check.Kind]scriptedStep
}

type scriptedStep struct {
	result check.Result
	fault  string
	panic  bool
	delay  time.Duration
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	s.steps = make(map[check.Kind]scriptedStep, len(s.Checks))
	var errs []error
	for key, step := range s.Checks {
		kind, err := check.ParseKind(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		compiled, err := step.compile()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		s.steps[kind] = compiled
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid scenario: %w", errors.Join(errs...))
	}
	return &s, nil
}

func (st Step) compile() (scriptedStep, error) {
	out := scriptedStep{fault: st.Fault, panic: st.Panic}

	sev, ok := check.ParseSeverity(st.Severity)
	if !ok {
		return out, fmt.Errorf("unknown severity %q", st.Severity)
	}
	switch sev {
	case check.SeveritySuccess:
		out.result = check.Success()
	case check.SeverityWarning:
		out.result = check.Warning(st.Message)
	case check.SeverityCritical:
		out.result = check.Critical(st.Message)
	}

	if st.Delay != "" {
		d, err := time.ParseDuration(st.Delay)
		if err != nil {
			return out, fmt.Errorf("invalid delay: %w", err)
		}
		if d < 0 {
			return out, fmt.Errorf("delay must not be negative")
		}
		out.delay = d
	}

	return out, nil
}

// Detectors returns one scripted detector per kind, in detection order.
func (s *Scenario) Detectors() []check.Detector {
	out := make([]check.Detector, 0, check.NumKinds)
	for _, kind := range check.All() {
		step := s.steps[kind]
		out = append(out, check.DetectorFunc{K: kind, Fn: step.run})
	}
	return out
}

// Register adds every scripted detector to r, replacing existing ones.
func (s *Scenario) Register(r *Registry) {
	for _, d := range s.Detectors() {
		r.Register(d)
	}
}

func (st scriptedStep) run(ctx context.Context) (check.Result, error) {
	if st.delay > 0 {
		timer := time.NewTimer(st.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return check.Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	if st.panic {
		panic("scripted detector panic")
	}
	if st.fault != "" {
		return check.Result{}, errors.New(st.fault)
	}
	return st.result, nil
}
