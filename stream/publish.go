package stream

import (
	"context"

	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/core/report"
)

// PublishResult holds the result of delivering outcomes to every sink.
type PublishResult struct {
	TargetResults []TargetPublishResult
}

// TargetPublishResult holds the result for a single sink.
type TargetPublishResult struct {
	TargetName   string
	OutcomesSent int
	Error        error
}

// Failed returns true if any sink failed.
func (r *PublishResult) Failed() bool {
	for _, tr := range r.TargetResults {
		if tr.Error != nil {
			return true
		}
	}
	return false
}

// Publisher fans outcomes out to the enabled sinks of a registry. A failing
// sink never prevents delivery to the others.
type Publisher struct {
	registry *Registry
}

// NewPublisher creates a Publisher over registry.
func NewPublisher(registry *Registry) *Publisher {
	return &Publisher{registry: registry}
}

// Publish sends outcomes to every enabled sink.
func (p *Publisher) Publish(ctx context.Context, outcomes ...report.Outcome) *PublishResult {
	targets := p.registry.Enabled()
	result := &PublishResult{
		TargetResults: make([]TargetPublishResult, 0, len(targets)),
	}

	if len(outcomes) == 0 {
		return result
	}

	for _, target := range targets {
		tr := TargetPublishResult{TargetName: target.Name()}

		if err := target.Send(ctx, outcomes); err != nil {
			log.Errorf("failed to publish to sink %s: %v", target.Name(), err)
			tr.Error = err
		} else {
			tr.OutcomesSent = len(outcomes)
		}

		result.TargetResults = append(result.TargetResults, tr)
	}

	return result
}
