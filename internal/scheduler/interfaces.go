package scheduler

import (
	"context"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/types"
)

// TheoryGenerator turns an Issue into candidate explanations.
// An empty list is a valid answer ("no theories this round").
type TheoryGenerator interface {
	BrainstormTheories(ctx context.Context, issue types.Issue) ([]types.Theory, error)
}

// ExperimentProposer turns a theory into candidate low-cost tests.
type ExperimentProposer interface {
	BrainstormExperiments(ctx context.Context, theory types.Theory) ([]types.ExperimentDesign, error)
}

// Estimator scores an experiment with success odds and cost.
type Estimator interface {
	EstimateCostAndOdds(ctx context.Context, experiment types.ExperimentDesign) (types.ExperimentEstimate, error)
}

// Runner executes an experiment. An inconclusive verdict is a normal result,
// not an error; errors mean the experiment could not be run at all.
type Runner interface {
	RunExperiment(ctx context.Context, experiment types.ExperimentDesign) (types.ExperimentResult, error)
}

// Recorder receives an audit trail of an investigation. Recorder errors are
// logged and never change the course of an investigation.
type Recorder interface {
	StartInvestigation(ctx context.Context, id string, issue types.Issue) error
	RecordEvent(ctx context.Context, event *events.Event) error
	RecordResult(ctx context.Context, id string, round int, result types.ExperimentResult) error
	FinishInvestigation(ctx context.Context, id string, outcome *types.Outcome, runErr error) error
}

// NopRecorder discards the audit trail.
type NopRecorder struct{}

func (NopRecorder) StartInvestigation(context.Context, string, types.Issue) error {
	return nil
}

func (NopRecorder) RecordEvent(context.Context, *events.Event) error {
	return nil
}

func (NopRecorder) RecordResult(context.Context, string, int, types.ExperimentResult) error {
	return nil
}

func (NopRecorder) FinishInvestigation(context.Context, string, *types.Outcome, error) error {
	return nil
}
