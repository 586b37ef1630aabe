package lab

import (
	"context"

	"github.com/steveyegge/sleuth/internal/scheduler"
	"github.com/steveyegge/sleuth/internal/types"
)

// Stub collaborators drive the scheduler without a model, for offline runs
// and tests.
var (
	_ scheduler.ExperimentProposer = StubProposer{}
	_ scheduler.Estimator          = StubEstimator{}
	_ scheduler.Runner             = StubRunner{}
)

// StubProposer proposes the same two experiments for every theory.
type StubProposer struct{}

func (StubProposer) BrainstormExperiments(_ context.Context, theory types.Theory) ([]types.ExperimentDesign, error) {
	return []types.ExperimentDesign{
		{Description: "read the code", Theory: theory},
		{Description: "run it and see what happens", Theory: theory},
	}, nil
}

// StubEstimator rates every experiment as certain and free.
type StubEstimator struct{}

func (StubEstimator) EstimateCostAndOdds(_ context.Context, experiment types.ExperimentDesign) (types.ExperimentEstimate, error) {
	return types.ExperimentEstimate{Experiment: experiment, Odds: 1, Cost: 0}, nil
}

// StubRunner learns nothing from any experiment.
type StubRunner struct{}

func (StubRunner) RunExperiment(_ context.Context, experiment types.ExperimentDesign) (types.ExperimentResult, error) {
	return types.ExperimentResult{Experiment: experiment, Verdict: types.VerdictInconclusive}, nil
}
