package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/types"
)

// roundExecutor runs one round of an investigation against one Issue.
type roundExecutor struct {
	d               *Debugger
	investigationID string
	number          int // 1-based
	issue           types.Issue
	tracker         *Tracker
	logger          *slog.Logger
}

// run executes the round. It returns a non-nil confirmed result as soon as an
// experiment confirms its theory; otherwise it returns every non-confirming
// result in execution order.
func (r *roundExecutor) run(ctx context.Context) (*types.ExperimentResult, []types.ExperimentResult, error) {
	r.record(ctx, events.NewSimpleEvent(events.EventTypeRoundStarted, r.investigationID, r.number, events.SeverityInfo,
		fmt.Sprintf("round %d started", r.number)))

	theories, err := r.d.theories.BrainstormTheories(ctx, r.issue)
	if err != nil {
		return nil, nil, fmt.Errorf("round %d: brainstorm theories: %w", r.number, err)
	}
	for i := range theories {
		theories[i].Issue = r.issue
	}
	r.recordTheories(ctx, theories)
	r.logger.Info("theories generated", "count", len(theories))

	var estimates []types.ExperimentEstimate
	for _, theory := range theories {
		designs, err := r.d.proposer.BrainstormExperiments(ctx, theory)
		if err != nil {
			return nil, nil, fmt.Errorf("round %d: brainstorm experiments for %q: %w", r.number, theory.Key(), err)
		}
		for i := range designs {
			designs[i].Theory = theory
		}

		theoryEstimates, err := r.estimate(ctx, designs)
		if err != nil {
			return nil, nil, err
		}
		estimates = append(estimates, theoryEstimates...)
	}

	plan := Select(estimates, r.d.cfg.Weights, r.d.cfg.Selection)
	r.recordPlan(ctx, len(estimates), plan)
	r.logger.Info("experiments selected", "candidates", len(estimates), "selected", len(plan))

	var labLog []types.ExperimentResult
	for _, est := range plan {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("round %d: %w", r.number, err)
		}

		theory := est.Experiment.Theory
		if r.tracker.IsFalsified(theory.Key()) {
			r.logger.Info("skipping experiment, theory already falsified",
				"theory", theory.Key(), "experiment", est.Experiment.Description)
			r.recordExperiment(ctx, events.EventTypeExperimentSkipped, events.SeverityInfo,
				"skipped: theory already falsified", est)
			continue
		}

		start := time.Now()
		result, err := r.d.runner.RunExperiment(ctx, est.Experiment)
		if err != nil {
			return nil, nil, fmt.Errorf("round %d: run experiment %q: %w", r.number, est.Experiment.Description, err)
		}
		if !result.Verdict.IsValid() {
			return nil, nil, fmt.Errorf("round %d: run experiment %q: invalid verdict %d", r.number, est.Experiment.Description, int(result.Verdict))
		}
		result.Experiment = est.Experiment
		r.recordResult(ctx, est, result, time.Since(start))

		switch result.Verdict {
		case types.VerdictConfirmed:
			r.logger.Info("theory confirmed", "theory", theory.Key(), "experiment", est.Experiment.Description)
			r.recordExperiment(ctx, events.EventTypeTheoryConfirmed, events.SeverityInfo,
				fmt.Sprintf("theory confirmed: %s", theory.Key()), est)
			return &result, nil, nil
		case types.VerdictRefuted:
			if r.tracker.MarkFalsified(theory.Key()) {
				r.logger.Info("theory falsified", "theory", theory.Key())
				r.recordExperiment(ctx, events.EventTypeTheoryFalsified, events.SeverityInfo,
					fmt.Sprintf("theory falsified: %s", theory.Key()), est)
			}
		}
		labLog = append(labLog, result)
	}

	return nil, labLog, nil
}

// estimate scores one theory's designs, preserving their order. When
// EstimateConcurrency allows it, the estimator is called concurrently.
func (r *roundExecutor) estimate(ctx context.Context, designs []types.ExperimentDesign) ([]types.ExperimentEstimate, error) {
	estimates := make([]types.ExperimentEstimate, len(designs))

	if r.d.cfg.EstimateConcurrency <= 1 {
		for i, design := range designs {
			est, err := r.d.estimator.EstimateCostAndOdds(ctx, design)
			if err != nil {
				return nil, fmt.Errorf("round %d: estimate %q: %w", r.number, design.Description, err)
			}
			estimates[i] = r.d.finishEstimate(design, est)
		}
		return estimates, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.d.cfg.EstimateConcurrency)
	for i, design := range designs {
		g.Go(func() error {
			est, err := r.d.estimator.EstimateCostAndOdds(gctx, design)
			if err != nil {
				return fmt.Errorf("round %d: estimate %q: %w", r.number, design.Description, err)
			}
			estimates[i] = r.d.finishEstimate(design, est)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return estimates, nil
}

func (r *roundExecutor) record(ctx context.Context, event *events.Event) {
	r.d.recordEvent(ctx, r.logger, event)
}

func (r *roundExecutor) experimentData(est types.ExperimentEstimate) events.ExperimentData {
	return events.ExperimentData{
		Theory:     est.Experiment.Theory.Key(),
		Experiment: est.Experiment.Description,
		Command:    est.Experiment.Command,
		Odds:       est.Odds,
		Cost:       est.Cost,
		ROI:        est.ROI(r.d.cfg.Weights),
	}
}

func (r *roundExecutor) recordTheories(ctx context.Context, theories []types.Theory) {
	data := events.TheoriesGeneratedData{
		Theories: make([]string, len(theories)),
		Odds:     make([]float64, len(theories)),
	}
	for i, t := range theories {
		data.Theories[i] = t.Description
		data.Odds[i] = t.Odds
	}
	event, err := events.NewTheoriesGeneratedEvent(r.investigationID, r.number,
		fmt.Sprintf("%d theories generated", len(theories)), data)
	if err != nil {
		r.logger.Warn("failed to build event", "type", events.EventTypeTheoriesGenerated, "error", err)
		return
	}
	r.record(ctx, event)
}

func (r *roundExecutor) recordPlan(ctx context.Context, candidates int, plan []types.ExperimentEstimate) {
	data := events.ExperimentsSelectedData{
		Candidates: candidates,
		Order:      string(r.d.cfg.Selection.Order),
		Plan:       make([]events.ExperimentData, len(plan)),
	}
	for i, est := range plan {
		data.Plan[i] = r.experimentData(est)
	}
	event, err := events.NewExperimentsSelectedEvent(r.investigationID, r.number,
		fmt.Sprintf("%d of %d experiments selected", len(plan), candidates), data)
	if err != nil {
		r.logger.Warn("failed to build event", "type", events.EventTypeExperimentsSelected, "error", err)
		return
	}
	r.record(ctx, event)
}

func (r *roundExecutor) recordExperiment(ctx context.Context, eventType events.EventType, severity events.EventSeverity, message string, est types.ExperimentEstimate) {
	event, err := events.NewExperimentEvent(eventType, r.investigationID, r.number, severity, message, r.experimentData(est))
	if err != nil {
		r.logger.Warn("failed to build event", "type", eventType, "error", err)
		return
	}
	r.record(ctx, event)
}

func (r *roundExecutor) recordResult(ctx context.Context, est types.ExperimentEstimate, result types.ExperimentResult, elapsed time.Duration) {
	r.logger.Debug("experiment completed",
		"experiment", est.Experiment.Description, "verdict", result.Verdict.String(), "duration", elapsed)

	if err := r.d.recorder.RecordResult(ctx, r.investigationID, r.number, result); err != nil {
		r.logger.Warn("failed to record experiment result", "error", err)
	}

	event, err := events.NewExperimentCompletedEvent(r.investigationID, r.number,
		fmt.Sprintf("experiment %s: %s", result.Verdict, est.Experiment.Description),
		events.ExperimentCompletedData{
			ExperimentData: r.experimentData(est),
			Verdict:        result.Verdict.String(),
			Summary:        result.Summary,
			Duration:       elapsed,
		})
	if err != nil {
		r.logger.Warn("failed to build event", "type", events.EventTypeExperimentCompleted, "error", err)
		return
	}
	r.record(ctx, event)
}
