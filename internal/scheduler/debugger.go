package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/logging"
	"github.com/steveyegge/sleuth/internal/types"
)

// FailureBanner opens the summary of every Failure.
const FailureBanner = "Failed to debug issue."

// ErrNoCollaborator is returned by New when a required collaborator is missing.
var ErrNoCollaborator = errors.New("missing collaborator")

// Deps are the collaborators a Debugger schedules work onto.
type Deps struct {
	Theories  TheoryGenerator
	Proposer  ExperimentProposer
	Estimator Estimator
	Runner    Runner

	// Recorder receives the audit trail (optional).
	Recorder Recorder

	// Logger defaults to the "scheduler" component logger (optional).
	Logger *slog.Logger
}

// Debugger runs investigations. A Debugger holds no per-investigation state,
// so one Debugger may run several investigations concurrently as long as its
// collaborators allow it.
type Debugger struct {
	cfg       Config
	theories  TheoryGenerator
	proposer  ExperimentProposer
	estimator Estimator
	runner    Runner
	recorder  Recorder
	logger    *slog.Logger
}

// New creates a Debugger. The config is validated and all four collaborators
// are required.
func New(cfg Config, deps Deps) (*Debugger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch {
	case deps.Theories == nil:
		return nil, fmt.Errorf("%w: theory generator", ErrNoCollaborator)
	case deps.Proposer == nil:
		return nil, fmt.Errorf("%w: experiment proposer", ErrNoCollaborator)
	case deps.Estimator == nil:
		return nil, fmt.Errorf("%w: estimator", ErrNoCollaborator)
	case deps.Runner == nil:
		return nil, fmt.Errorf("%w: runner", ErrNoCollaborator)
	}

	recorder := deps.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.New("scheduler")
	}

	return &Debugger{
		cfg:       cfg,
		theories:  deps.Theories,
		proposer:  deps.Proposer,
		estimator: deps.Estimator,
		runner:    deps.Runner,
		recorder:  recorder,
		logger:    logger,
	}, nil
}

// Config returns the configuration the Debugger was built with.
func (d *Debugger) Config() Config {
	return d.cfg
}

// Debug investigates an issue for up to MaxRounds rounds.
//
// The outcome carries either the result that confirmed a theory or a Failure
// with the final Issue and the complete lab log. Running out of rounds is not
// an error. An error is returned only when a collaborator fails or ctx is
// done; the investigation is abandoned in that case.
func (d *Debugger) Debug(ctx context.Context, issue types.Issue) (*types.Outcome, error) {
	id := uuid.New().String()
	ctx = events.WithInvestigation(ctx, id)
	logger := d.logger.With("investigation", id)

	if err := d.recorder.StartInvestigation(ctx, id, issue); err != nil {
		logger.Warn("failed to record investigation start", "error", err)
	}
	d.recordEvent(ctx, logger, events.NewSimpleEvent(events.EventTypeInvestigationStarted, id, 0, events.SeverityInfo,
		fmt.Sprintf("investigation started (max %d rounds)", d.cfg.MaxRounds)))

	original := issue
	tracker := NewTracker()
	var labLog []types.ExperimentResult
	summary := ""

	for round := 0; round < d.cfg.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, d.abort(ctx, logger, id, round, fmt.Errorf("investigation canceled after %d rounds: %w", round, err))
		}

		logger.Info("round started", "round", round+1, "max_rounds", d.cfg.MaxRounds,
			"falsified", tracker.Len(), "lab_log", len(labLog))

		r := &roundExecutor{
			d:               d,
			investigationID: id,
			number:          round + 1,
			issue:           issue,
			tracker:         tracker,
			logger:          logger.With("round", round+1),
		}
		confirmed, roundLog, err := r.run(ctx)
		if err != nil {
			return nil, d.abort(ctx, logger, id, round+1, err)
		}
		if confirmed != nil {
			outcome := &types.Outcome{InvestigationID: id, Rounds: round + 1, Result: confirmed}
			d.finish(ctx, logger, outcome)
			return outcome, nil
		}

		labLog = append(labLog, roundLog...)
		summary = SummarizeLabLog(labLog)
		issue = NextIssue(original, summary)
	}

	failure := &types.Failure{
		Issue:   issue,
		Summary: FailureBanner + "\n\n" + summary,
		LabLog:  append([]types.ExperimentResult(nil), labLog...),
	}
	d.recordEvent(ctx, logger, events.NewSimpleEvent(events.EventTypeInvestigationFailed, id, d.cfg.MaxRounds, events.SeverityWarning,
		fmt.Sprintf("no theory confirmed after %d rounds (%d experiments, %d theories falsified)",
			d.cfg.MaxRounds, len(labLog), tracker.Len())))

	outcome := &types.Outcome{InvestigationID: id, Rounds: d.cfg.MaxRounds, Failure: failure}
	d.finish(ctx, logger, outcome)
	return outcome, nil
}

// SummarizeLabLog joins the summaries of all results with blank lines, in log order.
func SummarizeLabLog(results []types.ExperimentResult) string {
	summaries := make([]string, len(results))
	for i, r := range results {
		summaries[i] = r.Summary
	}
	return strings.Join(summaries, "\n\n")
}

// NextIssue builds the Issue for the next round: the original report
// followed by the summary of everything learned so far.
func NextIssue(original types.Issue, summary string) types.Issue {
	return types.Issue{Description: original.Description + "\n\n" + summary}
}

// finishEstimate attaches the design to the estimate and applies clamping.
func (d *Debugger) finishEstimate(design types.ExperimentDesign, est types.ExperimentEstimate) types.ExperimentEstimate {
	est.Experiment = design
	if d.cfg.ClampEstimates {
		est.Odds = clamp(est.Odds, 0, 1)
		est.Cost = math.Max(est.Cost, 0)
	}
	return est
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

func (d *Debugger) recordEvent(ctx context.Context, logger *slog.Logger, event *events.Event) {
	if err := d.recorder.RecordEvent(ctx, event); err != nil {
		logger.Warn("failed to record event", "type", event.Type, "error", err)
	}
}

func (d *Debugger) finish(ctx context.Context, logger *slog.Logger, outcome *types.Outcome) {
	if outcome.Solved() {
		logger.Info("investigation solved", "rounds", outcome.Rounds,
			"theory", outcome.Result.Experiment.Theory.Key())
	} else {
		logger.Info("investigation failed", "rounds", outcome.Rounds, "lab_log", len(outcome.Failure.LabLog))
	}
	if err := d.recorder.FinishInvestigation(ctx, outcome.InvestigationID, outcome, nil); err != nil {
		logger.Warn("failed to record investigation outcome", "error", err)
	}
}

// abort records a run that ended in an error and returns that error.
func (d *Debugger) abort(ctx context.Context, logger *slog.Logger, id string, round int, runErr error) error {
	logger.Error("investigation aborted", "round", round, "error", runErr)

	// The run context may already be done; the audit trail should still land.
	recordCtx := context.WithoutCancel(ctx)
	d.recordEvent(recordCtx, logger, events.NewSimpleEvent(events.EventTypeInvestigationAborted, id, round, events.SeverityError, runErr.Error()))
	if err := d.recorder.FinishInvestigation(recordCtx, id, nil, runErr); err != nil {
		logger.Warn("failed to record investigation outcome", "error", err)
	}
	return runErr
}
