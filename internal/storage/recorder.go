package storage

import (
	"context"
	"time"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/scheduler"
	"github.com/steveyegge/sleuth/internal/types"
)

// Recorder writes an investigation's audit trail to a Storage.
type Recorder struct {
	store Storage
}

var _ scheduler.Recorder = (*Recorder)(nil)

// NewRecorder creates a Recorder backed by store.
func NewRecorder(store Storage) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) StartInvestigation(ctx context.Context, id string, issue types.Issue) error {
	return r.store.CreateInvestigation(ctx, &types.Investigation{
		ID:        id,
		Issue:     issue.Description,
		Status:    types.InvestigationRunning,
		StartedAt: time.Now(),
	})
}

func (r *Recorder) RecordEvent(ctx context.Context, event *events.Event) error {
	return r.store.StoreEvent(ctx, event)
}

func (r *Recorder) RecordResult(ctx context.Context, id string, round int, result types.ExperimentResult) error {
	return r.store.RecordResult(ctx, types.NewLabEntry(id, round, result))
}

// FinishInvestigation stores the outcome, or runErr when the run was aborted.
func (r *Recorder) FinishInvestigation(ctx context.Context, id string, outcome *types.Outcome, runErr error) error {
	inv := &types.Investigation{ID: id}

	switch {
	case runErr != nil:
		inv.Status = types.InvestigationAborted
		inv.Error = runErr.Error()
	case outcome.Solved():
		inv.Status = types.InvestigationSolved
		inv.Rounds = outcome.Rounds
		inv.Theory = outcome.Result.Experiment.Theory.Description
		inv.Summary = outcome.Result.Summary
	case outcome == nil:
		inv.Status = types.InvestigationAborted
		inv.Error = "investigation ended without an outcome"
	default:
		inv.Status = types.InvestigationFailed
		inv.Rounds = outcome.Rounds
		if outcome.Failure != nil {
			inv.Summary = outcome.Failure.Summary
		}
	}

	return r.store.FinishInvestigation(ctx, inv)
}
