package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/scheduler"
	"github.com/steveyegge/sleuth/internal/types"
)

func newTestStorage(t *testing.T) Storage {
	t.Helper()
	store, err := NewStorage(context.Background(), &Config{Path: filepath.Join(t.TempDir(), DefaultPath)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDefaultConfig_Env(t *testing.T) {
	t.Setenv("SLEUTH_DB_PATH", ":memory:")
	assert.Equal(t, ":memory:", DefaultConfig().Path)

	t.Setenv("SLEUTH_DB_PATH", "")
	assert.Equal(t, DefaultPath, DefaultConfig().Path)
}

func TestDiscoverDatabase_Env(t *testing.T) {
	t.Setenv("SLEUTH_DB_PATH", "/tmp/custom.db")
	path, err := DiscoverDatabase()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", path)
}

func TestDiscoverDatabaseFromDir(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, DefaultPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(dbPath), 0755))
	require.NoError(t, os.WriteFile(dbPath, nil, 0644))

	nested := filepath.Join(root, "src", "writer")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, ok := discoverDatabaseFromDir(nested)
	require.True(t, ok)
	assert.Equal(t, dbPath, found)

	_, ok = discoverDatabaseFromDir(t.TempDir())
	assert.False(t, ok)
}

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot("/home/user/project/.sleuth/sleuth.db")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/project", root)

	_, err = GetProjectRoot("/home/user/project/sleuth.db")
	require.Error(t, err)
}

// fixedTheories always returns the same theories.
type fixedTheories []types.Theory

func (f fixedTheories) BrainstormTheories(context.Context, types.Issue) ([]types.Theory, error) {
	return append([]types.Theory(nil), f...), nil
}

type oneExperiment struct{}

func (oneExperiment) BrainstormExperiments(_ context.Context, theory types.Theory) ([]types.ExperimentDesign, error) {
	return []types.ExperimentDesign{{Description: "check " + theory.Description, Command: "true"}}, nil
}

func (oneExperiment) EstimateCostAndOdds(_ context.Context, design types.ExperimentDesign) (types.ExperimentEstimate, error) {
	return types.ExperimentEstimate{Experiment: design, Odds: 0.9, Cost: 0.1}, nil
}

// verdictRunner confirms the theory named confirm and refutes the rest.
type verdictRunner struct {
	confirm string
	err     error
}

func (r verdictRunner) RunExperiment(_ context.Context, design types.ExperimentDesign) (types.ExperimentResult, error) {
	if r.err != nil {
		return types.ExperimentResult{}, r.err
	}
	if design.Theory.Description == r.confirm {
		return types.ExperimentResult{Verdict: types.VerdictConfirmed, Summary: "found it", DetailedLog: "log"}, nil
	}
	return types.ExperimentResult{Verdict: types.VerdictRefuted, Summary: "not " + design.Theory.Description}, nil
}

func runRecorded(t *testing.T, store Storage, runner scheduler.Runner) (*types.Outcome, error) {
	t.Helper()
	cfg := scheduler.DefaultConfig()
	cfg.MaxRounds = 2
	d, err := scheduler.New(cfg, scheduler.Deps{
		Theories:  fixedTheories{{Description: "a", Odds: 0.6}, {Description: "b", Odds: 0.3}},
		Proposer:  oneExperiment{},
		Estimator: oneExperiment{},
		Runner:    runner,
		Recorder:  NewRecorder(store),
	})
	require.NoError(t, err)
	return d.Debug(context.Background(), types.Issue{Description: "fonts change"})
}

func TestRecorder_Solved(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	outcome, err := runRecorded(t, store, verdictRunner{confirm: "b"})
	require.NoError(t, err)
	require.True(t, outcome.Solved())

	inv, err := store.GetInvestigation(ctx, outcome.InvestigationID)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, types.InvestigationSolved, inv.Status)
	assert.Equal(t, "b", inv.Theory)
	assert.Equal(t, "found it", inv.Summary)
	assert.Equal(t, "fonts change", inv.Issue)
	assert.NotNil(t, inv.FinishedAt)

	log, err := store.GetLabLog(ctx, outcome.InvestigationID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "a", log[0].Theory)
	assert.Equal(t, types.VerdictRefuted, log[0].Verdict)
	assert.Equal(t, types.VerdictConfirmed, log[1].Verdict)
	assert.Equal(t, "true", log[1].Command)

	evs, err := store.GetEvents(ctx, events.EventFilter{InvestigationID: outcome.InvestigationID})
	require.NoError(t, err)
	require.NotEmpty(t, evs)
	assert.Equal(t, events.EventTypeInvestigationStarted, evs[0].Type)
}

func TestRecorder_Failed(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	outcome, err := runRecorded(t, store, verdictRunner{})
	require.NoError(t, err)
	require.False(t, outcome.Solved())

	inv, err := store.GetInvestigation(ctx, outcome.InvestigationID)
	require.NoError(t, err)
	assert.Equal(t, types.InvestigationFailed, inv.Status)
	assert.Equal(t, 2, inv.Rounds)
	assert.Contains(t, inv.Summary, scheduler.FailureBanner)

	// Both theories are falsified in round 1; round 2 skips everything.
	log, err := store.GetLabLog(ctx, outcome.InvestigationID)
	require.NoError(t, err)
	assert.Len(t, log, 2)
}

func TestRecorder_Aborted(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := runRecorded(t, store, verdictRunner{err: errors.New("lab on fire")})
	require.Error(t, err)

	list, err := store.ListInvestigations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, types.InvestigationAborted, list[0].Status)
	assert.Contains(t, list[0].Error, "lab on fire")
}
