// Package scheduler runs hypothesis-driven debugging investigations.
//
// # Overview
//
// An investigation takes an Issue and works through a bounded number of
// rounds. Each round:
//   - asks a TheoryGenerator for candidate explanations of the current Issue
//   - asks an ExperimentProposer for cheap tests of each theory
//   - asks an Estimator for the odds and cost of every test
//   - ranks the tests by ROI and selects a plan with Select
//   - runs the plan through a Runner, skipping tests of theories already
//     falsified in this investigation
//
// The first experiment that confirms its theory ends the investigation.
// Refuting experiments add the theory to the investigation's Tracker, which
// persists across rounds. All non-confirming results go to the lab log, and
// the next round's Issue is the original report followed by the summaries of
// every result so far.
//
// # ROI
//
//	ROI = OddsFactor * theory.Odds * experiment.Odds - CostFactor * experiment.Cost
//
// Select always takes the first Floor entries of the ranking and every later
// entry with strictly positive ROI.
//
// # Collaborators
//
// The scheduler does no reasoning of its own. The four collaborator
// interfaces are implemented by the ai package (model-backed), the lab
// package (command probes and offline stubs) and by test fakes.
//
// # Usage Example
//
//	dbg, err := scheduler.New(scheduler.DefaultConfig(), scheduler.Deps{
//	    Theories:  sup,
//	    Proposer:  sup,
//	    Estimator: sup,
//	    Runner:    runner,
//	    Recorder:  storage.NewRecorder(store),
//	})
//	if err != nil {
//	    return err
//	}
//	outcome, err := dbg.Debug(ctx, types.Issue{Description: report})
package scheduler
