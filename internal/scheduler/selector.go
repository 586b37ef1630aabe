package scheduler

import (
	"cmp"
	"slices"

	"github.com/steveyegge/sleuth/internal/types"
)

type scoredEstimate struct {
	estimate types.ExperimentEstimate
	roi      float64
}

// Select returns the experiments worth running this round, in execution order.
//
// Estimates are ranked by ROI in the policy's order; ties keep generation
// order. The first policy.Floor entries of the ranking are always selected,
// and every later entry is selected only if its ROI is strictly positive.
// With fewer estimates than the floor, all of them are selected.
//
// Select has no side effects and never mutates estimates.
func Select(estimates []types.ExperimentEstimate, weights types.Weights, policy SelectionPolicy) []types.ExperimentEstimate {
	ranked := make([]scoredEstimate, len(estimates))
	for i, est := range estimates {
		ranked[i] = scoredEstimate{estimate: est, roi: est.ROI(weights)}
	}

	slices.SortStableFunc(ranked, func(a, b scoredEstimate) int {
		if policy.Order == OrderExplore {
			return cmp.Compare(a.roi, b.roi)
		}
		return cmp.Compare(b.roi, a.roi)
	})

	plan := make([]types.ExperimentEstimate, 0, len(ranked))
	for i, s := range ranked {
		if i < policy.Floor || s.roi > 0 {
			plan = append(plan, s.estimate)
		}
	}
	return plan
}
