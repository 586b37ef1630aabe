package scheduler

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/steveyegge/sleuth/internal/types"
)

// est builds an estimate whose ROI under default weights is roi.
func est(name string, roi float64) types.ExperimentEstimate {
	return types.ExperimentEstimate{
		Experiment: types.ExperimentDesign{
			Description: name,
			Theory:      types.Theory{Description: "theory-" + name, Odds: 1},
		},
		Odds: 0.5,
		Cost: 0.5 - roi,
	}
}

func names(plan []types.ExperimentEstimate) []string {
	out := make([]string, len(plan))
	for i, e := range plan {
		out[i] = e.Experiment.Description
	}
	return out
}

func TestSelect(t *testing.T) {
	mixed := []types.ExperimentEstimate{
		est("a", 0.5),
		est("b", -0.2),
		est("c", 0.1),
		est("d", -0.4),
		est("e", 0.3),
	}

	tests := []struct {
		name      string
		estimates []types.ExperimentEstimate
		policy    SelectionPolicy
		want      []string
	}{
		{
			name:      "exploit takes best three then positive",
			estimates: mixed,
			policy:    SelectionPolicy{Order: OrderExploit, Floor: 3},
			want:      []string{"a", "e", "c"},
		},
		{
			name:      "explore floor takes worst three and keeps positive",
			estimates: mixed,
			policy:    SelectionPolicy{Order: OrderExplore, Floor: 3},
			want:      []string{"d", "b", "c", "e", "a"},
		},
		{
			name:      "zero floor keeps only positive",
			estimates: mixed,
			policy:    SelectionPolicy{Order: OrderExploit, Floor: 0},
			want:      []string{"a", "e", "c"},
		},
		{
			name:      "fewer than floor selects all",
			estimates: []types.ExperimentEstimate{est("x", -1), est("y", -2)},
			policy:    DefaultSelectionPolicy(),
			want:      []string{"x", "y"},
		},
		{
			name: "floor beyond negatives",
			estimates: []types.ExperimentEstimate{
				est("n1", -0.1), est("n2", -0.2), est("n3", -0.3), est("n4", -0.4), est("n5", -0.5),
			},
			policy: DefaultSelectionPolicy(),
			want:   []string{"n1", "n2", "n3"},
		},
		{
			name: "zero ROI is not positive",
			estimates: []types.ExperimentEstimate{
				est("p1", 0.3), est("p2", 0.2), est("p3", 0.1), est("z", 0),
			},
			policy: DefaultSelectionPolicy(),
			want:   []string{"p1", "p2", "p3"},
		},
		{
			name: "ties keep generation order",
			estimates: []types.ExperimentEstimate{
				est("t1", 0.25), est("t2", 0.25), est("t3", 0.25), est("t4", 0.25),
			},
			policy: DefaultSelectionPolicy(),
			want:   []string{"t1", "t2", "t3", "t4"},
		},
		{
			name:      "empty input",
			estimates: nil,
			policy:    DefaultSelectionPolicy(),
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(Select(tt.estimates, types.DefaultWeights(), tt.policy))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Select() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelect_Weights(t *testing.T) {
	// Cheap but unlikely versus likely but expensive.
	cheap := types.ExperimentEstimate{
		Experiment: types.ExperimentDesign{Description: "cheap", Theory: types.Theory{Odds: 0.2}},
		Odds:       0.5,
		Cost:       0.005,
	}
	costly := types.ExperimentEstimate{
		Experiment: types.ExperimentDesign{Description: "costly", Theory: types.Theory{Odds: 0.9}},
		Odds:       0.9,
		Cost:       0.5,
	}
	policy := SelectionPolicy{Order: OrderExploit, Floor: 1}

	got := names(Select([]types.ExperimentEstimate{cheap, costly}, types.DefaultWeights(), policy))
	if diff := cmp.Diff([]string{"costly", "cheap"}, got); diff != "" {
		t.Errorf("default weights (-want +got):\n%s", diff)
	}

	// Heavily penalizing cost drops the expensive experiment below zero.
	got = names(Select([]types.ExperimentEstimate{cheap, costly}, types.Weights{OddsFactor: 1, CostFactor: 10}, policy))
	if diff := cmp.Diff([]string{"cheap"}, got); diff != "" {
		t.Errorf("cost-heavy weights (-want +got):\n%s", diff)
	}
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	in := []types.ExperimentEstimate{est("a", -0.1), est("b", 0.4), est("c", 0.2)}
	before := names(in)

	Select(in, types.DefaultWeights(), DefaultSelectionPolicy())

	if diff := cmp.Diff(before, names(in)); diff != "" {
		t.Errorf("input reordered (-want +got):\n%s", diff)
	}
}
