package scheduler

import (
	"fmt"
	"math"

	"github.com/steveyegge/sleuth/internal/types"
)

// DefaultMaxRounds is the round budget of an investigation.
const DefaultMaxRounds = 5

// DefaultExplorationFloor is how many experiments run each round regardless of ROI.
const DefaultExplorationFloor = 3

// SelectionOrder decides which end of the ROI ranking the exploration floor takes.
type SelectionOrder string

const (
	// OrderExploit ranks by descending ROI, so the floor is the best-scoring experiments.
	OrderExploit SelectionOrder = "exploit"
	// OrderExplore ranks by ascending ROI, so the floor is the worst-scoring experiments.
	// Positive-ROI experiments are still all selected.
	OrderExplore SelectionOrder = "explore"
)

// IsValid checks if the selection order value is valid
func (o SelectionOrder) IsValid() bool {
	switch o {
	case OrderExploit, OrderExplore:
		return true
	}
	return false
}

// SelectionPolicy controls the Experiment Selector.
type SelectionPolicy struct {
	// Order is the ranking direction. Default: OrderExploit.
	Order SelectionOrder

	// Floor is the number of leading entries of the ranking that are always
	// selected, whatever their ROI. Default: 3.
	Floor int
}

// DefaultSelectionPolicy returns the default policy: best three first, plus
// every positive-ROI experiment.
func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{
		Order: OrderExploit,
		Floor: DefaultExplorationFloor,
	}
}

// Config controls a Debugger.
type Config struct {
	// MaxRounds is the number of rounds before the investigation gives up.
	// Default: 5.
	MaxRounds int

	// Weights scale the odds and cost terms of ROI. Default: (1, 1).
	Weights types.Weights

	// Selection controls which estimated experiments are run each round.
	Selection SelectionPolicy

	// ClampEstimates clamps estimator output at the boundary: experiment odds
	// to [0, 1] and cost to >= 0. When false, estimates are used as given.
	// Default: true.
	ClampEstimates bool

	// EstimateConcurrency is how many estimates of one theory's experiments
	// may be requested at once. Values <= 1 estimate one at a time.
	// Default: 1.
	EstimateConcurrency int
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		MaxRounds:           DefaultMaxRounds,
		Weights:             types.DefaultWeights(),
		Selection:           DefaultSelectionPolicy(),
		ClampEstimates:      true,
		EstimateConcurrency: 1,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive, got %d", c.MaxRounds)
	}
	if !isFinite(c.Weights.OddsFactor) {
		return fmt.Errorf("odds_factor must be a finite number, got %v", c.Weights.OddsFactor)
	}
	if !isFinite(c.Weights.CostFactor) {
		return fmt.Errorf("cost_factor must be a finite number, got %v", c.Weights.CostFactor)
	}
	if !c.Selection.Order.IsValid() {
		return fmt.Errorf("invalid selection order %q (want %q or %q)", c.Selection.Order, OrderExploit, OrderExplore)
	}
	if c.Selection.Floor < 0 {
		return fmt.Errorf("selection floor must be non-negative, got %d", c.Selection.Floor)
	}
	if c.EstimateConcurrency < 0 {
		return fmt.Errorf("estimate_concurrency must be non-negative, got %d", c.EstimateConcurrency)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
