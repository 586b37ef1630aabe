package types

import (
	"encoding/json"
	"fmt"
)

// Issue is the free-text problem statement under investigation.
// A new Issue is constructed for every round; an Issue is never modified.
type Issue struct {
	Description string `json:"description"`
}

// Theory is a candidate root-cause explanation for an Issue.
type Theory struct {
	Description string `json:"description"`

	// Odds is a relative likelihood. Theories in one round are not
	// guaranteed to sum to 1.
	Odds float64 `json:"odds"`

	// Issue is the problem statement the theory was generated against.
	Issue Issue `json:"-"`
}

// Key returns the theory's identity. Two theories with the same description
// are the same theory, even when generated against different Issues.
func (t Theory) Key() string {
	return t.Description
}

// ExperimentDesign is a proposed probe for exactly one theory.
type ExperimentDesign struct {
	Description string `json:"description"`

	// Command is an optional shell command that carries out the probe.
	// Empty means the experiment has no mechanical form.
	Command string `json:"command,omitempty"`

	Theory Theory `json:"-"`
}

// Weights scale the two halves of the ROI formula.
type Weights struct {
	OddsFactor float64 `json:"odds_factor" yaml:"odds_factor"`
	CostFactor float64 `json:"cost_factor" yaml:"cost_factor"`
}

// DefaultWeights returns the default ROI weighting (1, 1).
func DefaultWeights() Weights {
	return Weights{OddsFactor: 1, CostFactor: 1}
}

// ExperimentEstimate is an ExperimentDesign scored with success odds and cost.
type ExperimentEstimate struct {
	Experiment ExperimentDesign `json:"-"`

	// Odds is the probability the experiment distinguishes the theory,
	// independent of whether the theory is true.
	Odds float64 `json:"odds"`

	// Cost is in abstract units (time, compute).
	Cost float64 `json:"cost"`
}

// ROI returns OddsFactor * theory odds * experiment odds - CostFactor * cost.
func (e ExperimentEstimate) ROI(w Weights) float64 {
	return w.OddsFactor*e.Experiment.Theory.Odds*e.Odds - w.CostFactor*e.Cost
}

// Verdict is the tri-state outcome of an experiment with respect to its theory.
type Verdict int

const (
	// VerdictInconclusive means the experiment neither confirmed nor refuted the theory.
	VerdictInconclusive Verdict = iota
	// VerdictConfirmed means the theory is correct.
	VerdictConfirmed
	// VerdictRefuted means the theory is wrong.
	VerdictRefuted
)

func (v Verdict) String() string {
	switch v {
	case VerdictInconclusive:
		return "inconclusive"
	case VerdictConfirmed:
		return "confirmed"
	case VerdictRefuted:
		return "refuted"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// IsValid checks if the verdict value is valid
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictInconclusive, VerdictConfirmed, VerdictRefuted:
		return true
	}
	return false
}

// VerdictFromBool converts the nullable is_theory_correct form into a Verdict.
func VerdictFromBool(correct *bool) Verdict {
	switch {
	case correct == nil:
		return VerdictInconclusive
	case *correct:
		return VerdictConfirmed
	default:
		return VerdictRefuted
	}
}

// ParseVerdict parses the String form of a Verdict.
func ParseVerdict(s string) (Verdict, error) {
	switch s {
	case "inconclusive":
		return VerdictInconclusive, nil
	case "confirmed":
		return VerdictConfirmed, nil
	case "refuted":
		return VerdictRefuted, nil
	}
	return VerdictInconclusive, fmt.Errorf("invalid verdict: %q", s)
}

// MarshalJSON encodes the verdict as true, false or null.
func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictConfirmed:
		return []byte("true"), nil
	case VerdictRefuted:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes true, false or null.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var correct *bool
	if err := json.Unmarshal(data, &correct); err != nil {
		return fmt.Errorf("verdict must be true, false or null: %w", err)
	}
	*v = VerdictFromBool(correct)
	return nil
}

// ExperimentResult is the outcome of running an ExperimentDesign.
type ExperimentResult struct {
	Experiment ExperimentDesign `json:"-"`

	Verdict Verdict `json:"is_theory_correct"`

	// Summary is short text fed into the next round's Issue.
	Summary string `json:"summary"`

	// DetailedLog is the full raw output of the experiment.
	DetailedLog string `json:"detailed_log"`
}

// Failure is the terminal report of an investigation that ran out of rounds.
type Failure struct {
	Issue   Issue              `json:"issue"`
	Summary string             `json:"summary"`
	LabLog  []ExperimentResult `json:"lab_log"`
}

// Outcome is what an investigation produces: exactly one of Result and
// Failure is set.
type Outcome struct {
	InvestigationID string            `json:"investigation_id"`
	Rounds          int               `json:"rounds"`
	Result          *ExperimentResult `json:"result,omitempty"`
	Failure         *Failure          `json:"failure,omitempty"`
}

// Solved reports whether the investigation confirmed a theory.
func (o *Outcome) Solved() bool {
	return o != nil && o.Result != nil
}
