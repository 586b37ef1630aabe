package types

import (
	"fmt"
	"time"
)

// InvestigationStatus is the lifecycle state of a stored investigation.
type InvestigationStatus string

const (
	InvestigationRunning InvestigationStatus = "running"
	InvestigationSolved  InvestigationStatus = "solved"
	InvestigationFailed  InvestigationStatus = "failed"  // ran out of rounds
	InvestigationAborted InvestigationStatus = "aborted" // ended in an error
)

// IsValid checks if the status value is valid
func (s InvestigationStatus) IsValid() bool {
	switch s {
	case InvestigationRunning, InvestigationSolved, InvestigationFailed, InvestigationAborted:
		return true
	}
	return false
}

// Investigation is the stored record of one Debug run.
type Investigation struct {
	ID     string              `json:"id"`
	Issue  string              `json:"issue"`
	Status InvestigationStatus `json:"status"`
	Rounds int                 `json:"rounds"`

	// Theory is the confirmed theory, set when Status is solved.
	Theory string `json:"theory,omitempty"`
	// Summary is the confirming result's summary or the Failure summary.
	Summary string `json:"summary,omitempty"`
	// Error is the error that aborted the run.
	Error string `json:"error,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Validate checks that the record can be stored.
func (i *Investigation) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("investigation id is required")
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid investigation status: %q", i.Status)
	}
	if i.Rounds < 0 {
		return fmt.Errorf("rounds cannot be negative (got %d)", i.Rounds)
	}
	return nil
}

// LabEntry is one stored experiment result.
type LabEntry struct {
	InvestigationID string    `json:"investigation_id"`
	Round           int       `json:"round"`
	Seq             int       `json:"seq"` // execution order within the investigation
	Theory          string    `json:"theory"`
	Experiment      string    `json:"experiment"`
	Command         string    `json:"command,omitempty"`
	Verdict         Verdict   `json:"is_theory_correct"`
	Summary         string    `json:"summary"`
	DetailedLog     string    `json:"detailed_log"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewLabEntry flattens a result for storage.
func NewLabEntry(investigationID string, round int, result ExperimentResult) *LabEntry {
	return &LabEntry{
		InvestigationID: investigationID,
		Round:           round,
		Theory:          result.Experiment.Theory.Description,
		Experiment:      result.Experiment.Description,
		Command:         result.Experiment.Command,
		Verdict:         result.Verdict,
		Summary:         result.Summary,
		DetailedLog:     result.DetailedLog,
		CreatedAt:       time.Now(),
	}
}
