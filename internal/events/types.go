package events

import (
	"context"
	"time"
)

// EventType represents the type of event that occurred during an investigation.
type EventType string

const (
	// EventTypeInvestigationStarted indicates a new investigation began
	EventTypeInvestigationStarted EventType = "investigation_started"
	// EventTypeRoundStarted indicates a new round of theory generation began
	EventTypeRoundStarted EventType = "round_started"
	// EventTypeTheoriesGenerated indicates the theory generator answered
	EventTypeTheoriesGenerated EventType = "theories_generated"
	// EventTypeExperimentsSelected indicates the execution plan for a round was chosen
	EventTypeExperimentsSelected EventType = "experiments_selected"
	// EventTypeExperimentSkipped indicates a planned experiment was skipped
	// because its theory was already falsified
	EventTypeExperimentSkipped EventType = "experiment_skipped"
	// EventTypeExperimentCompleted indicates an experiment ran and produced a result
	EventTypeExperimentCompleted EventType = "experiment_completed"
	// EventTypeTheoryFalsified indicates an experiment refuted its theory
	EventTypeTheoryFalsified EventType = "theory_falsified"
	// EventTypeTheoryConfirmed indicates an experiment confirmed its theory
	EventTypeTheoryConfirmed EventType = "theory_confirmed"
	// EventTypeInvestigationFailed indicates the round budget ran out
	EventTypeInvestigationFailed EventType = "investigation_failed"
	// EventTypeInvestigationAborted indicates a collaborator error ended the run
	EventTypeInvestigationAborted EventType = "investigation_aborted"

	// EventTypeProbeExecuted indicates the lab ran an experiment's shell command
	EventTypeProbeExecuted EventType = "probe_executed"
	// EventTypeAICost indicates AI API usage and associated cost
	EventTypeAICost EventType = "ai_cost"
	// EventTypeBudgetAlert indicates budget warning or exceeded alert
	EventTypeBudgetAlert EventType = "budget_alert"
)

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	// SeverityInfo indicates informational events
	SeverityInfo EventSeverity = "info"
	// SeverityWarning indicates potentially problematic events
	SeverityWarning EventSeverity = "warning"
	// SeverityError indicates error events
	SeverityError EventSeverity = "error"
)

// Event is one step of an investigation, stored for later review.
type Event struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type is the type of event
	Type EventType `json:"type"`
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
	// InvestigationID is the investigation that produced the event
	InvestigationID string `json:"investigation_id"`
	// Round is the 1-based round number, 0 for run-level events
	Round int `json:"round"`
	// Severity is the severity level of this event
	Severity EventSeverity `json:"severity"`
	// Message is a human-readable description of the event
	Message string `json:"message"`
	// Data contains structured, type-specific data (must be JSON-serializable)
	Data map[string]interface{} `json:"data"`
}

// TheoriesGeneratedData contains structured data for theory generation events.
type TheoriesGeneratedData struct {
	// Theories are the descriptions in generation order
	Theories []string `json:"theories"`
	// Odds are the matching relative likelihoods
	Odds []float64 `json:"odds"`
}

// ExperimentData identifies an experiment and the scores it was planned with.
type ExperimentData struct {
	// Theory is the owning theory's description (its identity)
	Theory string `json:"theory"`
	// Experiment is the experiment description
	Experiment string `json:"experiment"`
	// Command is the shell probe, if any
	Command string `json:"command,omitempty"`
	// Odds is the estimated chance the experiment is decisive
	Odds float64 `json:"odds"`
	// Cost is the estimated cost
	Cost float64 `json:"cost"`
	// ROI is the score the selector ranked on
	ROI float64 `json:"roi"`
}

// ExperimentsSelectedData contains structured data for selection events.
type ExperimentsSelectedData struct {
	// Candidates is the number of estimates available to the selector
	Candidates int `json:"candidates"`
	// Plan is the chosen experiments in execution order
	Plan []ExperimentData `json:"plan"`
	// Order is the selection order used ("exploit" or "explore")
	Order string `json:"order"`
}

// ExperimentCompletedData contains structured data for experiment results.
type ExperimentCompletedData struct {
	ExperimentData
	// Verdict is "confirmed", "refuted" or "inconclusive"
	Verdict string `json:"verdict"`
	// Summary is the result's short summary
	Summary string `json:"summary"`
	// Duration is how long the runner took
	Duration time.Duration `json:"duration"`
}

// ProbeExecutedData contains structured data for shell probe events.
type ProbeExecutedData struct {
	// Command is the shell command that ran
	Command string `json:"command"`
	// ExitCode is the process exit code (-1 if it never started or timed out)
	ExitCode int `json:"exit_code"`
	// TimedOut indicates the probe hit its timeout
	TimedOut bool `json:"timed_out"`
	// Duration is how long the probe ran
	Duration time.Duration `json:"duration"`
	// OutputBytes is the size of the captured output
	OutputBytes int `json:"output_bytes"`
}

// AICostData contains structured data for AI usage events.
type AICostData struct {
	// Operation is the AI activity ("theories", "experiments", "estimate", "judge")
	Operation string `json:"operation"`
	// Model is the model that served the call
	Model string `json:"model"`
	// InputTokens is the prompt size in tokens
	InputTokens int64 `json:"input_tokens"`
	// OutputTokens is the response size in tokens
	OutputTokens int64 `json:"output_tokens"`
	// Cost is the estimated cost in USD
	Cost float64 `json:"cost"`
}

// EventStore defines the interface for persisting and retrieving events.
type EventStore interface {
	// StoreEvent persists an event
	StoreEvent(ctx context.Context, event *Event) error

	// GetEvents retrieves events matching the given filter
	GetEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
}

// EventFilter defines criteria for filtering events.
type EventFilter struct {
	// InvestigationID filters events by investigation
	InvestigationID string
	// Type filters events by event type
	Type EventType
	// Severity filters events by severity level
	Severity EventSeverity
	// AfterTime filters events that occurred after this time
	AfterTime time.Time
	// Limit limits the number of events returned
	Limit int
}
