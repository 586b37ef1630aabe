package events

import (
	"time"

	"github.com/google/uuid"
)

// NewSimpleEvent creates a new Event with no structured data.
func NewSimpleEvent(eventType EventType, investigationID string, round int, severity EventSeverity, message string) *Event {
	return &Event{
		ID:              uuid.New().String(),
		Type:            eventType,
		Timestamp:       time.Now(),
		InvestigationID: investigationID,
		Round:           round,
		Severity:        severity,
		Message:         message,
		Data:            make(map[string]interface{}),
	}
}

// NewTheoriesGeneratedEvent creates a theory generation event with type-safe data.
func NewTheoriesGeneratedEvent(investigationID string, round int, message string, data TheoriesGeneratedData) (*Event, error) {
	event := NewSimpleEvent(EventTypeTheoriesGenerated, investigationID, round, SeverityInfo, message)
	if err := event.SetTheoriesGeneratedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewExperimentsSelectedEvent creates a selection event with type-safe data.
func NewExperimentsSelectedEvent(investigationID string, round int, message string, data ExperimentsSelectedData) (*Event, error) {
	event := NewSimpleEvent(EventTypeExperimentsSelected, investigationID, round, SeverityInfo, message)
	if err := event.SetExperimentsSelectedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewExperimentEvent creates a skip, falsification or confirmation event for one experiment.
func NewExperimentEvent(eventType EventType, investigationID string, round int, severity EventSeverity, message string, data ExperimentData) (*Event, error) {
	event := NewSimpleEvent(eventType, investigationID, round, severity, message)
	if err := event.SetExperimentData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewExperimentCompletedEvent creates an experiment result event with type-safe data.
func NewExperimentCompletedEvent(investigationID string, round int, message string, data ExperimentCompletedData) (*Event, error) {
	event := NewSimpleEvent(EventTypeExperimentCompleted, investigationID, round, SeverityInfo, message)
	if err := event.SetExperimentCompletedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewProbeExecutedEvent creates a shell probe event with type-safe data.
func NewProbeExecutedEvent(investigationID string, severity EventSeverity, message string, data ProbeExecutedData) (*Event, error) {
	event := NewSimpleEvent(EventTypeProbeExecuted, investigationID, 0, severity, message)
	if err := event.SetProbeExecutedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewAICostEvent creates an AI usage event with type-safe data.
func NewAICostEvent(investigationID string, message string, data AICostData) (*Event, error) {
	event := NewSimpleEvent(EventTypeAICost, investigationID, 0, SeverityInfo, message)
	if err := event.SetAICostData(data); err != nil {
		return nil, err
	}
	return event, nil
}
