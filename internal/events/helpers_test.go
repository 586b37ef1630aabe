package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestJSONTagsSnakeCase(t *testing.T) {
	event := &Event{
		ID:              "test-event-123",
		Type:            EventTypeRoundStarted,
		Timestamp:       time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC),
		InvestigationID: "inv-1",
		Round:           2,
		Severity:        SeverityInfo,
		Message:         "round 2 started",
		Data:            map[string]interface{}{},
	}

	jsonBytes, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal Event: %v", err)
	}

	jsonStr := string(jsonBytes)
	for _, field := range []string{`"id"`, `"type"`, `"investigation_id"`, `"round"`, `"severity"`, `"message"`} {
		if !strings.Contains(jsonStr, field) {
			t.Errorf("JSON missing expected field: %s\nGot: %s", field, jsonStr)
		}
	}
}

func TestTheoriesGeneratedDataHelpers(t *testing.T) {
	event := NewSimpleEvent(EventTypeTheoriesGenerated, "inv-1", 1, SeverityInfo, "2 theories")

	data := TheoriesGeneratedData{
		Theories: []string{"reader drops theme fonts", "writer defaults to Arial"},
		Odds:     []float64{0.6, 0.3},
	}
	if err := event.SetTheoriesGeneratedData(data); err != nil {
		t.Fatalf("SetTheoriesGeneratedData failed: %v", err)
	}

	got, err := event.GetTheoriesGeneratedData()
	if err != nil {
		t.Fatalf("GetTheoriesGeneratedData failed: %v", err)
	}
	if len(got.Theories) != 2 || got.Theories[1] != "writer defaults to Arial" {
		t.Errorf("unexpected theories: %v", got.Theories)
	}
	if got.Odds[0] != 0.6 {
		t.Errorf("expected odds 0.6, got %v", got.Odds[0])
	}
}

func TestExperimentCompletedDataHelpers(t *testing.T) {
	data := ExperimentCompletedData{
		ExperimentData: ExperimentData{
			Theory:     "writer defaults to Arial",
			Experiment: "grep for Arial in writer",
			Command:    "grep -rn Arial src/writer",
			Odds:       0.7,
			Cost:       0.05,
			ROI:        0.16,
		},
		Verdict:  "refuted",
		Summary:  "no hard-coded Arial in writer",
		Duration: 2 * time.Second,
	}

	event, err := NewExperimentCompletedEvent("inv-1", 1, "experiment refuted", data)
	if err != nil {
		t.Fatalf("NewExperimentCompletedEvent failed: %v", err)
	}
	if event.Type != EventTypeExperimentCompleted {
		t.Errorf("expected type %s, got %s", EventTypeExperimentCompleted, event.Type)
	}
	if event.ID == "" {
		t.Error("expected event ID to be set")
	}

	got, err := event.GetExperimentCompletedData()
	if err != nil {
		t.Fatalf("GetExperimentCompletedData failed: %v", err)
	}
	if got.Theory != data.Theory || got.Command != data.Command {
		t.Errorf("embedded experiment data not preserved: %+v", got.ExperimentData)
	}
	if got.Verdict != "refuted" || got.Duration != 2*time.Second {
		t.Errorf("unexpected result data: %+v", got)
	}

	// Embedded fields are flattened into the data map.
	if _, ok := event.Data["theory"]; !ok {
		t.Errorf("expected flattened theory key, got %v", event.Data)
	}
}

func TestExperimentsSelectedDataHelpers(t *testing.T) {
	data := ExperimentsSelectedData{
		Candidates: 4,
		Order:      "exploit",
		Plan: []ExperimentData{
			{Theory: "a", Experiment: "read the code", ROI: 0.5},
			{Theory: "b", Experiment: "run it", ROI: -0.1},
		},
	}
	event, err := NewExperimentsSelectedEvent("inv-2", 3, "2 of 4 selected", data)
	if err != nil {
		t.Fatalf("NewExperimentsSelectedEvent failed: %v", err)
	}
	if event.Round != 3 {
		t.Errorf("expected round 3, got %d", event.Round)
	}

	got, err := event.GetExperimentsSelectedData()
	if err != nil {
		t.Fatalf("GetExperimentsSelectedData failed: %v", err)
	}
	if len(got.Plan) != 2 || got.Plan[1].ROI != -0.1 {
		t.Errorf("unexpected plan: %+v", got.Plan)
	}
}

func TestProbeAndCostHelpers(t *testing.T) {
	probe, err := NewProbeExecutedEvent("inv-3", SeverityWarning, "probe timed out", ProbeExecutedData{
		Command:  "sleep 100",
		ExitCode: -1,
		TimedOut: true,
	})
	if err != nil {
		t.Fatalf("NewProbeExecutedEvent failed: %v", err)
	}
	probeData, err := probe.GetProbeExecutedData()
	if err != nil {
		t.Fatalf("GetProbeExecutedData failed: %v", err)
	}
	if !probeData.TimedOut || probeData.ExitCode != -1 {
		t.Errorf("unexpected probe data: %+v", probeData)
	}

	costEvent, err := NewAICostEvent("inv-3", "theories call", AICostData{
		Operation:    "theories",
		Model:        "claude-sonnet-4-5-20250929",
		InputTokens:  1200,
		OutputTokens: 300,
		Cost:         0.0081,
	})
	if err != nil {
		t.Fatalf("NewAICostEvent failed: %v", err)
	}
	costData, err := costEvent.GetAICostData()
	if err != nil {
		t.Fatalf("GetAICostData failed: %v", err)
	}
	if costData.InputTokens != 1200 || costData.Operation != "theories" {
		t.Errorf("unexpected cost data: %+v", costData)
	}
}
