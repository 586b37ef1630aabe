package events

import (
	"encoding/json"
	"fmt"
)

// SetTheoriesGeneratedData sets the Data field with TheoriesGeneratedData in a type-safe way.
func (e *Event) SetTheoriesGeneratedData(data TheoriesGeneratedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert TheoriesGeneratedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetTheoriesGeneratedData retrieves TheoriesGeneratedData from the Data field.
func (e *Event) GetTheoriesGeneratedData() (*TheoriesGeneratedData, error) {
	var data TheoriesGeneratedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse TheoriesGeneratedData: %w", err)
	}
	return &data, nil
}

// SetExperimentsSelectedData sets the Data field with ExperimentsSelectedData in a type-safe way.
func (e *Event) SetExperimentsSelectedData(data ExperimentsSelectedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ExperimentsSelectedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetExperimentsSelectedData retrieves ExperimentsSelectedData from the Data field.
func (e *Event) GetExperimentsSelectedData() (*ExperimentsSelectedData, error) {
	var data ExperimentsSelectedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ExperimentsSelectedData: %w", err)
	}
	return &data, nil
}

// SetExperimentData sets the Data field with ExperimentData in a type-safe way.
func (e *Event) SetExperimentData(data ExperimentData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ExperimentData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetExperimentData retrieves ExperimentData from the Data field.
func (e *Event) GetExperimentData() (*ExperimentData, error) {
	var data ExperimentData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ExperimentData: %w", err)
	}
	return &data, nil
}

// SetExperimentCompletedData sets the Data field with ExperimentCompletedData in a type-safe way.
func (e *Event) SetExperimentCompletedData(data ExperimentCompletedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ExperimentCompletedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetExperimentCompletedData retrieves ExperimentCompletedData from the Data field.
func (e *Event) GetExperimentCompletedData() (*ExperimentCompletedData, error) {
	var data ExperimentCompletedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ExperimentCompletedData: %w", err)
	}
	return &data, nil
}

// SetProbeExecutedData sets the Data field with ProbeExecutedData in a type-safe way.
func (e *Event) SetProbeExecutedData(data ProbeExecutedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ProbeExecutedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetProbeExecutedData retrieves ProbeExecutedData from the Data field.
func (e *Event) GetProbeExecutedData() (*ProbeExecutedData, error) {
	var data ProbeExecutedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ProbeExecutedData: %w", err)
	}
	return &data, nil
}

// SetAICostData sets the Data field with AICostData in a type-safe way.
func (e *Event) SetAICostData(data AICostData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert AICostData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetAICostData retrieves AICostData from the Data field.
func (e *Event) GetAICostData() (*AICostData, error) {
	var data AICostData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse AICostData: %w", err)
	}
	return &data, nil
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(data interface{}) (map[string]interface{}, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// mapToStruct converts a map[string]interface{} to a struct using JSON unmarshaling.
func mapToStruct(dataMap map[string]interface{}, target interface{}) error {
	bytes, err := json.Marshal(dataMap)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}
