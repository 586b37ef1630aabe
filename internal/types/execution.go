package types

import "time"

// Observation is what the lab saw while executing an experiment's command.
// An experiment without a command produces an empty Observation.
type Observation struct {
	Command  string        `json:"command,omitempty"`
	Dir      string        `json:"dir,omitempty"`
	Output   string        `json:"output,omitempty"`
	ExitCode int           `json:"exit_code"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Duration time.Duration `json:"duration"`

	// Truncated is set when Output was cut to the runner's output limit.
	Truncated bool `json:"truncated,omitempty"`
}

// Ran reports whether a command was executed.
func (o *Observation) Ran() bool {
	return o != nil && o.Command != ""
}

// Succeeded reports whether the command ran to completion with exit status 0.
func (o *Observation) Succeeded() bool {
	return o.Ran() && !o.TimedOut && o.ExitCode == 0
}
