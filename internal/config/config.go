// Package config loads sleuth's settings from defaults, an optional YAML
// file and SLEUTH_* environment variables, in that order. Command-line
// flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/sleuth/internal/lab"
	"github.com/steveyegge/sleuth/internal/scheduler"
	"github.com/steveyegge/sleuth/internal/types"
)

// Config holds all sleuth settings.
type Config struct {
	// Scheduler
	MaxRounds           int     `yaml:"max_rounds"`
	OddsFactor          float64 `yaml:"odds_factor"`
	CostFactor          float64 `yaml:"cost_factor"`
	SelectionOrder      string  `yaml:"selection_order"`
	SelectionFloor      int     `yaml:"selection_floor"`
	ClampEstimates      bool    `yaml:"clamp_estimates"`
	EstimateConcurrency int     `yaml:"estimate_concurrency"`

	AI        AIConfig        `yaml:"ai"`
	Probe     ProbeConfig     `yaml:"probe"`
	Retention RetentionConfig `yaml:"retention"`
}

// AIConfig selects models for the AI collaborators.
type AIConfig struct {
	Model          string `yaml:"model"`        // empty = SLEUTH_MODEL or the built-in default
	SimpleModel    string `yaml:"simple_model"` // empty = SLEUTH_MODEL_SIMPLE or the built-in default
	MaxExperiments int    `yaml:"max_experiments"`
}

// ProbeConfig controls shell probes run by the lab.
type ProbeConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Rate        float64       `yaml:"rate"` // probes per second, <0 = unlimited
	OutputLimit int           `yaml:"output_limit"`
	Shell       string        `yaml:"shell"`
}

// Default returns the built-in configuration.
func Default() *Config {
	sched := scheduler.DefaultConfig()
	return &Config{
		MaxRounds:           sched.MaxRounds,
		OddsFactor:          sched.Weights.OddsFactor,
		CostFactor:          sched.Weights.CostFactor,
		SelectionOrder:      string(sched.Selection.Order),
		SelectionFloor:      sched.Selection.Floor,
		ClampEstimates:      sched.ClampEstimates,
		EstimateConcurrency: sched.EstimateConcurrency,
		AI: AIConfig{
			MaxExperiments: 3,
		},
		Probe: ProbeConfig{
			Timeout:     lab.DefaultTimeout,
			Rate:        lab.DefaultProbeRate,
			OutputLimit: lab.DefaultOutputLimit,
			Shell:       lab.DefaultShell,
		},
		Retention: DefaultRetentionConfig(),
	}
}

// Load builds the configuration: defaults, then the file at path (if path
// is not empty), then the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a YAML config file over the defaults. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SLEUTH_* environment variables.
//
// Environment variables:
//   - SLEUTH_MAX_ROUNDS, SLEUTH_ODDS_FACTOR, SLEUTH_COST_FACTOR
//   - SLEUTH_SELECTION_ORDER ("exploit" or "explore"), SLEUTH_SELECTION_FLOOR
//   - SLEUTH_CLAMP_ESTIMATES, SLEUTH_ESTIMATE_CONCURRENCY
//   - SLEUTH_MODEL, SLEUTH_MODEL_SIMPLE, SLEUTH_MAX_EXPERIMENTS
//   - SLEUTH_PROBE_TIMEOUT (e.g. "90s"), SLEUTH_PROBE_RATE, SLEUTH_PROBE_OUTPUT_LIMIT, SLEUTH_PROBE_SHELL
//   - SLEUTH_EVENT_RETENTION_DAYS, SLEUTH_EVENT_ERROR_RETENTION_DAYS, SLEUTH_EVENT_PER_INVESTIGATION_LIMIT
func (c *Config) ApplyEnv() error {
	parsers := []func() error{
		func() error { return parseEnvInt("SLEUTH_MAX_ROUNDS", &c.MaxRounds) },
		func() error { return parseEnvFloat("SLEUTH_ODDS_FACTOR", &c.OddsFactor) },
		func() error { return parseEnvFloat("SLEUTH_COST_FACTOR", &c.CostFactor) },
		func() error { return parseEnvString("SLEUTH_SELECTION_ORDER", &c.SelectionOrder) },
		func() error { return parseEnvInt("SLEUTH_SELECTION_FLOOR", &c.SelectionFloor) },
		func() error { return parseEnvBool("SLEUTH_CLAMP_ESTIMATES", &c.ClampEstimates) },
		func() error { return parseEnvInt("SLEUTH_ESTIMATE_CONCURRENCY", &c.EstimateConcurrency) },
		func() error { return parseEnvString("SLEUTH_MODEL", &c.AI.Model) },
		func() error { return parseEnvString("SLEUTH_MODEL_SIMPLE", &c.AI.SimpleModel) },
		func() error { return parseEnvInt("SLEUTH_MAX_EXPERIMENTS", &c.AI.MaxExperiments) },
		func() error { return parseEnvDuration("SLEUTH_PROBE_TIMEOUT", &c.Probe.Timeout) },
		func() error { return parseEnvFloat("SLEUTH_PROBE_RATE", &c.Probe.Rate) },
		func() error { return parseEnvInt("SLEUTH_PROBE_OUTPUT_LIMIT", &c.Probe.OutputLimit) },
		func() error { return parseEnvString("SLEUTH_PROBE_SHELL", &c.Probe.Shell) },
		func() error { return parseEnvInt("SLEUTH_EVENT_RETENTION_DAYS", &c.Retention.RetentionDays) },
		func() error { return parseEnvInt("SLEUTH_EVENT_ERROR_RETENTION_DAYS", &c.Retention.ErrorRetentionDays) },
		func() error {
			return parseEnvInt("SLEUTH_EVENT_PER_INVESTIGATION_LIMIT", &c.Retention.PerInvestigationLimit)
		},
	}
	for _, parse := range parsers {
		if err := parse(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.Scheduler().Validate(); err != nil {
		return err
	}
	if c.AI.MaxExperiments < 1 {
		return fmt.Errorf("max_experiments must be at least 1 (got %d)", c.AI.MaxExperiments)
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe timeout must be positive (got %v)", c.Probe.Timeout)
	}
	if c.Probe.Rate == 0 {
		return fmt.Errorf("probe rate must be positive, or negative for unlimited")
	}
	if c.Probe.OutputLimit < 1 {
		return fmt.Errorf("probe output_limit must be positive (got %d)", c.Probe.OutputLimit)
	}
	if err := c.Retention.Validate(); err != nil {
		return fmt.Errorf("retention: %w", err)
	}
	return nil
}

// Scheduler returns the scheduler configuration.
func (c *Config) Scheduler() scheduler.Config {
	return scheduler.Config{
		MaxRounds: c.MaxRounds,
		Weights: types.Weights{
			OddsFactor: c.OddsFactor,
			CostFactor: c.CostFactor,
		},
		Selection: scheduler.SelectionPolicy{
			Order: scheduler.SelectionOrder(c.SelectionOrder),
			Floor: c.SelectionFloor,
		},
		ClampEstimates:      c.ClampEstimates,
		EstimateConcurrency: c.EstimateConcurrency,
	}
}
