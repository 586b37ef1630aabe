package config

import "fmt"

// RetentionConfig holds configuration for event retention and cleanup
type RetentionConfig struct {
	// RetentionDays is the retention period for info and warning events (in days)
	// Default: 30, Range: 1-365
	RetentionDays int `yaml:"retention_days"`

	// ErrorRetentionDays is the retention period for error events (in days)
	// Error events are kept longer for reviewing aborted investigations
	// Must be >= RetentionDays
	// Default: 90, Range: 1-730
	ErrorRetentionDays int `yaml:"error_retention_days"`

	// PerInvestigationLimit is the maximum number of events to keep per investigation
	// When this limit is reached, oldest non-error events are deleted
	// Set to 0 for unlimited
	// Default: 1000, Range: 0 or 100-10000
	PerInvestigationLimit int `yaml:"per_investigation_limit"`

	// BatchSize is the number of events to delete per statement
	// Default: 1000, Range: 100-10000
	BatchSize int `yaml:"batch_size"`

	// Vacuum controls whether to run VACUUM after cleanup
	// Default: false
	Vacuum bool `yaml:"vacuum"`
}

// DefaultRetentionConfig returns the default event retention configuration
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionDays:         30,
		ErrorRetentionDays:    90,
		PerInvestigationLimit: 1000,
		BatchSize:             1000,
		Vacuum:                false,
	}
}

// Validate checks if the configuration has valid values
func (c RetentionConfig) Validate() error {
	if c.RetentionDays < 1 || c.RetentionDays > 365 {
		return fmt.Errorf("retention_days must be between 1 and 365 (got %d)", c.RetentionDays)
	}

	if c.ErrorRetentionDays < 1 || c.ErrorRetentionDays > 730 {
		return fmt.Errorf("error_retention_days must be between 1 and 730 (got %d)", c.ErrorRetentionDays)
	}
	if c.ErrorRetentionDays < c.RetentionDays {
		return fmt.Errorf("error_retention_days (%d) must be >= retention_days (%d)",
			c.ErrorRetentionDays, c.RetentionDays)
	}

	// 0 = unlimited, or 100-10000
	if c.PerInvestigationLimit < 0 {
		return fmt.Errorf("per_investigation_limit cannot be negative (got %d)", c.PerInvestigationLimit)
	}
	if c.PerInvestigationLimit > 0 && c.PerInvestigationLimit < 100 {
		return fmt.Errorf("per_investigation_limit must be 0 (unlimited) or >= 100 (got %d)",
			c.PerInvestigationLimit)
	}
	if c.PerInvestigationLimit > 10000 {
		return fmt.Errorf("per_investigation_limit too large (got %d, max 10000)", c.PerInvestigationLimit)
	}

	if c.BatchSize < 100 || c.BatchSize > 10000 {
		return fmt.Errorf("batch_size must be between 100 and 10000 (got %d)", c.BatchSize)
	}

	return nil
}

// String returns a human-readable representation of the config
func (c RetentionConfig) String() string {
	return fmt.Sprintf(
		"RetentionConfig{RetentionDays: %d, ErrorRetentionDays: %d, "+
			"PerInvestigationLimit: %d, BatchSize: %d, Vacuum: %t}",
		c.RetentionDays, c.ErrorRetentionDays, c.PerInvestigationLimit, c.BatchSize, c.Vacuum,
	)
}
