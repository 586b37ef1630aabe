package cost

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds cost budgeting configuration
type Config struct {
	// MaxTokensPerHour is the maximum number of tokens (input + output) allowed per hour
	// 0 = unlimited
	// Default: 200000
	MaxTokensPerHour int64 `json:"max_tokens_per_hour"`

	// MaxTokensPerInvestigation caps the tokens one investigation may spend
	// 0 = unlimited
	// Default: 100000 (five rounds of brainstorming with room to spare)
	MaxTokensPerInvestigation int64 `json:"max_tokens_per_investigation"`

	// MaxCostPerHour is the maximum cost in USD allowed per hour
	// 0.0 = unlimited (use token limits instead)
	// Default: 2.00
	MaxCostPerHour float64 `json:"max_cost_per_hour"`

	// AlertThreshold is the fraction of budget usage that triggers a warning
	// Default: 0.80
	AlertThreshold float64 `json:"alert_threshold"`

	// BudgetResetInterval is how often the hourly budget resets
	// Default: 1 hour
	BudgetResetInterval time.Duration `json:"budget_reset_interval"`

	// PersistStatePath is where budget state is persisted between runs
	// Empty disables persistence
	// Default: .sleuth/cost_state.json
	PersistStatePath string `json:"persist_state_path"`

	// Enabled controls whether cost budgeting is active
	// Default: true
	Enabled bool `json:"enabled"`

	// InputTokenCost is the cost per 1M input tokens (in USD)
	// Default: $3.00 for Claude Sonnet 4.5
	InputTokenCost float64 `json:"input_token_cost"`

	// OutputTokenCost is the cost per 1M output tokens (in USD)
	// Default: $15.00 for Claude Sonnet 4.5
	OutputTokenCost float64 `json:"output_token_cost"`
}

// DefaultConfig returns default cost budgeting configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:                   true,
		MaxTokensPerHour:          200000,
		MaxTokensPerInvestigation: 100000,
		MaxCostPerHour:            2.00,
		AlertThreshold:            0.80,
		BudgetResetInterval:       time.Hour,
		PersistStatePath:          ".sleuth/cost_state.json",
		InputTokenCost:            3.00,
		OutputTokenCost:           15.00,
	}
}

// LoadFromEnv loads cost configuration from environment variables.
// Environment variables override default values; prefix SLEUTH_COST_.
// An invalid combination falls back to the defaults with a warning.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if val := os.Getenv("SLEUTH_COST_ENABLED"); val != "" {
		cfg.Enabled = parseBool(val)
	}

	if val := os.Getenv("SLEUTH_COST_MAX_TOKENS_PER_HOUR"); val != "" {
		if tokens, err := strconv.ParseInt(val, 10, 64); err == nil && tokens >= 0 {
			cfg.MaxTokensPerHour = tokens
		}
	}

	if val := os.Getenv("SLEUTH_COST_MAX_TOKENS_PER_INVESTIGATION"); val != "" {
		if tokens, err := strconv.ParseInt(val, 10, 64); err == nil && tokens >= 0 {
			cfg.MaxTokensPerInvestigation = tokens
		}
	}

	if val := os.Getenv("SLEUTH_COST_MAX_COST_PER_HOUR"); val != "" {
		if cost, err := strconv.ParseFloat(val, 64); err == nil && cost >= 0 {
			cfg.MaxCostPerHour = cost
		}
	}

	if val := os.Getenv("SLEUTH_COST_ALERT_THRESHOLD"); val != "" {
		if threshold, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.AlertThreshold = threshold
		}
	}

	if val := os.Getenv("SLEUTH_COST_BUDGET_RESET_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil && duration > 0 {
			cfg.BudgetResetInterval = duration
		}
	}

	if val, ok := os.LookupEnv("SLEUTH_COST_PERSIST_STATE_PATH"); ok {
		cfg.PersistStatePath = val
	}

	if val := os.Getenv("SLEUTH_COST_INPUT_TOKEN_COST"); val != "" {
		if cost, err := strconv.ParseFloat(val, 64); err == nil && cost >= 0 {
			cfg.InputTokenCost = cost
		}
	}

	if val := os.Getenv("SLEUTH_COST_OUTPUT_TOKEN_COST"); val != "" {
		if cost, err := strconv.ParseFloat(val, 64); err == nil && cost >= 0 {
			cfg.OutputTokenCost = cost
		}
	}

	if err := cfg.Validate(); err != nil {
		slog.Warn("invalid cost config from environment, using defaults", "error", err)
		return DefaultConfig()
	}

	return cfg
}

// Validate checks that the configuration has safe and reasonable values
func (c *Config) Validate() error {
	if c.MaxTokensPerHour < 0 {
		return fmt.Errorf("max_tokens_per_hour must be non-negative, got %d", c.MaxTokensPerHour)
	}

	if c.MaxTokensPerInvestigation < 0 {
		return fmt.Errorf("max_tokens_per_investigation must be non-negative, got %d", c.MaxTokensPerInvestigation)
	}

	if c.MaxCostPerHour < 0 {
		return fmt.Errorf("max_cost_per_hour must be non-negative, got %.2f", c.MaxCostPerHour)
	}

	if c.AlertThreshold <= 0 || c.AlertThreshold > 1.0 {
		return fmt.Errorf("alert_threshold must be between 0 and 1, got %.2f", c.AlertThreshold)
	}

	if c.BudgetResetInterval <= 0 {
		return fmt.Errorf("budget_reset_interval must be positive, got %v", c.BudgetResetInterval)
	}

	if c.InputTokenCost < 0 || c.OutputTokenCost < 0 {
		return fmt.Errorf("token costs must be non-negative, got input=%.2f output=%.2f", c.InputTokenCost, c.OutputTokenCost)
	}

	return nil
}

// parseBool parses a boolean string; unknown values count as true
func parseBool(val string) bool {
	switch val {
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}
