package cost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/logging"
)

// ErrBudgetExceeded is returned by Check when no further AI calls are allowed.
var ErrBudgetExceeded = errors.New("AI cost budget exceeded")

// BudgetStatus represents the current budget state
type BudgetStatus int

const (
	// BudgetHealthy indicates normal operation - under budget limits
	BudgetHealthy BudgetStatus = iota
	// BudgetWarning indicates approaching budget limits (>80% by default)
	BudgetWarning
	// BudgetExceeded indicates budget limits have been exceeded
	BudgetExceeded
)

// String returns a human-readable string representation of the budget status
func (s BudgetStatus) String() string {
	switch s {
	case BudgetHealthy:
		return "HEALTHY"
	case BudgetWarning:
		return "WARNING"
	case BudgetExceeded:
		return "EXCEEDED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// BudgetState represents the persisted budget tracking state
type BudgetState struct {
	HourlyTokensUsed int64     `json:"hourly_tokens_used"`
	HourlyCostUsed   float64   `json:"hourly_cost_used"`
	WindowStartTime  time.Time `json:"window_start_time"`

	// Tokens spent per investigation ID
	InvestigationTokensUsed map[string]int64 `json:"investigation_tokens_used"`

	TotalTokensUsed int64   `json:"total_tokens_used"`
	TotalCostUsed   float64 `json:"total_cost_used"`

	LastUpdated time.Time `json:"last_updated"`
}

// EventRecorder receives budget alerts. The scheduler's Recorder satisfies it.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event *events.Event) error
}

// Tracker tracks AI cost budgets and enforces limits. It is safe for concurrent use.
type Tracker struct {
	config *Config
	state  *BudgetState
	events EventRecorder
	logger *slog.Logger
	mu     sync.RWMutex

	lastStatus BudgetStatus
}

// NewTracker creates a new cost budget tracker. events may be nil.
func NewTracker(cfg *Config, recorder EventRecorder) (*Tracker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	t := &Tracker{
		config: cfg,
		events: recorder,
		logger: logging.New("cost"),
		state: &BudgetState{
			WindowStartTime:         time.Now(),
			InvestigationTokensUsed: make(map[string]int64),
			LastUpdated:             time.Now(),
		},
	}

	// Restore state from the previous run, if any
	if err := t.loadState(); err != nil {
		t.logger.Warn("failed to load cost state, starting fresh", "path", cfg.PersistStatePath, "error", err)
	}

	t.checkAndResetWindow()
	t.lastStatus = t.getBudgetStatusLocked()

	return t, nil
}

// RecordUsage records token usage for an investigation and returns the
// budget status after recording.
func (t *Tracker) RecordUsage(ctx context.Context, investigationID string, inputTokens, outputTokens int64) (BudgetStatus, error) {
	if !t.config.Enabled {
		return BudgetHealthy, nil
	}

	t.mu.Lock()

	totalTokens := inputTokens + outputTokens
	cost := t.CalculateCost(inputTokens, outputTokens)

	t.checkAndResetWindow()

	t.state.HourlyTokensUsed += totalTokens
	t.state.HourlyCostUsed += cost
	t.state.TotalTokensUsed += totalTokens
	t.state.TotalCostUsed += cost
	t.state.LastUpdated = time.Now()

	if investigationID != "" {
		t.state.InvestigationTokensUsed[investigationID] += totalTokens
	}

	persistErr := t.persistState()

	status := t.getBudgetStatusLocked()
	changed := status != t.lastStatus
	t.lastStatus = status
	hourlyTokens, hourlyCost := t.state.HourlyTokensUsed, t.state.HourlyCostUsed

	t.mu.Unlock()

	if persistErr != nil {
		t.logger.Warn("failed to persist cost state", "error", persistErr)
	}

	if changed && status != BudgetHealthy {
		t.emitAlert(ctx, investigationID, status, hourlyTokens, hourlyCost)
	}

	return status, nil
}

// CheckBudget returns the current budget status without recording usage
func (t *Tracker) CheckBudget() BudgetStatus {
	if !t.config.Enabled {
		return BudgetHealthy
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.getBudgetStatusLocked()
}

// CanProceed returns true if another AI call fits the budget. When it
// returns false, the string names the exhausted limit.
func (t *Tracker) CanProceed(investigationID string) (bool, string) {
	if !t.config.Enabled {
		return true, ""
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.isHourlyTokenLimitExceeded() {
		return false, fmt.Sprintf("hourly token budget exceeded (%d/%d tokens used)",
			t.state.HourlyTokensUsed, t.config.MaxTokensPerHour)
	}

	if t.isHourlyCostLimitExceeded() {
		return false, fmt.Sprintf("hourly cost budget exceeded ($%.2f/$%.2f used)",
			t.state.HourlyCostUsed, t.config.MaxCostPerHour)
	}

	if investigationID != "" && t.isInvestigationLimitExceeded(investigationID) {
		return false, fmt.Sprintf("investigation token budget exceeded for %s (%d/%d tokens used)",
			investigationID, t.state.InvestigationTokensUsed[investigationID], t.config.MaxTokensPerInvestigation)
	}

	return true, ""
}

// Check returns an error wrapping ErrBudgetExceeded when CanProceed is false.
func (t *Tracker) Check(investigationID string) error {
	if ok, reason := t.CanProceed(investigationID); !ok {
		return fmt.Errorf("%w: %s", ErrBudgetExceeded, reason)
	}
	return nil
}

// BudgetStats contains budget statistics
type BudgetStats struct {
	Status           BudgetStatus `json:"status"`
	HourlyTokensUsed int64        `json:"hourly_tokens_used"`
	HourlyCostUsed   float64      `json:"hourly_cost_used"`
	TotalTokensUsed  int64        `json:"total_tokens_used"`
	TotalCostUsed    float64      `json:"total_cost_used"`
	Investigations   int          `json:"investigations"`
	WindowStartTime  time.Time    `json:"window_start_time"`
	LastUpdated      time.Time    `json:"last_updated"`
	Config           Config       `json:"config"`
}

// GetStats returns current budget statistics
func (t *Tracker) GetStats() BudgetStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkAndResetWindow()

	return BudgetStats{
		Status:           t.getBudgetStatusLocked(),
		HourlyTokensUsed: t.state.HourlyTokensUsed,
		HourlyCostUsed:   t.state.HourlyCostUsed,
		TotalTokensUsed:  t.state.TotalTokensUsed,
		TotalCostUsed:    t.state.TotalCostUsed,
		Investigations:   len(t.state.InvestigationTokensUsed),
		WindowStartTime:  t.state.WindowStartTime,
		LastUpdated:      t.state.LastUpdated,
		Config:           *t.config,
	}
}

// CalculateCost returns the cost in USD for given token usage
func (t *Tracker) CalculateCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) * t.config.InputTokenCost / 1_000_000
	outputCost := float64(outputTokens) * t.config.OutputTokenCost / 1_000_000
	return inputCost + outputCost
}

// getBudgetStatusLocked returns the current budget status (must be called with lock held)
func (t *Tracker) getBudgetStatusLocked() BudgetStatus {
	if t.isHourlyTokenLimitExceeded() || t.isHourlyCostLimitExceeded() {
		return BudgetExceeded
	}

	if t.config.MaxTokensPerHour > 0 &&
		float64(t.state.HourlyTokensUsed)/float64(t.config.MaxTokensPerHour) >= t.config.AlertThreshold {
		return BudgetWarning
	}
	if t.config.MaxCostPerHour > 0 &&
		t.state.HourlyCostUsed/t.config.MaxCostPerHour >= t.config.AlertThreshold {
		return BudgetWarning
	}

	return BudgetHealthy
}

func (t *Tracker) isHourlyTokenLimitExceeded() bool {
	return t.config.MaxTokensPerHour > 0 && t.state.HourlyTokensUsed >= t.config.MaxTokensPerHour
}

func (t *Tracker) isHourlyCostLimitExceeded() bool {
	return t.config.MaxCostPerHour > 0 && t.state.HourlyCostUsed >= t.config.MaxCostPerHour
}

func (t *Tracker) isInvestigationLimitExceeded(investigationID string) bool {
	if t.config.MaxTokensPerInvestigation <= 0 {
		return false
	}
	return t.state.InvestigationTokensUsed[investigationID] >= t.config.MaxTokensPerInvestigation
}

// checkAndResetWindow resets the hourly counters once the window has expired.
// MUST be called with mu lock held
func (t *Tracker) checkAndResetWindow() {
	now := time.Now()
	if now.Sub(t.state.WindowStartTime) >= t.config.BudgetResetInterval {
		t.state.HourlyTokensUsed = 0
		t.state.HourlyCostUsed = 0
		t.state.WindowStartTime = now
	}
}

// persistState saves the budget state to disk (must be called with lock held)
func (t *Tracker) persistState() error {
	if t.config.PersistStatePath == "" {
		return nil
	}

	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(t.config.PersistStatePath), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := os.WriteFile(t.config.PersistStatePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// loadState loads the budget state from disk
func (t *Tracker) loadState() error {
	if t.config.PersistStatePath == "" {
		return nil
	}

	data, err := os.ReadFile(t.config.PersistStatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state BudgetState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}

	if state.InvestigationTokensUsed == nil {
		state.InvestigationTokensUsed = make(map[string]int64)
	}

	t.state = &state
	return nil
}

// emitAlert logs a budget status change and records it as an event.
func (t *Tracker) emitAlert(ctx context.Context, investigationID string, status BudgetStatus, hourlyTokens int64, hourlyCost float64) {
	severity := events.SeverityWarning
	if status == BudgetExceeded {
		severity = events.SeverityError
	}

	message := fmt.Sprintf("cost budget %s: %d tokens ($%.2f) used this window", status, hourlyTokens, hourlyCost)
	t.logger.Warn("cost budget alert", "status", status.String(), "hourly_tokens", hourlyTokens, "hourly_cost", hourlyCost)

	if t.events == nil {
		return
	}
	event := events.NewSimpleEvent(events.EventTypeBudgetAlert, investigationID, 0, severity, message)
	if err := t.events.RecordEvent(ctx, event); err != nil {
		t.logger.Warn("failed to record budget alert", "error", err)
	}
}
