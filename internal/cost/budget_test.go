package cost

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/sleuth/internal/events"
)

type captureRecorder struct {
	events []*events.Event
}

func (c *captureRecorder) RecordEvent(ctx context.Context, event *events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.PersistStatePath = ""
	return cfg
}

func TestRecordUsage_Accumulates(t *testing.T) {
	tracker, err := NewTracker(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	ctx := context.Background()
	if _, err := tracker.RecordUsage(ctx, "inv-1", 1000, 200); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if _, err := tracker.RecordUsage(ctx, "inv-2", 500, 100); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	stats := tracker.GetStats()
	if stats.HourlyTokensUsed != 1800 {
		t.Errorf("expected 1800 hourly tokens, got %d", stats.HourlyTokensUsed)
	}
	if stats.TotalTokensUsed != 1800 {
		t.Errorf("expected 1800 total tokens, got %d", stats.TotalTokensUsed)
	}
	if stats.Investigations != 2 {
		t.Errorf("expected 2 investigations, got %d", stats.Investigations)
	}

	// 1500 input at $3/M + 300 output at $15/M
	want := 1500*3.0/1_000_000 + 300*15.0/1_000_000
	if math.Abs(stats.TotalCostUsed-want) > 1e-12 {
		t.Errorf("expected cost %.6f, got %.6f", want, stats.TotalCostUsed)
	}
}

func TestCanProceed_InvestigationLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTokensPerInvestigation = 1000
	tracker, err := NewTracker(cfg, nil)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	if _, err := tracker.RecordUsage(context.Background(), "inv-1", 900, 100); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	ok, reason := tracker.CanProceed("inv-1")
	if ok {
		t.Fatal("expected inv-1 to be over budget")
	}
	if reason == "" {
		t.Error("expected a reason")
	}

	if ok, _ := tracker.CanProceed("inv-2"); !ok {
		t.Error("other investigations should be unaffected")
	}

	if err := tracker.Check("inv-1"); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}
	if err := tracker.Check("inv-2"); err != nil {
		t.Errorf("expected no error for inv-2, got %v", err)
	}
}

func TestRecordUsage_StatusTransitionsEmitAlerts(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTokensPerHour = 1000
	cfg.MaxCostPerHour = 0
	cfg.MaxTokensPerInvestigation = 0
	rec := &captureRecorder{}
	tracker, err := NewTracker(cfg, rec)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	ctx := context.Background()
	steps := []struct {
		tokens int64
		want   BudgetStatus
		alerts int
	}{
		{tokens: 500, want: BudgetHealthy, alerts: 0},
		{tokens: 350, want: BudgetWarning, alerts: 1},
		{tokens: 50, want: BudgetWarning, alerts: 1},
		{tokens: 200, want: BudgetExceeded, alerts: 2},
	}

	for i, step := range steps {
		status, err := tracker.RecordUsage(ctx, "inv-1", step.tokens, 0)
		if err != nil {
			t.Fatalf("step %d: RecordUsage failed: %v", i, err)
		}
		if status != step.want {
			t.Errorf("step %d: expected %s, got %s", i, step.want, status)
		}
		if len(rec.events) != step.alerts {
			t.Errorf("step %d: expected %d alerts, got %d", i, step.alerts, len(rec.events))
		}
	}

	last := rec.events[len(rec.events)-1]
	if last.Type != events.EventTypeBudgetAlert || last.Severity != events.SeverityError {
		t.Errorf("unexpected final alert: %s/%s", last.Type, last.Severity)
	}
	if ok, _ := tracker.CanProceed(""); ok {
		t.Error("expected hourly budget to block further calls")
	}
}

func TestDisabledTracker(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	cfg.MaxTokensPerHour = 10
	tracker, err := NewTracker(cfg, nil)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	status, err := tracker.RecordUsage(context.Background(), "inv-1", 1000, 1000)
	if err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if status != BudgetHealthy {
		t.Errorf("expected healthy status when disabled, got %s", status)
	}
	if ok, _ := tracker.CanProceed("inv-1"); !ok {
		t.Error("disabled tracker should never block")
	}
}

func TestStatePersistence(t *testing.T) {
	cfg := testConfig()
	cfg.PersistStatePath = filepath.Join(t.TempDir(), "nested", "cost_state.json")

	first, err := NewTracker(cfg, nil)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}
	if _, err := first.RecordUsage(context.Background(), "inv-1", 2000, 500); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	second, err := NewTracker(cfg, nil)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}
	stats := second.GetStats()
	if stats.TotalTokensUsed != 2500 {
		t.Errorf("expected restored total of 2500 tokens, got %d", stats.TotalTokensUsed)
	}
	if stats.Investigations != 1 {
		t.Errorf("expected 1 restored investigation, got %d", stats.Investigations)
	}
}

func TestWindowReset(t *testing.T) {
	cfg := testConfig()
	cfg.BudgetResetInterval = 10 * time.Millisecond
	tracker, err := NewTracker(cfg, nil)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	if _, err := tracker.RecordUsage(context.Background(), "inv-1", 100, 0); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	stats := tracker.GetStats()
	if stats.HourlyTokensUsed != 0 {
		t.Errorf("expected hourly counters to reset, got %d", stats.HourlyTokensUsed)
	}
	if stats.TotalTokensUsed != 100 {
		t.Errorf("expected total to survive reset, got %d", stats.TotalTokensUsed)
	}
}

func TestBudgetStatusString(t *testing.T) {
	tests := map[BudgetStatus]string{
		BudgetHealthy:    "HEALTHY",
		BudgetWarning:    "WARNING",
		BudgetExceeded:   "EXCEEDED",
		BudgetStatus(99): "UNKNOWN(99)",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
