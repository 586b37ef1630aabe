package ai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"

	"github.com/steveyegge/sleuth/internal/cost"
	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/lab"
	"github.com/steveyegge/sleuth/internal/logging"
	"github.com/steveyegge/sleuth/internal/scheduler"
)

// AI model constants.
//
// Brainstorming and judging use the default model. Estimation is a short,
// structured answer and uses the cheaper simple-task model.
//
// Environment variable overrides:
// - SLEUTH_MODEL: default model (default: Sonnet)
// - SLEUTH_MODEL_SIMPLE: model for estimation (default: Haiku)
const (
	// ModelSonnet is the high-end model for reasoning about theories and evidence
	ModelSonnet = "claude-sonnet-4-5-20250929"

	// ModelHaiku is the cost-efficient model for estimates
	ModelHaiku = "claude-3-5-haiku-20241022"
)

// GetDefaultModel returns the default model, checking SLEUTH_MODEL first
func GetDefaultModel() string {
	if model := os.Getenv("SLEUTH_MODEL"); model != "" {
		return model
	}
	return ModelSonnet
}

// GetSimpleTaskModel returns the estimation model, checking SLEUTH_MODEL_SIMPLE first
func GetSimpleTaskModel() string {
	if model := os.Getenv("SLEUTH_MODEL_SIMPLE"); model != "" {
		return model
	}
	return ModelHaiku
}

// Supervisor is the model-backed side of an investigation. It generates
// theories, proposes and estimates experiments, and judges their evidence.
//
// The Supervisor's responsibilities are distributed across multiple files:
// - supervisor.go: Core struct and constructor (this file)
// - retry.go: Circuit breaker and retry logic
// - utils.go: Model calls, usage accounting and truncation
// - theories.go: Theory brainstorming
// - experiments.go: Experiment proposal and cost/odds estimation
// - judge.go: Verdicts on experiment evidence
// - json_parser.go: Tolerant parsing of JSON in model responses
type Supervisor struct {
	client         *anthropic.Client
	model          string
	simpleModel    string
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted // Limits concurrent AI API calls
	costTracker    CostTracker
	events         EventRecorder
	workspace      string
	maxExperiments int
	logger         *slog.Logger
}

// Compile-time checks that Supervisor implements the collaborator interfaces
var (
	_ scheduler.TheoryGenerator    = (*Supervisor)(nil)
	_ scheduler.ExperimentProposer = (*Supervisor)(nil)
	_ scheduler.Estimator          = (*Supervisor)(nil)
	_ lab.Judge                    = (*Supervisor)(nil)
)

// CostTracker defines the interface for cost budgeting.
// *cost.Tracker implements it.
type CostTracker interface {
	// RecordUsage records token usage for an investigation
	RecordUsage(ctx context.Context, investigationID string, inputTokens, outputTokens int64) (cost.BudgetStatus, error)
	// CanProceed checks if we can make another AI call within budget
	CanProceed(investigationID string) (bool, string)
	// CalculateCost converts token usage to USD
	CalculateCost(inputTokens, outputTokens int64) float64
}

// EventRecorder receives AI usage events.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event *events.Event) error
}

// DefaultMaxExperiments is how many experiments are requested per theory.
const DefaultMaxExperiments = 3

// Config holds supervisor configuration
type Config struct {
	APIKey      string // Anthropic API key (if empty, reads from ANTHROPIC_API_KEY env var)
	Model       string // Model for brainstorming and judging (default: GetDefaultModel())
	SimpleModel string // Model for estimates (default: GetSimpleTaskModel())
	BaseURL     string // Override the API endpoint (proxies, tests)

	Retry       RetryConfig   // Retry configuration (uses defaults if not specified)
	CostTracker CostTracker   // Optional cost tracker for budget enforcement
	Events      EventRecorder // Optional sink for ai_cost events

	// Workspace describes the repository under investigation. It is included
	// in every prompt so proposals can name real files and commands.
	Workspace string

	// MaxExperiments caps experiments proposed per theory (default: 3)
	MaxExperiments int
}

// NewSupervisor creates a new AI supervisor
func NewSupervisor(cfg *Config) (*Supervisor, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}
	simpleModel := cfg.SimpleModel
	if simpleModel == "" {
		simpleModel = GetSimpleTaskModel()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	maxExperiments := cfg.MaxExperiments
	if maxExperiments <= 0 {
		maxExperiments = DefaultMaxExperiments
	}

	logger := logging.New("ai")

	// Retries are ours; the SDK's own retry loop would multiply attempts
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	var circuitBreaker *CircuitBreaker
	if retry.CircuitBreakerEnabled {
		circuitBreaker = NewCircuitBreaker(
			retry.FailureThreshold,
			retry.SuccessThreshold,
			retry.OpenTimeout,
		)
		logger.Debug("circuit breaker initialized",
			"failure_threshold", retry.FailureThreshold,
			"success_threshold", retry.SuccessThreshold,
			"open_timeout", retry.OpenTimeout)
	}

	var concurrencySem *semaphore.Weighted
	if retry.MaxConcurrentCalls > 0 {
		concurrencySem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}

	return &Supervisor{
		client:         &client,
		model:          model,
		simpleModel:    simpleModel,
		retry:          retry,
		circuitBreaker: circuitBreaker,
		concurrencySem: concurrencySem,
		costTracker:    cfg.CostTracker,
		events:         cfg.Events,
		workspace:      cfg.Workspace,
		maxExperiments: maxExperiments,
		logger:         logger,
	}, nil
}

// Model returns the model used for brainstorming and judging.
func (s *Supervisor) Model() string {
	return s.model
}

// HealthCheck performs a pre-flight check of the supervisor's health.
// Returns an error if the circuit breaker is open.
func (s *Supervisor) HealthCheck(ctx context.Context) error {
	if s.circuitBreaker != nil {
		state, failures, _ := s.circuitBreaker.GetMetrics()
		switch state {
		case CircuitOpen:
			return fmt.Errorf("AI supervisor unavailable: %w (failures=%d, retry in %v)",
				ErrCircuitOpen, failures, s.retry.OpenTimeout)
		case CircuitHalfOpen:
			s.logger.Info("AI supervisor in half-open state (probing for recovery)")
		case CircuitClosed:
		}
	}
	return nil
}
