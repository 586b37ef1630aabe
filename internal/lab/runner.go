package lab

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"golang.org/x/time/rate"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/logging"
	"github.com/steveyegge/sleuth/internal/scheduler"
	"github.com/steveyegge/sleuth/internal/types"
)

// Judge decides what an experiment showed about its theory. obs is nil when
// the experiment has no command.
type Judge interface {
	JudgeExperiment(ctx context.Context, experiment types.ExperimentDesign, obs *types.Observation) (types.ExperimentResult, error)
}

// EventRecorder receives probe_executed events.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event *events.Event) error
}

// Defaults for Config.
const (
	DefaultTimeout     = 2 * time.Minute
	DefaultOutputLimit = 64 * 1024
	DefaultProbeRate   = 2.0 // probes per second
	DefaultShell       = "/bin/sh"
)

// Config holds command runner configuration
type Config struct {
	Judge      Judge  // Required: turns evidence into a verdict
	WorkingDir string // Directory where probe commands are executed (default: ".")
	Shell      string // Shell used as "<shell> -c <command>" (default: /bin/sh)

	Timeout     time.Duration // Per-probe timeout (default: 2m)
	OutputLimit int           // Bytes of combined output kept per probe (default: 64KiB)

	// ProbeRate limits probe launches per second (default: 2, <0 = unlimited)
	ProbeRate  float64
	ProbeBurst int // default: 1

	Events EventRecorder // Optional sink for probe_executed events
}

// CommandRunner runs experiments by executing their command in the
// workspace and handing the observation to a Judge. Experiments without a
// command go straight to the Judge.
type CommandRunner struct {
	judge       Judge
	workingDir  string
	shell       string
	timeout     time.Duration
	outputLimit int
	limiter     *rate.Limiter
	events      EventRecorder
	logger      *slog.Logger
}

var _ scheduler.Runner = (*CommandRunner)(nil)

// NewCommandRunner creates a new command runner
func NewCommandRunner(cfg *Config) (*CommandRunner, error) {
	if cfg.Judge == nil {
		return nil, fmt.Errorf("judge is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be non-negative (got %v)", cfg.Timeout)
	}

	r := &CommandRunner{
		judge:       cfg.Judge,
		workingDir:  cfg.WorkingDir,
		shell:       cfg.Shell,
		timeout:     cfg.Timeout,
		outputLimit: cfg.OutputLimit,
		events:      cfg.Events,
		logger:      logging.New("lab"),
	}
	if r.workingDir == "" {
		r.workingDir = "."
	}
	if r.shell == "" {
		r.shell = DefaultShell
	}
	if r.timeout == 0 {
		r.timeout = DefaultTimeout
	}
	if r.outputLimit <= 0 {
		r.outputLimit = DefaultOutputLimit
	}

	probeRate := cfg.ProbeRate
	if probeRate == 0 {
		probeRate = DefaultProbeRate
	}
	burst := cfg.ProbeBurst
	if burst <= 0 {
		burst = 1
	}
	if probeRate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(probeRate), burst)
	} else {
		r.limiter = rate.NewLimiter(rate.Inf, burst)
	}

	return r, nil
}

// RunExperiment executes the experiment's command, if any, and returns the
// Judge's verdict. A command that fails or times out is evidence, not an
// error; errors are returned only when ctx is done or the Judge fails.
func (r *CommandRunner) RunExperiment(ctx context.Context, experiment types.ExperimentDesign) (types.ExperimentResult, error) {
	var obs *types.Observation
	if experiment.Command != "" {
		var err error
		obs, err = r.Execute(ctx, experiment.Command)
		if err != nil {
			return types.ExperimentResult{}, err
		}
	}

	result, err := r.judge.JudgeExperiment(ctx, experiment, obs)
	if err != nil {
		return types.ExperimentResult{}, fmt.Errorf("judge experiment: %w", err)
	}
	result.Experiment = experiment
	return result, nil
}

// Execute runs one shell command in the working directory, waiting for the
// rate limiter first.
func (r *CommandRunner) Execute(ctx context.Context, command string) (*types.Observation, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting to run probe: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	output := &limitedBuffer{limit: r.outputLimit}
	cmd := exec.CommandContext(runCtx, r.shell, "-c", command)
	cmd.Dir = r.workingDir
	cmd.Stdout = output
	cmd.Stderr = output
	// Children that inherit the pipes must not hold Wait open past the timeout.
	cmd.WaitDelay = time.Second

	start := time.Now()
	runErr := cmd.Run()
	obs := &types.Observation{
		Command:   command,
		Dir:       r.workingDir,
		Output:    output.String(),
		Duration:  time.Since(start),
		Truncated: output.truncated,
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("probe %q: %w", command, ctx.Err())
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		obs.ExitCode = 0
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		obs.ExitCode = -1
		obs.TimedOut = true
	case errors.As(runErr, &exitErr):
		obs.ExitCode = exitErr.ExitCode()
	default:
		// The shell never started
		obs.ExitCode = -1
		obs.Output += runErr.Error()
	}

	r.logger.Debug("probe executed", "command", command, "exit_code", obs.ExitCode,
		"timed_out", obs.TimedOut, "duration", obs.Duration, "output_bytes", len(obs.Output))
	r.recordProbe(ctx, obs)

	return obs, nil
}

func (r *CommandRunner) recordProbe(ctx context.Context, obs *types.Observation) {
	if r.events == nil {
		return
	}

	severity := events.SeverityInfo
	message := fmt.Sprintf("probe exited %d: %s", obs.ExitCode, obs.Command)
	if obs.TimedOut {
		severity = events.SeverityWarning
		message = fmt.Sprintf("probe timed out after %v: %s", r.timeout, obs.Command)
	}

	event, err := events.NewProbeExecutedEvent(events.InvestigationFromContext(ctx), severity, message, events.ProbeExecutedData{
		Command:     obs.Command,
		ExitCode:    obs.ExitCode,
		TimedOut:    obs.TimedOut,
		Duration:    obs.Duration,
		OutputBytes: len(obs.Output),
	})
	if err != nil {
		r.logger.Warn("failed to build probe event", "error", err)
		return
	}
	if err := r.events.RecordEvent(ctx, event); err != nil {
		r.logger.Warn("failed to record probe event", "error", err)
	}
}

// limitedBuffer keeps the first limit bytes written to it and discards the rest.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
