package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/sleuth/internal/ai"
	"github.com/steveyegge/sleuth/internal/config"
	"github.com/steveyegge/sleuth/internal/cost"
	"github.com/steveyegge/sleuth/internal/lab"
	"github.com/steveyegge/sleuth/internal/scheduler"
	"github.com/steveyegge/sleuth/internal/storage"
	"github.com/steveyegge/sleuth/internal/workspace"
)

var debugCmd = &cobra.Command{
	Use:   "debug [issue text]",
	Short: "Investigate a bug report",
	Long: `Investigate a bug report until a theory is confirmed or the round limit
is reached.

The report comes from, in order of preference: --sample, --file, the
command-line arguments, or standard input. On a terminal the report is
entered interactively; finish with an empty line after the text or Ctrl-D.

With --offline no model is called: theories come from --theories and the
experiments are the built-in stubs, which never confirm anything. This is
useful to check configuration and storage.

Examples:
  sleuth debug --sample 1
  sleuth debug --file bug.md --workdir ../widgets
  sleuth debug --offline --theories theories.yaml "crash on empty input"`,
	RunE: runDebug,
}

func init() {
	debugCmd.Flags().StringP("file", "f", "", "Read the issue from a file (\"-\" for stdin)")
	debugCmd.Flags().IntP("sample", "s", 0, "Investigate bundled sample issue N (see 'sleuth samples')")
	debugCmd.Flags().Bool("offline", false, "Use stub collaborators instead of the model")
	debugCmd.Flags().String("theories", "", "YAML file with fixed theories")
	debugCmd.Flags().Int("max-rounds", 0, "Maximum rounds (default from config)")
	debugCmd.Flags().Float64("odds-factor", 0, "ROI weight on odds (default from config)")
	debugCmd.Flags().Float64("cost-factor", 0, "ROI weight on cost (default from config)")
	debugCmd.Flags().String("selection-order", "", "Plan order: exploit or explore (default from config)")
	debugCmd.Flags().String("workdir", ".", "Repository the experiments run in")
	debugCmd.Flags().String("model", "", "Model for theories, experiments and verdicts")

	rootCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	issue, err := readIssue(cmd, args, os.Stdin)
	if err != nil {
		return err
	}

	if err := applyDebugFlags(cmd, appCfg); err != nil {
		return err
	}
	if err := appCfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	recorder := storage.NewRecorder(store)
	deps, err := buildCollaborators(cmd, appCfg, recorder)
	if err != nil {
		return err
	}
	deps.Recorder = recorder

	dbg, err := scheduler.New(appCfg.Scheduler(), deps)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := dbg.Debug(ctx, issue)
	if err != nil {
		return fmt.Errorf("investigation aborted: %w", err)
	}
	printOutcome(cmd.OutOrStdout(), outcome)
	return nil
}

// applyDebugFlags overlays explicitly set flags on the loaded configuration.
func applyDebugFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("max-rounds") {
		if cfg.MaxRounds, err = flags.GetInt("max-rounds"); err != nil {
			return err
		}
	}
	if flags.Changed("odds-factor") {
		if cfg.OddsFactor, err = flags.GetFloat64("odds-factor"); err != nil {
			return err
		}
	}
	if flags.Changed("cost-factor") {
		if cfg.CostFactor, err = flags.GetFloat64("cost-factor"); err != nil {
			return err
		}
	}
	if flags.Changed("selection-order") {
		if cfg.SelectionOrder, err = flags.GetString("selection-order"); err != nil {
			return err
		}
	}
	if flags.Changed("model") {
		if cfg.AI.Model, err = flags.GetString("model"); err != nil {
			return err
		}
	}
	return nil
}

// buildCollaborators wires the model-backed supervisor and the command
// runner, or the offline stubs.
func buildCollaborators(cmd *cobra.Command, cfg *config.Config, recorder *storage.Recorder) (scheduler.Deps, error) {
	offline, _ := cmd.Flags().GetBool("offline")
	theoriesPath, _ := cmd.Flags().GetString("theories")
	workdir, _ := cmd.Flags().GetString("workdir")

	var fixed *lab.FixedTheories
	if theoriesPath != "" {
		var err error
		if fixed, err = lab.LoadTheories(theoriesPath); err != nil {
			return scheduler.Deps{}, err
		}
	}

	if offline {
		if fixed == nil {
			return scheduler.Deps{}, fmt.Errorf("--offline needs --theories")
		}
		return scheduler.Deps{
			Theories:  fixed,
			Proposer:  lab.StubProposer{},
			Estimator: lab.StubEstimator{},
			Runner:    lab.StubRunner{},
		}, nil
	}

	desc, err := workspace.Describe(workdir)
	if err != nil {
		return scheduler.Deps{}, err
	}

	tracker, err := cost.NewTracker(cost.LoadFromEnv(), recorder)
	if err != nil {
		return scheduler.Deps{}, fmt.Errorf("failed to initialize cost tracker: %w", err)
	}

	sup, err := ai.NewSupervisor(&ai.Config{
		Model:          cfg.AI.Model,
		SimpleModel:    cfg.AI.SimpleModel,
		Retry:          ai.DefaultRetryConfig(),
		CostTracker:    tracker,
		Events:         recorder,
		Workspace:      desc.String(),
		MaxExperiments: cfg.AI.MaxExperiments,
	})
	if err != nil {
		return scheduler.Deps{}, fmt.Errorf("failed to create AI supervisor: %w", err)
	}

	runner, err := lab.NewCommandRunner(&lab.Config{
		Judge:       sup,
		WorkingDir:  desc.Dir,
		Shell:       cfg.Probe.Shell,
		Timeout:     cfg.Probe.Timeout,
		OutputLimit: cfg.Probe.OutputLimit,
		ProbeRate:   cfg.Probe.Rate,
		Events:      recorder,
	})
	if err != nil {
		return scheduler.Deps{}, err
	}

	deps := scheduler.Deps{
		Theories:  sup,
		Proposer:  sup,
		Estimator: sup,
		Runner:    runner,
	}
	if fixed != nil {
		deps.Theories = fixed
	}
	return deps, nil
}
