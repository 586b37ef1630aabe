package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/steveyegge/sleuth/internal/types"
)

// maxEvidenceBytes bounds the command output quoted into a judge prompt.
const maxEvidenceBytes = 16 * 1024

// judgeResponse is the JSON shape of a verdict.
type judgeResponse struct {
	Verdict   string `json:"verdict"`
	Summary   string `json:"summary"`
	Reasoning string `json:"reasoning"`
}

// JudgeExperiment decides what an experiment showed about its theory.
// obs may be nil or empty for experiments without a command; the model then
// judges from the design alone, which is usually inconclusive.
func (s *Supervisor) JudgeExperiment(ctx context.Context, experiment types.ExperimentDesign, obs *types.Observation) (types.ExperimentResult, error) {
	prompt := s.buildJudgePrompt(experiment, obs)

	responseText, err := s.callModel(ctx, "judge", s.model, prompt, 1024)
	if err != nil {
		return types.ExperimentResult{}, err
	}

	result, err := parseJudgement(responseText)
	if err != nil {
		return types.ExperimentResult{}, err
	}
	result.Experiment = experiment
	result.DetailedLog = detailedLog(obs, responseText)
	return result, nil
}

func parseJudgement(responseText string) (types.ExperimentResult, error) {
	parseResult := Parse[judgeResponse](responseText, ParseOptions{Context: "judge response"})
	if !parseResult.Success {
		return types.ExperimentResult{}, fmt.Errorf("failed to parse judge response: %s (response: %s)",
			parseResult.Error, truncateString(responseText, 200))
	}

	verdict, err := types.ParseVerdict(strings.ToLower(strings.TrimSpace(parseResult.Data.Verdict)))
	if err != nil {
		return types.ExperimentResult{}, fmt.Errorf("judge response: %w", err)
	}

	return types.ExperimentResult{
		Verdict: verdict,
		Summary: strings.TrimSpace(parseResult.Data.Summary),
	}, nil
}

// detailedLog keeps the raw evidence and the judge's answer together.
func detailedLog(obs *types.Observation, responseText string) string {
	var b strings.Builder
	if obs.Ran() {
		fmt.Fprintf(&b, "$ %s\n", obs.Command)
		b.WriteString(obs.Output)
		if !strings.HasSuffix(obs.Output, "\n") {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[exit %d, %v", obs.ExitCode, obs.Duration)
		if obs.TimedOut {
			b.WriteString(", timed out")
		}
		b.WriteString("]\n\n")
	}
	b.WriteString(responseText)
	return b.String()
}

func (s *Supervisor) buildJudgePrompt(experiment types.ExperimentDesign, obs *types.Observation) string {
	evidence := "No command was run for this experiment."
	if obs.Ran() {
		status := fmt.Sprintf("exit code %d", obs.ExitCode)
		if obs.TimedOut {
			status = "timed out"
		}
		output := obs.Output
		if output == "" {
			output = "(no output)"
		}
		note := ""
		if obs.Truncated {
			note = " (output truncated)"
		}
		evidence = fmt.Sprintf("Command: %s\nResult: %s%s\n\nOutput:\n%s",
			obs.Command, status, note, truncateString(output, maxEvidenceBytes))
	}

	return fmt.Sprintf(`You are judging a debugging experiment.

Issue:
%s

Theory: %s

Experiment: %s

Evidence:
%s

Decide whether the evidence shows the theory is correct.
- "confirmed": the evidence shows the theory is the cause
- "refuted": the evidence shows the theory is wrong
- "inconclusive": the evidence does not settle it

Write a short summary of what was learned. It is shown to whoever picks up the investigation next, so state facts, not guesses.

Respond with a JSON object with the following structure:
{
  "verdict": "confirmed" | "refuted" | "inconclusive",
  "summary": "What the experiment showed, in one or two sentences",
  "reasoning": "Why the evidence supports this verdict"
}

Respond ONLY with the JSON object, no other text.`,
		experiment.Theory.Issue.Description, experiment.Theory.Description, experiment.Description, evidence)
}
