package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/steveyegge/sleuth/internal/types"
)

// experimentsResponse is the JSON shape of an experiment proposal.
type experimentsResponse struct {
	Experiments []struct {
		Description string `json:"description"`
		Command     string `json:"command"`
	} `json:"experiments"`
}

// estimateResponse is the JSON shape of a cost and odds estimate.
type estimateResponse struct {
	Odds      float64 `json:"odds"`
	Cost      float64 `json:"cost"`
	Reasoning string  `json:"reasoning"`
}

// BrainstormExperiments asks the model for cheap experiments that would
// confirm or refute the theory. At most maxExperiments are returned.
func (s *Supervisor) BrainstormExperiments(ctx context.Context, theory types.Theory) ([]types.ExperimentDesign, error) {
	prompt := s.buildExperimentsPrompt(theory)

	responseText, err := s.callModel(ctx, "experiments", s.model, prompt, 2048)
	if err != nil {
		return nil, err
	}

	designs, err := parseExperiments(responseText, s.maxExperiments)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("experiments proposed", "theory", theory.Key(), "count", len(designs))
	return designs, nil
}

// EstimateCostAndOdds asks the simple-task model how likely the experiment
// is to settle its theory and what it costs to run. Out-of-range numbers
// are returned as given.
func (s *Supervisor) EstimateCostAndOdds(ctx context.Context, experiment types.ExperimentDesign) (types.ExperimentEstimate, error) {
	prompt := s.buildEstimatePrompt(experiment)

	responseText, err := s.callModel(ctx, "estimate", s.simpleModel, prompt, 512)
	if err != nil {
		return types.ExperimentEstimate{}, err
	}

	return parseEstimate(responseText, experiment)
}

func parseExperiments(responseText string, limit int) ([]types.ExperimentDesign, error) {
	parseResult := Parse[experimentsResponse](responseText, ParseOptions{Context: "experiments response"})
	if !parseResult.Success {
		return nil, fmt.Errorf("failed to parse experiments response: %s (response: %s)",
			parseResult.Error, truncateString(responseText, 200))
	}

	designs := make([]types.ExperimentDesign, 0, len(parseResult.Data.Experiments))
	for _, e := range parseResult.Data.Experiments {
		desc := strings.TrimSpace(e.Description)
		if desc == "" {
			continue
		}
		designs = append(designs, types.ExperimentDesign{
			Description: desc,
			Command:     strings.TrimSpace(e.Command),
		})
		if limit > 0 && len(designs) == limit {
			break
		}
	}
	return designs, nil
}

func parseEstimate(responseText string, experiment types.ExperimentDesign) (types.ExperimentEstimate, error) {
	parseResult := Parse[estimateResponse](responseText, ParseOptions{Context: "estimate response"})
	if !parseResult.Success {
		return types.ExperimentEstimate{}, fmt.Errorf("failed to parse estimate response: %s (response: %s)",
			parseResult.Error, truncateString(responseText, 200))
	}
	return types.ExperimentEstimate{
		Experiment: experiment,
		Odds:       parseResult.Data.Odds,
		Cost:       parseResult.Data.Cost,
	}, nil
}

func (s *Supervisor) buildExperimentsPrompt(theory types.Theory) string {
	return fmt.Sprintf(`You are debugging a software issue.

Issue:
%s
%s
Theory under test (odds %.2f):
%s

Propose up to %d low-cost experiments that would confirm or refute this theory.
Prefer experiments that finish in seconds: reading a file, grepping the source, running a single test.
When an experiment can be carried out by one shell command run from the repository root, give that command.
Leave "command" empty when the experiment needs judgment rather than a command.

Respond with a JSON object with the following structure:
{
  "experiments": [
    {"description": "What the experiment checks and what each outcome would mean", "command": "grep -rn 'Arial' src/"}
  ]
}

Respond ONLY with the JSON object, no other text.`,
		theory.Issue.Description, s.workspaceSection(), theory.Odds, theory.Description, s.maxExperiments)
}

func (s *Supervisor) buildEstimatePrompt(experiment types.ExperimentDesign) string {
	command := experiment.Command
	if command == "" {
		command = "(none)"
	}
	return fmt.Sprintf(`Estimate an experiment for a debugging session.

Theory: %s

Experiment: %s
Command: %s

Give two numbers:
- odds: probability (0.0-1.0) that the experiment gives a clear answer about the theory, whether the theory turns out true or false
- cost: effort to run it, from 0.0 (instant, free) to 1.0 (hours of work or a full rebuild)

Respond with a JSON object with the following structure:
{
  "odds": 0.7,
  "cost": 0.05,
  "reasoning": "One sentence"
}

Respond ONLY with the JSON object, no other text.`,
		experiment.Theory.Description, experiment.Description, command)
}
