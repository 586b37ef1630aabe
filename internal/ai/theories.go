package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/steveyegge/sleuth/internal/types"
)

// theoriesResponse is the JSON shape the model answers a brainstorm with.
type theoriesResponse struct {
	Reasoning string `json:"reasoning"` // The brainstorm of ten, before narrowing down
	Theories  []struct {
		Description string  `json:"description"`
		Odds        float64 `json:"odds"`
	} `json:"theories"`
}

// BrainstormTheories asks the model for likely root causes of the issue.
// The model brainstorms ten candidates and keeps the plausible ones, each
// with its odds. An answer with no theories is returned as an empty list.
func (s *Supervisor) BrainstormTheories(ctx context.Context, issue types.Issue) ([]types.Theory, error) {
	prompt := s.buildTheoriesPrompt(issue)

	responseText, err := s.callModel(ctx, "theories", s.model, prompt, 4096)
	if err != nil {
		return nil, err
	}

	theories, err := parseTheories(responseText)
	if err != nil {
		return nil, err
	}

	s.logger.Info("theories brainstormed", "count", len(theories))
	return theories, nil
}

// parseTheories decodes a brainstorm answer. Theories without a description
// are dropped, and a repeated description keeps its first odds.
func parseTheories(responseText string) ([]types.Theory, error) {
	parseResult := Parse[theoriesResponse](responseText, ParseOptions{Context: "theories response"})
	if !parseResult.Success {
		return nil, fmt.Errorf("failed to parse theories response: %s (response: %s)",
			parseResult.Error, truncateString(responseText, 200))
	}

	seen := make(map[string]bool)
	theories := make([]types.Theory, 0, len(parseResult.Data.Theories))
	for _, t := range parseResult.Data.Theories {
		desc := strings.TrimSpace(t.Description)
		if desc == "" || seen[desc] {
			continue
		}
		seen[desc] = true
		theories = append(theories, types.Theory{Description: desc, Odds: t.Odds})
	}
	return theories, nil
}

func (s *Supervisor) buildTheoriesPrompt(issue types.Issue) string {
	return fmt.Sprintf(`You are debugging a software issue. Brainstorm theories for what causes this issue:

%s
%s
Theories could be either specific (e.g. "the reader ignores the theme's font table") or a significant narrowing down (e.g. "the bug is in the writer, not the reader").

First, brainstorm 10 theories. Finally, output a list of the likely theories and their odds.
Odds are your probability (0.0-1.0) that the theory is correct. They do not need to sum to 1.

If earlier experiments are summarized above, do not repeat theories they refuted.

Respond with a JSON object with the following structure:
{
  "reasoning": "Your brainstorm of 10 theories and why you kept or dropped each",
  "theories": [
    {"description": "One-sentence theory", "odds": 0.4}
  ]
}

Respond ONLY with the JSON object, no other text.`,
		issue.Description, s.workspaceSection())
}

// workspaceSection renders the workspace description for prompts, or
// nothing when no workspace is configured.
func (s *Supervisor) workspaceSection() string {
	if strings.TrimSpace(s.workspace) == "" {
		return ""
	}
	return "\nThe repository under investigation:\n" + s.workspace + "\n"
}
