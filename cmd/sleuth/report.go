package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/steveyegge/sleuth/internal/types"
)

// printOutcome writes the end result of an investigation.
func printOutcome(w io.Writer, outcome *types.Outcome) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintln(w)
	if outcome.Solved() {
		result := outcome.Result
		fmt.Fprintf(w, "%s Theory confirmed after %s\n", green("✓"), pluralize(outcome.Rounds, "round"))
		fmt.Fprintf(w, "\n%s\n  %s\n", yellow("Theory:"), result.Experiment.Theory.Description)
		fmt.Fprintf(w, "\n%s\n  %s\n", yellow("Experiment:"), result.Experiment.Description)
		if result.Experiment.Command != "" {
			fmt.Fprintf(w, "  $ %s\n", result.Experiment.Command)
		}
		fmt.Fprintf(w, "\n%s\n%s\n", yellow("Evidence:"), indent(result.Summary, "  "))
	} else {
		failure := outcome.Failure
		fmt.Fprintf(w, "%s No theory confirmed in %s (%s)\n", red("✗"),
			pluralize(outcome.Rounds, "round"), pluralize(len(failure.LabLog), "experiment"))
		fmt.Fprintf(w, "\n%s\n", indent(failure.Summary, "  "))
	}
	fmt.Fprintf(w, "\n%s\n", gray("Investigation "+outcome.InvestigationID+" (sleuth show "+shortID(outcome.InvestigationID)+")"))
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// shortID is the prefix shown in tables; show accepts it.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
