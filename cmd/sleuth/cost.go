package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/sleuth/internal/cost"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show AI cost budget and usage statistics",
	Long: `Display the AI cost budget status and token usage.

The budget is configured with SLEUTH_COST_* environment variables and its
state is kept in .sleuth/cost_state.json between runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cost.LoadFromEnv()
		w := cmd.OutOrStdout()

		if !cfg.Enabled {
			fmt.Fprintln(w, "Cost budgeting is disabled")
			fmt.Fprintln(w, "Set SLEUTH_COST_ENABLED=true to enable cost tracking")
			return nil
		}

		tracker, err := cost.NewTracker(cfg, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize cost tracker: %w", err)
		}
		renderCost(w, cfg, tracker.GetStats())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(costCmd)
}

func renderCost(w io.Writer, cfg *cost.Config, stats cost.BudgetStats) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(w, "\n%s\n\n", cyan("=== AI Cost Budget Status ==="))

	statusColor := color.New(color.FgGreen)
	statusIcon := "✓"
	switch stats.Status {
	case cost.BudgetWarning:
		statusColor = color.New(color.FgYellow)
		statusIcon = "⚠️"
	case cost.BudgetExceeded:
		statusColor = color.New(color.FgRed, color.Bold)
		statusIcon = "🚨"
	}
	fmt.Fprintf(w, "%s Budget Status: %s\n\n", statusIcon, statusColor.Sprint(stats.Status.String()))

	fmt.Fprintf(w, "%s\n", yellow("Hourly Budget:"))
	if cfg.MaxTokensPerHour > 0 {
		tokenPercent := float64(stats.HourlyTokensUsed) / float64(cfg.MaxTokensPerHour) * 100
		fmt.Fprintf(w, "  Tokens:  %s / %s (%.1f%%)\n",
			formatTokens(stats.HourlyTokensUsed), formatTokens(cfg.MaxTokensPerHour), tokenPercent)
		fmt.Fprintf(w, "           %s\n", renderProgressBar(tokenPercent, 40))
	} else {
		fmt.Fprintf(w, "  Tokens:  %s (unlimited)\n", formatTokens(stats.HourlyTokensUsed))
	}
	if cfg.MaxCostPerHour > 0 {
		costPercent := stats.HourlyCostUsed / cfg.MaxCostPerHour * 100
		fmt.Fprintf(w, "  Cost:    $%.4f / $%.2f (%.1f%%)\n", stats.HourlyCostUsed, cfg.MaxCostPerHour, costPercent)
		fmt.Fprintf(w, "           %s\n", renderProgressBar(costPercent, 40))
	} else {
		fmt.Fprintf(w, "  Cost:    $%.4f (unlimited)\n", stats.HourlyCostUsed)
	}
	fmt.Fprintf(w, "  Window:  %s → %s\n\n",
		stats.WindowStartTime.Format("15:04:05"),
		stats.WindowStartTime.Add(cfg.BudgetResetInterval).Format("15:04:05"))

	fmt.Fprintf(w, "%s\n", yellow("All-Time Usage:"))
	fmt.Fprintf(w, "  Tokens:          %s\n", formatTokens(stats.TotalTokensUsed))
	fmt.Fprintf(w, "  Cost:            $%.2f\n", stats.TotalCostUsed)
	fmt.Fprintf(w, "  Investigations:  %d\n", stats.Investigations)
	if cfg.MaxTokensPerInvestigation > 0 {
		fmt.Fprintf(w, "  Per-run limit:   %s tokens\n", formatTokens(cfg.MaxTokensPerInvestigation))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", yellow("Pricing (per 1M tokens):"))
	fmt.Fprintf(w, "  Input:   $%.2f\n", cfg.InputTokenCost)
	fmt.Fprintf(w, "  Output:  $%.2f\n\n", cfg.OutputTokenCost)
}

// formatTokens formats a token count compactly
func formatTokens(tokens int64) string {
	switch {
	case tokens < 1000:
		return fmt.Sprintf("%d", tokens)
	case tokens < 1_000_000:
		return fmt.Sprintf("%.1fK", float64(tokens)/1000)
	default:
		return fmt.Sprintf("%.2fM", float64(tokens)/1_000_000)
	}
}

// renderProgressBar renders a text-based progress bar
func renderProgressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100.0 * float64(width))

	var barColor *color.Color
	switch {
	case percent >= 100:
		barColor = color.New(color.FgRed, color.Bold)
	case percent >= 80:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgGreen)
	}

	bar := barColor.Sprint(strings.Repeat("█", filled)) +
		color.New(color.FgHiBlack).Sprint(strings.Repeat("░", width-filled))
	return fmt.Sprintf("[%s]", bar)
}
