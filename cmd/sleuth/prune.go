package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old events according to the retention policy",
	Long: `Delete old events according to the retention policy.

Runs two cleanup strategies in sequence:
  1. Time-based: delete events older than the retention period
     (error events are kept longer)
  2. Per-investigation: keep at most the configured number of events
     for each investigation (error events are never pruned)

Investigations and lab results are never deleted. The policy comes from the
"retention" section of the config file and SLEUTH_EVENT_* variables.

Examples:
  sleuth prune             # Run cleanup
  sleuth prune --vacuum    # Run cleanup and reclaim disk space`,
	RunE: func(cmd *cobra.Command, args []string) error {
		retention := appCfg.Retention
		if cmd.Flags().Changed("vacuum") {
			retention.Vacuum, _ = cmd.Flags().GetBool("vacuum")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
		defer cancel()

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Event Retention Configuration:\n")
		fmt.Fprintf(w, "  Regular events:    %d days\n", retention.RetentionDays)
		fmt.Fprintf(w, "  Error events:      %d days\n", retention.ErrorRetentionDays)
		fmt.Fprintf(w, "  Per-investigation: %d events\n", retention.PerInvestigationLimit)
		fmt.Fprintf(w, "  Batch size:        %d events\n\n", retention.BatchSize)

		before, err := store.GetEventCounts(ctx)
		if err != nil {
			return fmt.Errorf("failed to get event counts: %w", err)
		}
		fmt.Fprintf(w, "Current state:\n")
		fmt.Fprintf(w, "  Total events: %s\n", formatNumber(before.TotalEvents))
		fmt.Fprintf(w, "  Investigations: %s\n\n", formatNumber(before.Investigations))

		startTime := time.Now()
		totalDeleted := 0

		fmt.Fprintf(w, "Running time-based cleanup (>%d days, errors >%d days)...\n",
			retention.RetentionDays, retention.ErrorRetentionDays)
		ageDeleted, err := store.CleanupEventsByAge(ctx,
			retention.RetentionDays, retention.ErrorRetentionDays, retention.BatchSize)
		if err != nil {
			return fmt.Errorf("time-based cleanup failed: %w", err)
		}
		fmt.Fprintf(w, "  Deleted %s events\n", formatNumber(ageDeleted))
		totalDeleted += ageDeleted

		if retention.PerInvestigationLimit > 0 {
			fmt.Fprintf(w, "\nRunning per-investigation cleanup (limit: %d events)...\n", retention.PerInvestigationLimit)
			limitDeleted, err := store.CleanupEventsByInvestigationLimit(ctx,
				retention.PerInvestigationLimit, retention.BatchSize)
			if err != nil {
				return fmt.Errorf("per-investigation cleanup failed: %w", err)
			}
			fmt.Fprintf(w, "  Deleted %s events\n", formatNumber(limitDeleted))
			totalDeleted += limitDeleted
		} else {
			fmt.Fprintf(w, "\nSkipping per-investigation cleanup (unlimited)\n")
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(w, "\n%s Cleanup complete\n", green("✓"))
		fmt.Fprintf(w, "  Events deleted: %s\n", formatNumber(totalDeleted))
		if after, err := store.GetEventCounts(ctx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to get final event counts: %v\n", err)
		} else {
			fmt.Fprintf(w, "  Events remaining: %s\n", formatNumber(after.TotalEvents))
		}
		fmt.Fprintf(w, "  Time taken: %s\n", time.Since(startTime).Round(time.Millisecond))

		if retention.Vacuum {
			fmt.Fprintf(w, "\nRunning VACUUM to reclaim disk space...\n")
			if err := store.VacuumDatabase(ctx); err != nil {
				return fmt.Errorf("VACUUM failed: %w", err)
			}
			fmt.Fprintf(w, "%s VACUUM complete\n", green("✓"))
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().Bool("vacuum", false, "Run VACUUM after cleanup to reclaim disk space")
	rootCmd.AddCommand(pruneCmd)
}

// formatNumber formats a number with thousand separators
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + fmt.Sprintf(",%03d", n%1000)
}
