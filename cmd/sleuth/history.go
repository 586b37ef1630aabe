package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/storage"
	"github.com/steveyegge/sleuth/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past investigations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		invs, err := store.ListInvestigations(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(invs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No investigations yet. Start one with 'sleuth debug'.")
			return nil
		}
		renderHistory(cmd.OutOrStdout(), invs)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <investigation-id>",
	Short: "Show the lab log and events of an investigation",
	Long: `Show one investigation: the issue, every experiment result in order,
and the recorded events. The ID may be shortened to any unique prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showEvents, _ := cmd.Flags().GetBool("events")
		ctx := cmd.Context()

		inv, err := resolveInvestigation(ctx, store, args[0])
		if err != nil {
			return err
		}
		labLog, err := store.GetLabLog(ctx, inv.ID)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		renderInvestigation(w, inv, labLog)

		if showEvents {
			evs, err := store.GetEvents(ctx, events.EventFilter{InvestigationID: inv.ID})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\n%s\n", color.New(color.FgYellow).Sprint("Events:"))
			for _, ev := range evs {
				displayEvent(w, ev)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum investigations to list (0 = all)")
	showCmd.Flags().Bool("events", true, "Include recorded events")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
}

// resolveInvestigation finds an investigation by full ID or unique prefix.
func resolveInvestigation(ctx context.Context, s storage.Storage, idOrPrefix string) (*types.Investigation, error) {
	if idOrPrefix == "" {
		return nil, errors.New("investigation ID is required")
	}
	inv, err := s.GetInvestigation(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}
	if inv != nil {
		return inv, nil
	}

	all, err := s.ListInvestigations(ctx, 0)
	if err != nil {
		return nil, err
	}
	var matches []*types.Investigation
	for _, candidate := range all {
		if strings.HasPrefix(candidate.ID, idOrPrefix) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("investigation %s not found", idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("investigation prefix %s is ambiguous (%d matches)", idOrPrefix, len(matches))
	}
}

func renderHistory(w io.Writer, invs []*types.Investigation) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Started", "Status", "Rounds", "Issue", "Result"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, WidthMax: 40},
		{Number: 6, WidthMax: 40},
	})
	for _, inv := range invs {
		t.AppendRow(table.Row{
			shortID(inv.ID),
			inv.StartedAt.Local().Format("2006-01-02 15:04"),
			statusColor(inv.Status).Sprint(inv.Status),
			inv.Rounds,
			truncateString(firstLine(inv.Issue), 40),
			truncateString(firstLine(resultText(inv)), 40),
		})
	}
	t.Render()
}

func renderInvestigation(w io.Writer, inv *types.Investigation, labLog []*types.LabEntry) {
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", cyan("Investigation"), inv.ID)
	fmt.Fprintf(w, "  Status:  %s\n", statusColor(inv.Status).Sprint(inv.Status))
	fmt.Fprintf(w, "  Rounds:  %d\n", inv.Rounds)
	fmt.Fprintf(w, "  Started: %s\n", inv.StartedAt.Local().Format(time.RFC3339))
	if inv.FinishedAt != nil {
		fmt.Fprintf(w, "  Elapsed: %s\n", inv.FinishedAt.Sub(inv.StartedAt).Round(time.Second))
	}

	fmt.Fprintf(w, "\n%s\n%s\n", yellow("Issue:"), indent(inv.Issue, "  "))

	fmt.Fprintf(w, "\n%s\n", yellow(fmt.Sprintf("Lab log (%d):", len(labLog))))
	for _, entry := range labLog {
		fmt.Fprintf(w, "  [%d.%d] %s  %s\n", entry.Round, entry.Seq,
			verdictColor(entry.Verdict).Sprint(entry.Verdict), entry.Experiment)
		fmt.Fprintf(w, "        theory: %s\n", entry.Theory)
		if entry.Command != "" {
			fmt.Fprintf(w, "        $ %s\n", entry.Command)
		}
		if entry.Summary != "" {
			fmt.Fprintf(w, "%s\n", indent(entry.Summary, "        "))
		}
	}

	if res := resultText(inv); res != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", yellow("Result:"), indent(res, "  "))
	}
}

// resultText is the one thing worth knowing about how an investigation ended.
func resultText(inv *types.Investigation) string {
	switch inv.Status {
	case types.InvestigationSolved:
		return inv.Theory
	case types.InvestigationAborted:
		return inv.Error
	default:
		return inv.Summary
	}
}

func statusColor(status types.InvestigationStatus) *color.Color {
	switch status {
	case types.InvestigationSolved:
		return color.New(color.FgGreen)
	case types.InvestigationFailed:
		return color.New(color.FgYellow)
	case types.InvestigationAborted:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}

func verdictColor(v types.Verdict) *color.Color {
	switch v {
	case types.VerdictConfirmed:
		return color.New(color.FgGreen)
	case types.VerdictRefuted:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
