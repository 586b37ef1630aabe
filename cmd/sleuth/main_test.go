package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/sleuth/internal/events"
	"github.com/steveyegge/sleuth/internal/storage"
	"github.com/steveyegge/sleuth/internal/types"
)

func init() {
	color.NoColor = true
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeTheories(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "theories.yaml")
	content := `theories:
  - description: the reader drops theme fonts
    odds: 0.6
  - description: the writer defaults to Arial
    odds: 0.3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOfflineDebugThenHistoryAndShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), ".sleuth", "sleuth.db")
	theories := writeTheories(t)

	out, err := executeCommand(t, "debug", "--db", db, "--offline", "--theories", theories,
		"--max-rounds", "2", "Calibri becomes Arial after a round trip")
	require.NoError(t, err, out)
	// Two theories, two stub experiments each, all selected every round.
	assert.Contains(t, out, "No theory confirmed in 2 rounds (8 experiments)")
	assert.Contains(t, out, "Failed to debug issue.")

	out, err = executeCommand(t, "history", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "Calibri becomes Arial")

	ctx := context.Background()
	s, err := storage.NewStorage(ctx, &storage.Config{Path: db})
	require.NoError(t, err)
	invs, err := s.ListInvestigations(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.Len(t, invs, 1)

	out, err = executeCommand(t, "show", "--db", db, shortID(invs[0].ID))
	require.NoError(t, err, out)
	assert.Contains(t, out, invs[0].ID)
	assert.Contains(t, out, "Lab log (8):")
	assert.Contains(t, out, "run it and see what happens")
	assert.Contains(t, out, string(events.EventTypeTheoriesGenerated))
}

func TestOfflineDebugRequiresTheories(t *testing.T) {
	db := filepath.Join(t.TempDir(), ".sleuth", "sleuth.db")

	_, err := executeCommand(t, "debug", "--db", db, "--offline", "--theories", "", "some issue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--offline needs --theories")
}

func TestSamplesCommand(t *testing.T) {
	out, err := executeCommand(t, "samples")
	require.NoError(t, err)
	assert.Contains(t, out, " 1.")
	assert.Contains(t, out, "umya-spreadsheet")

	out, err = executeCommand(t, "samples", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Calibri")

	_, err = executeCommand(t, "samples", "99")
	require.Error(t, err)
}

func TestCostCommand_Disabled(t *testing.T) {
	t.Setenv("SLEUTH_COST_ENABLED", "false")
	db := filepath.Join(t.TempDir(), ".sleuth", "sleuth.db")

	out, err := executeCommand(t, "cost", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Cost budgeting is disabled")
}

func TestPruneCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), ".sleuth", "sleuth.db")

	out, err := executeCommand(t, "prune", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Cleanup complete")
	assert.Contains(t, out, "Events deleted: 0")
}

func TestResolveConfigPath(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, ".sleuth", "sleuth.db")
	require.NoError(t, os.MkdirAll(filepath.Dir(db), 0755))

	got, err := resolveConfigPath("", db)
	require.NoError(t, err)
	assert.Empty(t, got)

	cfgFile := filepath.Join(root, ".sleuth", "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("max_rounds: 2\n"), 0644))
	got, err = resolveConfigPath("", db)
	require.NoError(t, err)
	assert.Equal(t, cfgFile, got)

	got, err = resolveConfigPath("custom.yaml", db)
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", got)

	got, err = resolveConfigPath("", filepath.Join(root, "elsewhere.db"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func newIssueCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("file", "", "")
	cmd.Flags().Int("sample", 0, "")
	cmd.SetErr(&bytes.Buffer{})
	return cmd
}

func tempStdin(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestReadIssue(t *testing.T) {
	t.Run("args", func(t *testing.T) {
		issue, err := readIssue(newIssueCommand(), []string{"crash", "on", "save"}, tempStdin(t, ""))
		require.NoError(t, err)
		assert.Equal(t, "crash on save", issue.Description)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bug.md")
		require.NoError(t, os.WriteFile(path, []byte("\n  fonts change\n"), 0644))
		cmd := newIssueCommand()
		require.NoError(t, cmd.Flags().Set("file", path))

		issue, err := readIssue(cmd, []string{"ignored"}, tempStdin(t, ""))
		require.NoError(t, err)
		assert.Equal(t, "fonts change", issue.Description)
	})

	t.Run("piped stdin", func(t *testing.T) {
		stdin := tempStdin(t, "line one\nline two\n")
		assert.False(t, isTerminal(stdin))
		issue, err := readIssue(newIssueCommand(), nil, stdin)
		require.NoError(t, err)
		assert.Equal(t, "line one\nline two", issue.Description)
	})

	t.Run("sample", func(t *testing.T) {
		cmd := newIssueCommand()
		require.NoError(t, cmd.Flags().Set("sample", "2"))
		issue, err := readIssue(cmd, nil, tempStdin(t, ""))
		require.NoError(t, err)
		assert.Contains(t, issue.Description, "row 0")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := readIssue(newIssueCommand(), nil, tempStdin(t, "   \n"))
		require.Error(t, err)
	})
}

func TestPrintOutcome(t *testing.T) {
	theory := types.Theory{Description: "writer defaults to Arial", Odds: 0.4}
	solved := &types.Outcome{
		InvestigationID: "0123456789abcdef",
		Rounds:          1,
		Result: &types.ExperimentResult{
			Experiment: types.ExperimentDesign{Description: "grep the writer", Command: "grep -rn Arial src", Theory: theory},
			Verdict:    types.VerdictConfirmed,
			Summary:    "Arial is hard-coded in the writer",
		},
	}
	var buf bytes.Buffer
	printOutcome(&buf, solved)
	out := buf.String()
	assert.Contains(t, out, "Theory confirmed after 1 round")
	assert.Contains(t, out, "writer defaults to Arial")
	assert.Contains(t, out, "$ grep -rn Arial src")
	assert.Contains(t, out, "sleuth show 01234567")

	failed := &types.Outcome{
		InvestigationID: "abc",
		Rounds:          3,
		Failure: &types.Failure{
			Summary: "Failed to debug issue.\n\nnothing found",
			LabLog:  []types.ExperimentResult{{}},
		},
	}
	buf.Reset()
	printOutcome(&buf, failed)
	out = buf.String()
	assert.Contains(t, out, "No theory confirmed in 3 rounds (1 experiment)")
	assert.Contains(t, out, "  nothing found")
}

func TestResolveInvestigation(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewStorage(ctx, &storage.Config{Path: ":memory:"})
	require.NoError(t, err)
	defer s.Close()

	now := time.Now()
	for _, id := range []string{"aaaa1111", "aaaa2222", "bbbb3333"} {
		require.NoError(t, s.CreateInvestigation(ctx, &types.Investigation{
			ID: id, Issue: "issue " + id, Status: types.InvestigationRunning, StartedAt: now,
		}))
	}

	inv, err := resolveInvestigation(ctx, s, "aaaa2222")
	require.NoError(t, err)
	assert.Equal(t, "aaaa2222", inv.ID)

	inv, err = resolveInvestigation(ctx, s, "bbbb")
	require.NoError(t, err)
	assert.Equal(t, "bbbb3333", inv.ID)

	_, err = resolveInvestigation(ctx, s, "aaaa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = resolveInvestigation(ctx, s, "cccc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = resolveInvestigation(ctx, s, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID is required")
}

func TestExtractEventMetadata(t *testing.T) {
	probe, err := events.NewProbeExecutedEvent("inv", events.SeverityWarning, "probe timed out", events.ProbeExecutedData{
		Command:  "sleep 100",
		ExitCode: -1,
		TimedOut: true,
		Duration: 2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "timed out | 2.0s | sleep 100", extractEventMetadata(probe))

	costEvent, err := events.NewAICostEvent("inv", "theories", events.AICostData{
		Operation: "theories", InputTokens: 1200, OutputTokens: 300, Cost: 0.0081,
	})
	require.NoError(t, err)
	assert.Equal(t, "theories | 1.2K in / 300 out | $0.0081", extractEventMetadata(costEvent))

	var buf bytes.Buffer
	displayEvent(&buf, probe)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "probe_executed: probe timed out")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "12,345,678", formatNumber(12345678))
	assert.Equal(t, "-1,500", formatNumber(-1500))

	assert.Equal(t, "950", formatTokens(950))
	assert.Equal(t, "1.5K", formatTokens(1500))
	assert.Equal(t, "2.50M", formatTokens(2_500_000))

	assert.Equal(t, "hello", truncateString("hello", 10))
	assert.Equal(t, "hel...", truncateString("hello world", 6))
	assert.Equal(t, "...", truncateString("hello", 2))

	assert.Equal(t, "a | c", joinFields([]string{"a", "", "c"}))
	assert.Equal(t, "1 round", pluralize(1, "round"))
	assert.Equal(t, "0 rounds", pluralize(0, "round"))
}
