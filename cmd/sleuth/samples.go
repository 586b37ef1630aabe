package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/sleuth/internal/lab"
)

var samplesCmd = &cobra.Command{
	Use:   "samples [n]",
	Short: "List bundled sample issues",
	Long: `List the bundled sample bug reports. With a number, print that sample in
full. Investigate one with 'sleuth debug --sample N'.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{noStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		if len(args) == 1 {
			var n int
			if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
				return fmt.Errorf("sample number must be an integer: %q", args[0])
			}
			s, err := lab.SampleByIndex(n)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\n\n%s\n", color.New(color.FgCyan, color.Bold).Sprint(s.Project), s.Text)
			return nil
		}

		green := color.New(color.FgGreen).SprintFunc()
		for i, s := range lab.Samples() {
			fmt.Fprintf(w, "%s %-16s %s\n", green(fmt.Sprintf("%2d.", i+1)), s.Project, truncateString(s.Title(), 70))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(samplesCmd)
}
