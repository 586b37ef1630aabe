package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/sleuth/internal/lab"
	"github.com/steveyegge/sleuth/internal/types"
)

// readIssue resolves the bug report from --sample, --file, args or stdin.
func readIssue(cmd *cobra.Command, args []string, stdin *os.File) (types.Issue, error) {
	sample, _ := cmd.Flags().GetInt("sample")
	file, _ := cmd.Flags().GetString("file")

	var text string
	switch {
	case sample != 0:
		s, err := lab.SampleByIndex(sample)
		if err != nil {
			return types.Issue{}, err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Investigating sample %d: %s\n", sample, s.Title())
		return s.Issue(), nil
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return types.Issue{}, fmt.Errorf("reading issue from stdin: %w", err)
		}
		text = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return types.Issue{}, fmt.Errorf("reading issue file: %w", err)
		}
		text = string(data)
	case len(args) > 0:
		text = strings.Join(args, " ")
	case isTerminal(stdin):
		var err error
		if text, err = promptIssue(stdin); err != nil {
			return types.Issue{}, err
		}
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return types.Issue{}, fmt.Errorf("reading issue from stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return types.Issue{}, errors.New("issue is empty")
	}
	return types.Issue{Description: text}, nil
}

func isTerminal(f *os.File) bool {
	return readline.IsTerminal(int(f.Fd()))
}

// promptIssue reads a multi-line report interactively. An empty line after
// some text, or Ctrl-D, ends the report.
func promptIssue(stdin *os.File) (string, error) {
	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cyan("issue> "),
		InterruptPrompt: "^C",
		Stdin:           stdin,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Describe the bug. End with an empty line or Ctrl-D.")

	var lines []string
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			return "", errors.New("interrupted")
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == "" && len(lines) > 0 {
			break
		}
		lines = append(lines, line)
		rl.SetPrompt(cyan("  ...> "))
	}
	return strings.Join(lines, "\n"), nil
}
