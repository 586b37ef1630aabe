package lab

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/sleuth/internal/scheduler"
	"github.com/steveyegge/sleuth/internal/types"
)

// FixedTheories answers every brainstorm with the same list.
type FixedTheories struct {
	theories []types.Theory
}

var _ scheduler.TheoryGenerator = (*FixedTheories)(nil)

// theoriesFile is the YAML layout of a theories file:
//
//	theories:
//	  - description: writer defaults to Arial
//	    odds: 0.6
type theoriesFile struct {
	Theories []struct {
		Description string  `yaml:"description"`
		Odds        float64 `yaml:"odds"`
	} `yaml:"theories"`
}

// NewFixedTheories returns a generator for the given theories.
func NewFixedTheories(theories ...types.Theory) *FixedTheories {
	return &FixedTheories{theories: append([]types.Theory(nil), theories...)}
}

// LoadTheories reads a YAML theories file.
func LoadTheories(path string) (*FixedTheories, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theories file: %w", err)
	}
	return ParseTheories(data)
}

// ParseTheories decodes a YAML theories document. Every theory needs a
// description and odds in [0, 1].
func ParseTheories(data []byte) (*FixedTheories, error) {
	var file theoriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse theories file: %w", err)
	}

	theories := make([]types.Theory, 0, len(file.Theories))
	for i, t := range file.Theories {
		desc := strings.TrimSpace(t.Description)
		if desc == "" {
			return nil, fmt.Errorf("theory %d: description is required", i+1)
		}
		if t.Odds < 0 || t.Odds > 1 {
			return nil, fmt.Errorf("theory %d: odds must be between 0 and 1 (got %.2f)", i+1, t.Odds)
		}
		theories = append(theories, types.Theory{Description: desc, Odds: t.Odds})
	}
	return &FixedTheories{theories: theories}, nil
}

// BrainstormTheories returns a copy of the fixed list.
func (f *FixedTheories) BrainstormTheories(_ context.Context, _ types.Issue) ([]types.Theory, error) {
	return append([]types.Theory(nil), f.theories...), nil
}

// Len returns the number of theories.
func (f *FixedTheories) Len() int {
	return len(f.theories)
}
