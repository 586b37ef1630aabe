// Package workspace summarizes the repository under investigation so that
// prompts can refer to real files, packages and commands.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// maxEntries caps the top-level listing.
const maxEntries = 40

// Dependency is a direct requirement from go.mod.
type Dependency struct {
	Path    string
	Version string
}

// Description is what the supervisor is told about the workspace.
type Description struct {
	Dir       string
	Module    string // empty when there is no go.mod
	GoVersion string
	Requires  []Dependency
	Entries   []string // top-level files and directories, dirs suffixed with "/"
	Truncated int      // entries left out of Entries
}

// Describe inspects dir. A missing go.mod is not an error; a go.mod that
// does not parse is.
func Describe(dir string) (*Description, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", abs)
	}

	d := &Description{Dir: abs}
	if err := d.readGoMod(filepath.Join(abs, "go.mod")); err != nil {
		return nil, err
	}
	if err := d.readEntries(abs); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Description) readGoMod(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading go.mod: %w", err)
	}

	mf, err := modfile.Parse(path, data, nil)
	if err != nil {
		return fmt.Errorf("parsing go.mod: %w", err)
	}
	if mf.Module != nil {
		d.Module = mf.Module.Mod.Path
	}
	if mf.Go != nil {
		d.GoVersion = mf.Go.Version
	}
	for _, req := range mf.Require {
		if req.Indirect {
			continue
		}
		d.Requires = append(d.Requires, Dependency{Path: req.Mod.Path, Version: req.Mod.Version})
	}
	return nil
}

func (d *Description) readEntries(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("listing workspace: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		// Hidden entries (.git, .sleuth) are noise for the model.
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		d.Entries = append(d.Entries, name)
	}
	sort.Strings(d.Entries)
	if len(d.Entries) > maxEntries {
		d.Truncated = len(d.Entries) - maxEntries
		d.Entries = d.Entries[:maxEntries]
	}
	return nil
}

// String renders the description as prompt text.
func (d *Description) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Directory: %s\n", d.Dir)
	if d.Module != "" {
		fmt.Fprintf(&sb, "Go module: %s", d.Module)
		if d.GoVersion != "" {
			fmt.Fprintf(&sb, " (go %s)", d.GoVersion)
		}
		sb.WriteString("\n")
	}
	if len(d.Requires) > 0 {
		sb.WriteString("Direct dependencies:\n")
		for _, req := range d.Requires {
			fmt.Fprintf(&sb, "  %s %s\n", req.Path, req.Version)
		}
	}
	if len(d.Entries) > 0 {
		fmt.Fprintf(&sb, "Top-level entries: %s", strings.Join(d.Entries, " "))
		if d.Truncated > 0 {
			fmt.Fprintf(&sb, " (and %d more)", d.Truncated)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
