package exitconfig

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ChangeKind classifies a difference between two configs.
type ChangeKind string

// Change kinds.
const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// Change is a single target- or filter-level difference.
type Change struct {
	Kind    ChangeKind `json:"kind" yaml:"kind"`
	Section string     `json:"section" yaml:"section"` // "target" or "filter"
	Name    string     `json:"name" yaml:"name"`
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s %q", c.Kind, c.Section, c.Name)
}

// DiffResult holds the structural changes and a unified text diff of the
// canonical documents.
type DiffResult struct {
	Changes        []Change `json:"changes" yaml:"changes"`
	Unified        string   `json:"unified" yaml:"unified"`
	HasDifferences bool     `json:"hasDifferences" yaml:"hasDifferences"`
	OldLabel       string   `json:"oldLabel" yaml:"oldLabel"`
	NewLabel       string   `json:"newLabel" yaml:"newLabel"`
}

// DiffOptions configures diff computation.
type DiffOptions struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultDiffOptions returns sensible default diff options.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		OldLabel: "old",
		NewLabel: "new",
		Context:  3,
	}
}

// Diff compares two validated configs.
func Diff(oldCfg, newCfg *ExitConfig, opts DiffOptions) (*DiffResult, error) {
	var changes []Change

	changes = append(changes, diffSection("filter", oldCfg.filters, newCfg.filters, func(a, b any) bool { return a == b })...)
	changes = append(changes, diffSection("target", oldCfg.targets, newCfg.targets, func(a, b any) bool { return reflect.DeepEqual(a, b) })...)

	oldDoc, err := oldCfg.Canonical()
	if err != nil {
		return nil, err
	}

	newDoc, err := newCfg.Canonical()
	if err != nil {
		return nil, err
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldDoc),
		B:        difflib.SplitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	return &DiffResult{
		Changes:        changes,
		Unified:        unified,
		HasDifferences: unified != "",
		OldLabel:       opts.OldLabel,
		NewLabel:       opts.NewLabel,
	}, nil
}

func diffSection[V any](section string, oldM, newM map[string]V, equal func(a, b any) bool) []Change {
	var changes []Change

	for _, name := range sortedKeys(oldM) {
		nv, ok := newM[name]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: ChangeRemoved, Section: section, Name: name})
		case !equal(oldM[name], nv):
			changes = append(changes, Change{Kind: ChangeModified, Section: section, Name: name})
		}
	}

	for _, name := range sortedKeys(newM) {
		if _, ok := oldM[name]; !ok {
			changes = append(changes, Change{Kind: ChangeAdded, Section: section, Name: name})
		}
	}

	return changes
}

// WriteDiff writes the change summary followed by the unified diff, with
// optional ANSI colors.
func WriteDiff(w io.Writer, result *DiffResult, color bool) {
	if !result.HasDifferences {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	for _, c := range result.Changes {
		_, _ = fmt.Fprintf(w, "* %s\n", c)
	}

	if len(result.Changes) > 0 {
		_, _ = fmt.Fprintln(w)
	}

	for _, line := range strings.Split(strings.TrimSuffix(result.Unified, "\n"), "\n") {
		if color {
			writeColorLine(w, line)
		} else {
			_, _ = fmt.Fprintln(w, line)
		}
	}
}

func writeColorLine(w io.Writer, line string) {
	const (
		red   = "\033[31m"
		green = "\033[32m"
		cyan  = "\033[36m"
		bold  = "\033[1m"
		reset = "\033[0m"
	)

	var prefix string

	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		prefix = bold
	case strings.HasPrefix(line, "@@"):
		prefix = cyan
	case strings.HasPrefix(line, "-"):
		prefix = red
	case strings.HasPrefix(line, "+"):
		prefix = green
	default:
		_, _ = fmt.Fprintln(w, line)
		return
	}

	_, _ = fmt.Fprintf(w, "%s%s%s\n", prefix, line, reset)
}
