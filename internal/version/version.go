// Package version provides build-time metadata for the adexit binary.
// Version, GitCommit, and BuildDate are injected at compile time via -ldflags.
package version

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// Build-time values injected via -ldflags.
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// ErrDevBuild is returned when a version constraint is checked against a
// build without a release version.
var ErrDevBuild = errors.New("development build has no release version")

// Info holds the build metadata for the binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	return Info{
		Version:   version,
		GitCommit: shortCommit(gitCommit),
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable single-line version string.
func (i Info) String() string {
	return fmt.Sprintf("adexit %s (commit: %s, built: %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// WriteText writes the single-line form.
func (i Info) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, i.String())
	return err
}

// Satisfies reports whether the build version meets constraint, e.g.
// ">= 1.2, < 2".
func (i Info) Satisfies(constraint string) (bool, error) {
	if i.Version == "dev" {
		return false, ErrDevBuild
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}

	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", i.Version, err)
	}

	return c.Check(v), nil
}

// shortCommit truncates a commit SHA to 7 characters.
func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}
