// Package version reports and checks the dataql build version.
package version

import (
	"fmt"
	"runtime"

	goversion "github.com/hashicorp/go-version"
)

var (
	// Version is the version of the CLI
	Version = "0.1.0"
	// BuildDate is the build date
	BuildDate = "unknown"
	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// Info holds version information
type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns version information
func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Semver parses the version. Builds stamped with a non-semantic version fail.
func (i Info) Semver() (*goversion.Version, error) {
	v, err := goversion.NewSemver(i.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid version format: %w", err)
	}
	return v, nil
}

// Satisfies reports whether the version meets a constraint such as ">= 0.1, < 1.0".
func (i Info) Satisfies(constraint string) (bool, error) {
	v, err := i.Semver()
	if err != nil {
		return false, err
	}
	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint: %w", err)
	}
	return c.Check(v), nil
}

// IsPrerelease reports whether this is a development build.
func (i Info) IsPrerelease() bool {
	v, err := i.Semver()
	return err == nil && (v.Prerelease() != "" || v.Segments()[0] == 0)
}

// String returns a one-line version string
func (i Info) String() string {
	return fmt.Sprintf("dataql version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}
