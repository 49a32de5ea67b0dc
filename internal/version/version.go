// Package version contains build version information.
package version

import "fmt"

// Version is the current application version.
// Set at build time via ldflags.
var Version = "0.0.0"

// GitCommit is the git commit hash.
// This value is set at build time via ldflags.
var GitCommit = "unknown"

// BuildDate is the build date.
// This value is set at build time via ldflags.
var BuildDate = "unknown"

// UserAgent returns the User-Agent header sent to status pages.
func UserAgent() string {
	return "ReliabilityReporter/" + Version
}

// String returns a one-line build description.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
