// Package buildinfo carries the version metadata stamped into the fieldbooks
// binary at build time via -ldflags -X.
package buildinfo

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// Commit is the short git hash the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the version line shown by --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
