// Package buildinfo holds version metadata stamped in at link time via
// -ldflags, for the CLI's --version output.
package buildinfo

import "fmt"

// Version, Commit and Date are overridden at build time, e.g.:
//
//	go build -ldflags "-X github.com/nordic-semi/h5link/internal/buildinfo.Version=1.2.3"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the three fields for a --version flag.
func String() string {
	return fmt.Sprintf("h5linkctl %s (commit %s, built %s)", Version, Commit, Date)
}
