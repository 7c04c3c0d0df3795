// Package version exposes build metadata injected with -ldflags.
package version

import "fmt"

var (
	Version = "2020.4.0-dev"
	Commit  = "none"
	Date    = "unknown"
)

// String is the version line printed in the argument summary and written
// into the IR meta data.
func String() string {
	if Commit == "none" {
		return Version
	}
	return fmt.Sprintf("%s-%s", Version, Commit)
}
