// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

// Set at build time, e.g.
//
//	go build -ldflags "-X github.com/Thermoquad/rootline/internal/version.Version=v0.2.0"
var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// String returns a one-line version summary
func String() string {
	return fmt.Sprintf("rootline %s (%s, built %s)", Version, GitSHA, BuildTime)
}
