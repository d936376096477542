// Package version reports build information for nak.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time via -ldflags "-X github.com/rzbill/nak/pkg/version.Version=...".
var (
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Resolved returns Version, or the module version recorded by `go install`
// when no version was linked in.
func Resolved() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// Info returns a one-line description of the binary.
func Info() string {
	commitID := Commit
	if len(commitID) > 8 {
		commitID = commitID[:8]
	}

	return fmt.Sprintf("nak %s (%s) - %s %s/%s %s",
		Resolved(),
		commitID,
		BuildTime,
		runtime.GOOS,
		runtime.GOARCH,
		runtime.Version(),
	)
}
