package version

import (
	"fmt"
	"runtime"
	"time"
)

// Overridden at build time with -ldflags "-X".
var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()               // go version
)

// String summarises the build for startup logs.
func String() string {
	return fmt.Sprintf("arcade %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
