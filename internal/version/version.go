// Package version carries build metadata injected at link time via -ldflags.
package version

import "runtime"

var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2026-08-26T18:42:00Z
	GoVersion = runtime.Version() // go version
)
