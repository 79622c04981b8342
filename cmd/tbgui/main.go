// tbgui - run TB-Profiler on the lab cluster and collect its reports.
package main

import (
	"os"

	"github.com/tbgui/tbgui/internal/cli"
	"github.com/tbgui/tbgui/internal/version"
)

// Version information, overridden by ldflags in release builds.
var (
	Version   = "v0.4.0"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
