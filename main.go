// tbgui - run TB-Profiler on the lab cluster and collect its reports.
//
// This is the module root entry point so `go install github.com/tbgui/tbgui@latest`
// yields a working binary. cmd/tbgui is the release build target.
package main

import (
	"os"

	"github.com/tbgui/tbgui/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
