// Command nexus runs the storage farming telemetry store.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/nexus/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
