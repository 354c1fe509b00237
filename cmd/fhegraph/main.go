// Command fhegraph compiles circuit descriptions into FHE program graphs,
// encodes plaintexts and inspects stored programs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fhegraph/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fhegraph: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
