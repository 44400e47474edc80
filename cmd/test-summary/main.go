// Command test-summary publishes workflow test results into the README.
package main

import (
	"os"

	"github.com/temirov/nixpatch/cmd/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.NewTestSummaryApplication().Execute(), os.Stderr))
}
