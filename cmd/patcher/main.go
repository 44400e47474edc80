// Command patcher regenerates the patched nixpkgs branch.
package main

import (
	"os"

	"github.com/temirov/nixpatch/cmd/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.NewPatcherApplication().Execute(), os.Stderr))
}
