package main

import (
	"os"

	"github.com/temirov/nixpatch/cmd/cli"
)

// main executes the nixpatch command-line application.
func main() {
	os.Exit(cli.ExitCode(cli.Execute(), os.Stderr))
}
