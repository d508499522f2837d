// Package main is the entry point for the metrix-mapping CLI.
package main

import (
	"os"

	"metrix-mapping/cmd/cli/cmd"
	"metrix-mapping/internal/errors"
)

func main() {
	os.Exit(errors.ExitCode(cmd.Execute()))
}
