// Package main is the entry point for the repocli CLI tool.
package main

import (
	"errors"
	"os"

	"github.com/docportal/repocli/internal/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	os.Exit(1)
}
