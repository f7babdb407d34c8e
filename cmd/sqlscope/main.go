// Package main is the entry point for the sqlscope binary.
package main

import (
	"os"

	"sqlscope/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
