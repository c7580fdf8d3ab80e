// Package main provides the entry point for the toolscope CLI.
package main

import (
	"fmt"
	"os"

	"github.com/toolscope-io/toolscope/cmd/toolscope/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
