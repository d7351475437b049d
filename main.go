// Package main is the entry point for the sharkpipe CLI.
package main

import (
	"fmt"
	"os"

	"sharkpipe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
