// Package main is the entry point for the embedm CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/embedm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
