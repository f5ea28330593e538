// Package main is the entry point for the pagetiming CLI.
package main

import (
	"fmt"
	"os"

	"github.com/perfbreak/go-pagetiming/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
