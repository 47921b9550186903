// Package main is the entry point for the specweave CLI application.
package main

import (
	"fmt"
	"os"

	"github.com/specweave/specweave/cmd"
)

// Version information, injected at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	rootCmd := cmd.NewRootCmd()
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
