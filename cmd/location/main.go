// ABOUTME: Entry point for the location CLI
// ABOUTME: Runs the root command and maps failures to exit codes

package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
