package main

// Main entry point of the application
// Executes Cobra commands and reports errors

import (
	"fmt"
	"os"

	"usage-report-bot/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
