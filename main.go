// Package main is the entry point for the prlink CLI application.
package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/danielolaszy/prlink/cmd"
	"github.com/danielolaszy/prlink/internal/logging"
)

// main is the entry point of the application.
// It executes the root command and reports every error the run collected.
func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logging.Debug("starting prlink", "version", cmd.Version, "log_level", logLevel)

	if err := cmd.Execute(); err != nil {
		for _, e := range multierr.Errors(err) {
			logging.Error("command execution failed", "error", e)
			fmt.Fprintln(os.Stderr, "Error:", e)
		}
		logging.Flush(2 * time.Second)
		os.Exit(1)
	}
	logging.Flush(2 * time.Second)
}
