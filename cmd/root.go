// Package cmd provides the command-line interface for prlink.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "prlink",
	Short: "prlink links pull requests to issue tracker tickets",
	Long: `prlink is a CLI tool that connects GitHub pull requests with the tickets they
mention. It finds ticket IDs in the pull request text, cross-links the pull request
and the tickets, moves open tickets to "PR Open" and labels the pull request with
the ticket type. It is designed to run as a GitHub Actions step.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().String("pattern", "", "Regular expression matching ticket IDs (e.g. 'PROJ-\\d+')")
	rootCmd.PersistentFlags().String("tracker-url", "", "Issue tracker base URL")
	rootCmd.PersistentFlags().String("tracker-kind", "", "Issue tracker type: youtrack or jira")
}
