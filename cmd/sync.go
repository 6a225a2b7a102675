package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/danielolaszy/prlink/internal/config"
	"github.com/danielolaszy/prlink/internal/github"
	"github.com/danielolaszy/prlink/internal/jira"
	"github.com/danielolaszy/prlink/internal/logging"
	"github.com/danielolaszy/prlink/internal/synchronizer"
	"github.com/danielolaszy/prlink/internal/tickets"
	"github.com/danielolaszy/prlink/internal/youtrack"
)

// syncCmd links the current pull request to the tickets it mentions.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Link a pull request to the tickets it mentions",
	Long: `Link a pull request to the issue tracker tickets it mentions.

The command performs the following steps:

1. Extracts ticket IDs from the pull request description (or title)
2. Verifies every ticket exists in the tracker
3. Comments on the pull request with links to the tickets
4. Comments on every ticket with a link back to the pull request
5. Rewrites ticket IDs in the description as links
6. Moves tickets in "To Do", "To Fix" or "In Progress" to "PR Open" and
   labels the pull request with each ticket's type

Inside GitHub Actions the pull request is read from GITHUB_EVENT_PATH and the
ticket list is written to the "issues" output.

Example:
  prlink sync --pattern 'PROJ-\d+' --tracker-url https://youtrack.example.com -r owner/repo --pr 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), cmd.Flags(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringP("repository", "r", "", "GitHub repository name (e.g., 'owner/repo')")
	syncCmd.Flags().Int("pr", 0, "Pull request number")
	syncCmd.Flags().String("actor", "", "Login of the user credited in tracker comments")
	syncCmd.Flags().String("event-path", "", "Path to the GitHub event payload")
	syncCmd.Flags().String("source", "", "Text to scan for tickets: description, title or both")
	syncCmd.Flags().Bool("dedupe", true, "Process each ticket once even if mentioned repeatedly")
	syncCmd.Flags().Bool("fail-fast", false, "Stop before any write when a ticket cannot be verified")
	syncCmd.Flags().Int("concurrency", 0, "Maximum number of tickets processed in parallel")
	syncCmd.Flags().Duration("timeout", 0, "Timeout for each HTTP request")
	syncCmd.Flags().Bool("dry-run", false, "Log writes instead of performing them")
}

func runSync(ctx context.Context, flags *pflag.FlagSet, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		return err
	}

	logging.WithRunID(uuid.NewString())
	if cfg.SentryDSN != "" {
		if err := logging.EnableSentry(cfg.SentryDSN, Version); err != nil {
			logging.Warn("failed to initialize sentry", "error", err)
		}
	}

	pr, err := github.LoadPRContext(cfg.Context)
	if err != nil {
		return err
	}

	pattern, err := tickets.Compile(cfg.Pattern)
	if err != nil {
		return err
	}

	githubClient, err := github.NewClient(cfg.GitHub, cfg.HTTPTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize github client: %w", err)
	}

	tracker, err := newTracker(cfg.Tracker, cfg.HTTPTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize %s client: %w", cfg.Tracker.Kind, err)
	}

	var platform synchronizer.Platform = githubClient
	if cfg.DryRun {
		logging.Info("dry run enabled, no changes will be made")
		platform = synchronizer.NewDryRunPlatform(platform)
		tracker = synchronizer.NewDryRunTracker(tracker)
	}

	s := synchronizer.New(synchronizer.Options{
		PR:          pr,
		WebURL:      github.WebURL(cfg.GitHub.Domain),
		Pattern:     pattern,
		Source:      cfg.Policy.Source,
		Deduplicate: cfg.Policy.Deduplicate,
		FailFast:    cfg.Policy.FailFast,
		Concurrency: cfg.Policy.Concurrency,
	}, platform, tracker)

	result, runErr := s.Run(ctx)

	if len(result.Tickets) > 0 {
		if err := writeOutput(cfg.OutputPath, "issues", result.Tickets); err != nil {
			logging.Error("failed to write action output", "error", err)
			if runErr == nil {
				runErr = err
			}
		}
		fmt.Fprintln(out, strings.Join(result.Tickets, "\n"))
	}

	if runErr != nil {
		return runErr
	}

	logging.Info("synchronization complete",
		"tickets", len(result.Tickets),
		"verified", len(result.Verified))
	return nil
}

// newTracker builds the tracker client for the configured kind.
func newTracker(cfg config.TrackerConfig, timeout time.Duration) (synchronizer.Tracker, error) {
	switch cfg.Kind {
	case config.TrackerJira:
		client, err := jira.NewClient(cfg.URL, cfg.Username, cfg.Token, timeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return youtrack.NewClient(cfg.URL, cfg.Token, timeout), nil
	}
}
