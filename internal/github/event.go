package github

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/danielolaszy/prlink/internal/config"
	"github.com/danielolaszy/prlink/pkg/models"
)

// LoadPRContext resolves the pull request a run operates on. The Actions
// event payload is read first; explicit repository, number and actor values
// override what the payload says.
func LoadPRContext(cfg config.ContextConfig) (models.PRContext, error) {
	var pr models.PRContext

	if cfg.EventPath != "" {
		payload, err := os.ReadFile(cfg.EventPath)
		if err != nil {
			return pr, fmt.Errorf("reading event payload: %w", err)
		}
		pr, err = parsePullRequestEvent(payload)
		if err != nil {
			return pr, err
		}
	}

	if cfg.Repository != "" {
		owner, repo, err := parseRepository(cfg.Repository)
		if err != nil {
			return pr, &models.ConfigurationError{Err: err}
		}
		pr.Owner, pr.Repo = owner, repo
	}
	if cfg.PRNumber != 0 {
		pr.Number = cfg.PRNumber
	}
	if cfg.Actor != "" {
		pr.Actor = cfg.Actor
	}

	var missing []string
	if pr.Owner == "" || pr.Repo == "" {
		missing = append(missing, "GITHUB_REPOSITORY")
	}
	if pr.Number == 0 {
		missing = append(missing, "pull request number (GITHUB_EVENT_PATH or --pr)")
	}
	if len(missing) > 0 {
		return pr, models.NewConfigurationError(missing...)
	}

	return pr, nil
}

// parsePullRequestEvent extracts the pull request context from a
// pull_request or pull_request_target payload; both share one schema.
func parsePullRequestEvent(payload []byte) (models.PRContext, error) {
	parsed, err := github.ParseWebHook("pull_request", payload)
	if err != nil {
		return models.PRContext{}, fmt.Errorf("parsing event payload: %w", err)
	}
	event, ok := parsed.(*github.PullRequestEvent)
	if !ok {
		return models.PRContext{}, fmt.Errorf("unexpected event payload type %T", parsed)
	}

	number := event.GetNumber()
	if number == 0 {
		number = event.GetPullRequest().GetNumber()
	}

	return models.PRContext{
		Owner:  event.GetRepo().GetOwner().GetLogin(),
		Repo:   event.GetRepo().GetName(),
		Number: number,
		Actor:  event.GetSender().GetLogin(),
	}, nil
}

// parseRepository splits an "owner/repo" string.
func parseRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}
