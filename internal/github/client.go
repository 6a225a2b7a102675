// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/prlink/internal/config"
	"github.com/danielolaszy/prlink/internal/logging"
	"github.com/danielolaszy/prlink/pkg/models"
)

const defaultAPIURL = "https://api.github.com/"

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// NewClient creates a GitHub API client from configuration. It authenticates
// either as a GitHub App installation or with a static token, and bounds
// every request by timeout.
func NewClient(cfg config.GitHubConfig, timeout time.Duration) (*Client, error) {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = apiURLForDomain(cfg.Domain)
	}

	var httpClient *http.Client
	if cfg.UsesApp() {
		key, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading github app private key: %w", err)
		}
		itr, err := ghinstallation.New(http.DefaultTransport, cfg.AppID, cfg.InstallationID, key)
		if err != nil {
			return nil, fmt.Errorf("creating github app transport: %w", err)
		}
		itr.BaseURL = strings.TrimSuffix(apiURL, "/")
		httpClient = &http.Client{Transport: itr, Timeout: timeout}

		logging.Info("github configuration",
			"api_url", apiURL,
			"auth", "app",
			"app_id", cfg.AppID,
			"installation_id", cfg.InstallationID)
	} else {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = timeout

		logging.Info("github configuration",
			"api_url", apiURL,
			"auth", "token",
			"token", logging.MaskSensitive(cfg.Token))
	}

	return newClientFromHTTP(httpClient, apiURL)
}

// newClientFromHTTP wraps httpClient in a go-github client rooted at apiURL.
func newClientFromHTTP(httpClient *http.Client, apiURL string) (*Client, error) {
	client := github.NewClient(httpClient)

	if apiURL != defaultAPIURL {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}

		client.BaseURL = parsedURL

		// For GitHub Enterprise, set the upload URL to the same endpoint
		client.UploadURL = parsedURL
	}

	return &Client{client: client}, nil
}

// apiURLForDomain returns the REST API root for a GitHub domain. Enterprise
// servers serve the API under /api/v3/.
func apiURLForDomain(domain string) string {
	if domain == "" || domain == "github.com" {
		return defaultAPIURL
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// WebURL returns the browser URL root for a GitHub domain.
func WebURL(domain string) string {
	if domain == "" {
		domain = "github.com"
	}
	return "https://" + domain
}

// GetPullRequestText reads the title and description of a pull request.
func (c *Client) GetPullRequestText(ctx context.Context, pr models.PRContext) (models.PullRequestText, error) {
	logging.Debug("fetching pull request", "repository", pr.Repository(), "pr", pr.Number)

	pull, resp, err := c.client.PullRequests.Get(ctx, pr.Owner, pr.Repo, pr.Number)
	if err != nil {
		return models.PullRequestText{}, protocolError("get pull request", resp, err)
	}

	return models.PullRequestText{
		Title:       pull.GetTitle(),
		Description: pull.GetBody(),
	}, nil
}

// CreateComment appends a comment to the pull request's conversation.
func (c *Client) CreateComment(ctx context.Context, pr models.PRContext, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}

	_, resp, err := c.client.Issues.CreateComment(ctx, pr.Owner, pr.Repo, pr.Number, comment)
	if err != nil {
		logging.Error("error commenting on pull request", "repository", pr.Repository(), "pr", pr.Number, "error", err)
		return protocolError("create comment", resp, err)
	}

	logging.Debug("commented on pull request", "repository", pr.Repository(), "pr", pr.Number)
	return nil
}

// UpdatePullRequestBody replaces the pull request's description.
func (c *Client) UpdatePullRequestBody(ctx context.Context, pr models.PRContext, body string) error {
	update := &github.PullRequest{Body: github.Ptr(body)}

	_, resp, err := c.client.PullRequests.Edit(ctx, pr.Owner, pr.Repo, pr.Number, update)
	if err != nil {
		logging.Error("error updating pull request body", "repository", pr.Repository(), "pr", pr.Number, "error", err)
		return protocolError("update pull request", resp, err)
	}

	return nil
}

// AddLabels adds one or more labels to the pull request. If the labels don't
// exist in the repository, GitHub will automatically create them.
func (c *Client) AddLabels(ctx context.Context, pr models.PRContext, labels ...string) error {
	logging.Debug("adding labels", "labels", labels, "pr", pr.Number)

	_, resp, err := c.client.Issues.AddLabelsToIssue(ctx, pr.Owner, pr.Repo, pr.Number, labels)
	if err != nil {
		logging.Error("error adding labels to pull request", "repository", pr.Repository(), "pr", pr.Number, "error", err)
		return protocolError("add labels", resp, err)
	}

	logging.Debug("successfully added labels", "labels", labels, "repository", pr.Repository(), "pr", pr.Number)
	return nil
}

func protocolError(op string, resp *github.Response, err error) error {
	perr := &models.PlatformProtocolError{Op: op, Err: err}
	if resp != nil && resp.Response != nil {
		perr.StatusCode = resp.StatusCode
	}
	return perr
}
