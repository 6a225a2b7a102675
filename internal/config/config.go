// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/danielolaszy/prlink/pkg/models"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Tracker kinds.
const (
	TrackerYouTrack = "youtrack"
	TrackerJira     = "jira"
)

// Scan sources for ticket extraction.
const (
	SourceDescription = "description"
	SourceTitle       = "title"
	SourceBoth        = "both"
)

// Defaults applied when the corresponding setting is absent.
const (
	DefaultHTTPTimeout = 30 * time.Second
	DefaultConcurrency = 4
)

// Config holds all configuration parameters for a run. It is not modified
// after LoadConfig returns.
type Config struct {
	GitHub  GitHubConfig
	Tracker TrackerConfig
	Context ContextConfig
	Policy  PolicyConfig

	// Pattern is the regular expression source used to find ticket IDs.
	Pattern string

	HTTPTimeout time.Duration
	DryRun      bool

	// OutputPath is the GitHub Actions output file (GITHUB_OUTPUT).
	OutputPath string
	SentryDSN  string
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
	APIURL string

	// GitHub App installation auth, used instead of Token when AppID is set.
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
}

// UsesApp reports whether GitHub App installation auth is configured.
func (c GitHubConfig) UsesApp() bool {
	return c.AppID != 0
}

// TrackerConfig holds issue tracker configuration.
type TrackerConfig struct {
	Kind     string
	URL      string
	Token    string
	Username string
}

// ContextConfig locates the pull request the run operates on.
type ContextConfig struct {
	EventPath  string
	Repository string
	PRNumber   int
	Actor      string
}

// PolicyConfig holds the behavioral choices of a run.
type PolicyConfig struct {
	Source      string
	Deduplicate bool
	FailFast    bool
	Concurrency int
}

// envBindings maps configuration keys to environment variables. When several
// variables are listed the first one that is set wins; INPUT_* variables are
// how GitHub Actions passes action inputs.
var envBindings = map[string][]string{
	"github.token":            {"INPUT_GITHUBTOKEN", "GITHUB_TOKEN"},
	"github.domain":           {"GITHUB_DOMAIN"},
	"github.api_url":          {"GITHUB_API_URL"},
	"github.app_id":           {"GITHUB_APP_ID"},
	"github.installation_id":  {"GITHUB_INSTALLATION_ID"},
	"github.private_key_path": {"GITHUB_APP_PRIVATE_KEY_PATH"},
	"tracker.kind":            {"INPUT_TRACKERKIND", "TRACKER_KIND"},
	"tracker.url":             {"INPUT_YOUTRACKURL", "INPUT_TRACKERURL", "TRACKER_URL"},
	"tracker.token":           {"INPUT_YOUTRACKTOKEN", "INPUT_TRACKERTOKEN", "TRACKER_TOKEN"},
	"tracker.username":        {"TRACKER_USERNAME"},
	"pattern":                 {"INPUT_ISSUEREGEX", "TICKET_PATTERN"},
	"context.event_path":      {"GITHUB_EVENT_PATH"},
	"context.repository":      {"GITHUB_REPOSITORY"},
	"context.pr_number":       {"PR_NUMBER"},
	"context.actor":           {"GITHUB_ACTOR"},
	"policy.source":           {"INPUT_SCANSOURCE", "SCAN_SOURCE"},
	"policy.deduplicate":      {"INPUT_DEDUPLICATE", "DEDUPLICATE"},
	"policy.fail_fast":        {"INPUT_FAILFAST", "FAIL_FAST"},
	"policy.concurrency":      {"CONCURRENCY"},
	"http_timeout":            {"HTTP_TIMEOUT"},
	"dry_run":                 {"INPUT_DRYRUN", "DRY_RUN"},
	"output_path":             {"GITHUB_OUTPUT"},
	"sentry_dsn":              {"SENTRY_DSN"},
}

// flagBindings maps command-line flag names to configuration keys.
var flagBindings = map[string]string{
	"pattern":      "pattern",
	"tracker-kind": "tracker.kind",
	"tracker-url":  "tracker.url",
	"repository":   "context.repository",
	"pr":           "context.pr_number",
	"actor":        "context.actor",
	"event-path":   "context.event_path",
	"source":       "policy.source",
	"dedupe":       "policy.deduplicate",
	"fail-fast":    "policy.fail_fast",
	"concurrency":  "policy.concurrency",
	"timeout":      "http_timeout",
	"dry-run":      "dry_run",
}

// LoadConfig loads configuration from command-line flags and environment
// variables, flags taking precedence. flags may be nil.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("tracker.kind", TrackerYouTrack)
	v.SetDefault("policy.source", SourceDescription)
	v.SetDefault("policy.deduplicate", true)
	v.SetDefault("policy.concurrency", DefaultConcurrency)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	config := &Config{
		GitHub: GitHubConfig{
			Token:          v.GetString("github.token"),
			Domain:         v.GetString("github.domain"),
			APIURL:         v.GetString("github.api_url"),
			AppID:          v.GetInt64("github.app_id"),
			InstallationID: v.GetInt64("github.installation_id"),
			PrivateKeyPath: v.GetString("github.private_key_path"),
		},
		Tracker: TrackerConfig{
			Kind:     strings.ToLower(v.GetString("tracker.kind")),
			URL:      v.GetString("tracker.url"),
			Token:    v.GetString("tracker.token"),
			Username: v.GetString("tracker.username"),
		},
		Context: ContextConfig{
			EventPath:  v.GetString("context.event_path"),
			Repository: v.GetString("context.repository"),
			PRNumber:   v.GetInt("context.pr_number"),
			Actor:      v.GetString("context.actor"),
		},
		Policy: PolicyConfig{
			Source:      strings.ToLower(v.GetString("policy.source")),
			Deduplicate: v.GetBool("policy.deduplicate"),
			FailFast:    v.GetBool("policy.fail_fast"),
			Concurrency: v.GetInt("policy.concurrency"),
		},
		Pattern:     v.GetString("pattern"),
		HTTPTimeout: v.GetDuration("http_timeout"),
		DryRun:      v.GetBool("dry_run"),
		OutputPath:  v.GetString("output_path"),
		SentryDSN:   v.GetString("sentry_dsn"),
	}

	if config.GitHub.Domain == "" {
		config.GitHub.Domain = "github.com"
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = DefaultHTTPTimeout
	}
	if config.Policy.Concurrency <= 0 {
		config.Policy.Concurrency = DefaultConcurrency
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig ensures that all required configuration values are provided.
// Every missing value is reported at once.
func validateConfig(config *Config) error {
	var missingVars []string

	if config.Pattern == "" {
		missingVars = append(missingVars, "TICKET_PATTERN (issueRegex)")
	}
	if config.Tracker.URL == "" {
		missingVars = append(missingVars, "TRACKER_URL (youtrackUrl)")
	}
	if config.Tracker.Token == "" {
		missingVars = append(missingVars, "TRACKER_TOKEN (youtrackToken)")
	}

	// GitHub validation
	if config.GitHub.UsesApp() {
		if config.GitHub.InstallationID == 0 {
			missingVars = append(missingVars, "GITHUB_INSTALLATION_ID")
		}
		if config.GitHub.PrivateKeyPath == "" {
			missingVars = append(missingVars, "GITHUB_APP_PRIVATE_KEY_PATH")
		}
	} else if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN (githubToken)")
	}

	if len(missingVars) > 0 {
		return models.NewConfigurationError(missingVars...)
	}

	switch config.Tracker.Kind {
	case TrackerYouTrack, TrackerJira:
	default:
		return &models.ConfigurationError{Err: fmt.Errorf("unknown tracker kind %q", config.Tracker.Kind)}
	}

	switch config.Policy.Source {
	case SourceDescription, SourceTitle, SourceBoth:
	default:
		return &models.ConfigurationError{Err: fmt.Errorf("unknown scan source %q", config.Policy.Source)}
	}

	return nil
}

// ExtractConfig holds the settings of an offline extraction.
type ExtractConfig struct {
	Pattern     string
	TrackerURL  string
	TrackerKind string
}

// LoadExtractConfig loads the subset of configuration needed to extract
// tickets without contacting any service. Only the pattern is required.
func LoadExtractConfig(flags *pflag.FlagSet) (*ExtractConfig, error) {
	v := viper.New()
	v.SetDefault("tracker.kind", TrackerYouTrack)

	for _, key := range []string{"pattern", "tracker.url", "tracker.kind"} {
		if err := v.BindEnv(append([]string{key}, envBindings[key]...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	if flags != nil {
		for _, name := range []string{"pattern", "tracker-url", "tracker-kind"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(flagBindings[name], f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	config := &ExtractConfig{
		Pattern:     v.GetString("pattern"),
		TrackerURL:  v.GetString("tracker.url"),
		TrackerKind: strings.ToLower(v.GetString("tracker.kind")),
	}
	if config.Pattern == "" {
		return nil, models.NewConfigurationError("TICKET_PATTERN (issueRegex)")
	}
	return config, nil
}
