package github

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielolaszy/prlink/internal/config"
	"github.com/danielolaszy/prlink/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pullRequestPayload = `{
  "action": "opened",
  "number": 42,
  "pull_request": {"number": 42, "title": "Fix login", "body": "Fixes PROJ-1"},
  "repository": {"name": "app", "owner": {"login": "octo"}},
  "sender": {"login": "mona"}
}`

func writeEvent(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))
	return path
}

func TestLoadPRContext(t *testing.T) {
	eventPath := writeEvent(t, pullRequestPayload)

	tests := []struct {
		name     string
		cfg      config.ContextConfig
		expected models.PRContext
		wantErr  bool
	}{
		{
			name:     "From event payload",
			cfg:      config.ContextConfig{EventPath: eventPath},
			expected: models.PRContext{Owner: "octo", Repo: "app", Number: 42, Actor: "mona"},
		},
		{
			name: "Explicit values override the payload",
			cfg: config.ContextConfig{
				EventPath:  eventPath,
				Repository: "other/repo",
				PRNumber:   7,
				Actor:      "hubot",
			},
			expected: models.PRContext{Owner: "other", Repo: "repo", Number: 7, Actor: "hubot"},
		},
		{
			name:     "Without payload",
			cfg:      config.ContextConfig{Repository: "octo/app", PRNumber: 3, Actor: "mona"},
			expected: models.PRContext{Owner: "octo", Repo: "app", Number: 3, Actor: "mona"},
		},
		{
			name:    "Missing number",
			cfg:     config.ContextConfig{Repository: "octo/app"},
			wantErr: true,
		},
		{
			name:    "Invalid repository format",
			cfg:     config.ContextConfig{Repository: "invalid-repo-format", PRNumber: 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr, err := LoadPRContext(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, models.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pr)
		})
	}
}

func TestLoadPRContextMissingFile(t *testing.T) {
	_, err := LoadPRContext(config.ContextConfig{EventPath: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
}

func TestLoadPRContextInvalidPayload(t *testing.T) {
	_, err := LoadPRContext(config.ContextConfig{EventPath: writeEvent(t, "{not json")})
	require.Error(t, err)
}

func TestParseRepository(t *testing.T) {
	owner, repo, err := parseRepository("octo/app")
	require.NoError(t, err)
	assert.Equal(t, "octo", owner)
	assert.Equal(t, "app", repo)

	_, _, err = parseRepository("invalid-repo-format")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid repository format")
}
