package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigurationError
		expected string
	}{
		{
			name:     "Missing inputs",
			err:      NewConfigurationError("GITHUB_TOKEN", "TRACKER_URL"),
			expected: "configuration error: missing GITHUB_TOKEN, TRACKER_URL",
		},
		{
			name:     "Wrapped cause",
			err:      &ConfigurationError{Err: errors.New("invalid pattern")},
			expected: "configuration error: invalid pattern",
		},
		{
			name:     "Empty",
			err:      &ConfigurationError{},
			expected: "configuration error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.True(t, IsConfiguration(fmt.Errorf("loading: %w", tt.err)))
		})
	}

	assert.False(t, IsConfiguration(errors.New("other")))
}

func TestNoTicketFoundError(t *testing.T) {
	err := fmt.Errorf("run: %w", &NoTicketFoundError{Source: "description"})

	assert.True(t, errors.Is(err, ErrNoTicketFound))
	assert.Contains(t, err.Error(), "PR description does not contain any ticket ID")
	assert.Equal(t, "no ticket ID found", ErrNoTicketFound.Error())
}

func TestTicketNotFoundError(t *testing.T) {
	err := fmt.Errorf("checking: %w", NewTicketNotFoundError("PROJ-404"))

	assert.True(t, IsTicketNotFound(err))
	assert.False(t, IsTicketNotFound(errors.New("other")))

	var notFound *TicketNotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, "PROJ-404", notFound.ID)
	assert.Equal(t, "ticket PROJ-404 not found in tracker", notFound.Error())
}

func TestTrackerProtocolError(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name     string
		err      *TrackerProtocolError
		expected string
	}{
		{
			name:     "Status and body",
			err:      &TrackerProtocolError{Op: "post comment", ID: "PROJ-1", StatusCode: 500, Body: "boom"},
			expected: "tracker post comment PROJ-1: status 500: boom",
		},
		{
			name:     "Transport failure",
			err:      &TrackerProtocolError{Op: "check issue", ID: "PROJ-1", Err: cause},
			expected: "tracker check issue PROJ-1: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}

	assert.True(t, errors.Is(tests[1].err, cause))
}

func TestPlatformProtocolError(t *testing.T) {
	cause := errors.New("forbidden")

	err := &PlatformProtocolError{Op: "add labels", StatusCode: 403, Err: cause}
	assert.Equal(t, "github add labels: status 403: forbidden", err.Error())
	assert.True(t, errors.Is(err, cause))

	err = &PlatformProtocolError{Op: "create comment", Err: cause}
	assert.Equal(t, "github create comment: forbidden", err.Error())
}
