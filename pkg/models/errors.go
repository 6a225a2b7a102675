package models

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports required inputs that are missing or invalid.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	switch {
	case len(e.Missing) > 0 && e.Err != nil:
		return fmt.Sprintf("configuration error: missing %s: %v", strings.Join(e.Missing, ", "), e.Err)
	case len(e.Missing) > 0:
		return fmt.Sprintf("configuration error: missing %s", strings.Join(e.Missing, ", "))
	case e.Err != nil:
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return "configuration error"
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a ConfigurationError for the given missing inputs.
func NewConfigurationError(missing ...string) *ConfigurationError {
	return &ConfigurationError{Missing: missing}
}

// IsConfiguration checks if an error is or wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// NoTicketFoundError reports that the scanned text contains no ticket ID.
type NoTicketFoundError struct {
	Source string
}

func (e *NoTicketFoundError) Error() string {
	if e.Source == "" {
		return "no ticket ID found"
	}
	return fmt.Sprintf("PR %s does not contain any ticket ID", e.Source)
}

// Is makes every NoTicketFoundError match ErrNoTicketFound.
func (e *NoTicketFoundError) Is(target error) bool {
	_, ok := target.(*NoTicketFoundError)
	return ok
}

// ErrNoTicketFound matches any NoTicketFoundError via errors.Is.
var ErrNoTicketFound = &NoTicketFoundError{}

// TicketNotFoundError represents a ticket the tracker does not know about.
type TicketNotFoundError struct {
	ID string
}

func (e *TicketNotFoundError) Error() string {
	return fmt.Sprintf("ticket %s not found in tracker", e.ID)
}

// NewTicketNotFoundError creates a new TicketNotFoundError.
func NewTicketNotFoundError(id string) *TicketNotFoundError {
	return &TicketNotFoundError{ID: id}
}

// IsTicketNotFound checks if an error is or wraps a TicketNotFoundError.
func IsTicketNotFound(err error) bool {
	var notFound *TicketNotFoundError
	return errors.As(err, &notFound)
}

// TrackerProtocolError is a failed call to the issue tracker: a non-success
// status other than 404, or a transport failure.
type TrackerProtocolError struct {
	Op         string
	ID         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TrackerProtocolError) Error() string {
	var b strings.Builder
	b.WriteString("tracker ")
	b.WriteString(e.Op)
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TrackerProtocolError) Unwrap() error {
	return e.Err
}

// PlatformProtocolError is a failed call to the hosting platform.
type PlatformProtocolError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *PlatformProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("github %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("github %s: %v", e.Op, e.Err)
}

func (e *PlatformProtocolError) Unwrap() error {
	return e.Err
}
