// Package models defines data structures shared across the application.
package models

import "fmt"

// PRContext identifies the pull request a run operates on.
type PRContext struct {
	// Owner is the repository owner (user or organization)
	Owner string

	// Repo is the repository name without the owner
	Repo string

	// Number is the pull request number (e.g., 42)
	Number int

	// Actor is the login of the user that triggered the run
	Actor string
}

// Repository returns the "owner/repo" form of the context.
func (c PRContext) Repository() string {
	return c.Owner + "/" + c.Repo
}

// RepositoryURL returns the web URL of the repository on the given web host.
func (c PRContext) RepositoryURL(webBase string) string {
	return fmt.Sprintf("%s/%s/%s", webBase, c.Owner, c.Repo)
}

// PullRequestURL returns the web URL of the pull request on the given web host.
func (c PRContext) PullRequestURL(webBase string) string {
	return fmt.Sprintf("%s/pull/%d", c.RepositoryURL(webBase), c.Number)
}

// PullRequestText is the user-editable text of a pull request.
type PullRequestText struct {
	// Title is the pull request's title
	Title string

	// Description is the full body text of the pull request
	Description string
}

// FieldValue is the current value of a ticket field.
type FieldValue struct {
	Name string `json:"name"`
}

// TicketField is a named field on a tracker ticket, such as "State" or "Type".
type TicketField struct {
	// Name is the display name of the field
	Name string `json:"name"`

	// ID is the tracker-specific identifier used to update the field
	ID string `json:"id"`

	// Value is nil when the field is unset or holds a value without a name
	Value *FieldValue `json:"value,omitempty"`
}

// ValueName returns the field's value name, or "" when it has none.
func (f TicketField) ValueName() string {
	if f.Value == nil {
		return ""
	}
	return f.Value.Name
}

// FindField returns the first field with the given name.
func FindField(fields []TicketField, name string) (TicketField, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return TicketField{}, false
}
