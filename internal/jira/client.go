// Package jira implements the ticket tracker contract on top of the Jira REST API.
package jira

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/prlink/internal/logging"
	"github.com/danielolaszy/prlink/internal/tickets"
	"github.com/danielolaszy/prlink/pkg/models"
)

// Field names reported by GetFields, matching the YouTrack field names the
// synchronizer looks for.
const (
	StateField = "State"
	TypeField  = "Type"

	statusFieldID    = "status"
	issueTypeFieldID = "issuetype"
)

var markdownLink = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]*)\)`)

// Client handles interactions with the JIRA API
type Client struct {
	client  *jira.Client
	baseURL string
}

// NewClient creates a new JIRA client. Basic auth is used when username is
// set, a bearer personal access token otherwise.
func NewClient(baseURL, username, token string, timeout time.Duration) (*Client, error) {
	var httpClient *http.Client
	if username != "" {
		tp := jira.BasicAuthTransport{
			Username: username,
			Password: token,
		}
		httpClient = tp.Client()
	} else {
		tp := jira.BearerAuthTransport{Token: token}
		httpClient = tp.Client()
	}
	httpClient.Timeout = timeout

	logging.Info("jira configuration",
		"url", tickets.NormalizeBaseURL(baseURL),
		"username", username,
		"token", logging.MaskSensitive(token))

	return newClientFromHTTP(httpClient, baseURL)
}

func newClientFromHTTP(httpClient *http.Client, baseURL string) (*Client, error) {
	base := tickets.NormalizeBaseURL(baseURL)
	client, err := jira.NewClient(httpClient, base)
	if err != nil {
		return nil, &models.ConfigurationError{Err: fmt.Errorf("creating jira client: %w", err)}
	}
	return &Client{client: client, baseURL: base}, nil
}

// IssueURL returns the browse link for a ticket.
func (c *Client) IssueURL(id string) string {
	return BrowseURL(c.baseURL, id)
}

// BrowseURL returns the browse link for a ticket on the Jira instance at base.
func BrowseURL(base, id string) string {
	return tickets.JoinURL(tickets.NormalizeBaseURL(base), "browse/"+id)
}

// IssueExists reports whether the ticket exists.
func (c *Client) IssueExists(ctx context.Context, id string) (bool, error) {
	_, resp, err := c.client.Issue.GetWithContext(ctx, id, &jira.GetQueryOptions{Fields: "key"})
	if err != nil {
		return false, trackerError("check issue", id, resp, err)
	}
	return true, nil
}

// GetFields returns the ticket's status and issue type as "State" and "Type".
func (c *Client) GetFields(ctx context.Context, id string) ([]models.TicketField, error) {
	issue, resp, err := c.client.Issue.GetWithContext(ctx, id, &jira.GetQueryOptions{
		Fields: statusFieldID + "," + issueTypeFieldID,
	})
	if err != nil {
		return nil, trackerError("get fields", id, resp, err)
	}

	state := models.TicketField{Name: StateField, ID: statusFieldID}
	typ := models.TicketField{Name: TypeField, ID: issueTypeFieldID}
	if issue.Fields != nil {
		if issue.Fields.Status != nil && issue.Fields.Status.Name != "" {
			state.Value = &models.FieldValue{Name: issue.Fields.Status.Name}
		}
		if issue.Fields.Type.Name != "" {
			typ.Value = &models.FieldValue{Name: issue.Fields.Type.Name}
		}
	}
	return []models.TicketField{state, typ}, nil
}

// PostComment adds a comment, converting markdown links to Jira wiki markup.
func (c *Client) PostComment(ctx context.Context, id, text string) error {
	comment := &jira.Comment{Body: ToWikiMarkup(text)}
	_, resp, err := c.client.Issue.AddCommentWithContext(ctx, id, comment)
	if err != nil {
		return trackerError("post comment", id, resp, err)
	}
	return nil
}

// SetFieldValue sets a field by name. The status field can only change
// through a workflow transition, so the transition leading to the requested
// status is looked up and performed.
func (c *Client) SetFieldValue(ctx context.Context, id, fieldID, valueName string) error {
	if fieldID == statusFieldID {
		return c.transition(ctx, id, valueName)
	}

	data := map[string]interface{}{
		"fields": map[string]interface{}{
			fieldID: map[string]string{"name": valueName},
		},
	}
	resp, err := c.client.Issue.UpdateIssueWithContext(ctx, id, data)
	if err != nil {
		return trackerError("set field", id, resp, err)
	}
	closeResponse(resp)
	return nil
}

func (c *Client) transition(ctx context.Context, id, status string) error {
	transitions, resp, err := c.client.Issue.GetTransitionsWithContext(ctx, id)
	if err != nil {
		return trackerError("get transitions", id, resp, err)
	}

	var transitionID string
	for _, t := range transitions {
		if strings.EqualFold(t.To.Name, status) || strings.EqualFold(t.Name, status) {
			transitionID = t.ID
			break
		}
	}
	if transitionID == "" {
		return &models.TrackerProtocolError{
			Op:  "transition",
			ID:  id,
			Err: fmt.Errorf("no transition to %q available", status),
		}
	}

	logging.Debug("performing jira transition", "issue", id, "transition", transitionID, "status", status)
	resp, err = c.client.Issue.DoTransitionWithContext(ctx, id, transitionID)
	if err != nil {
		return trackerError("transition", id, resp, err)
	}
	closeResponse(resp)
	return nil
}

// ToWikiMarkup rewrites markdown links [text](url) as Jira links [text|url].
func ToWikiMarkup(text string) string {
	return markdownLink.ReplaceAllString(text, "[$1|$2]")
}

// trackerError maps a go-jira failure onto the tracker error types.
func trackerError(op, id string, resp *jira.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return &models.TrackerProtocolError{Op: op, ID: id, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return models.NewTicketNotFoundError(id)
	}
	return &models.TrackerProtocolError{Op: op, ID: id, StatusCode: resp.StatusCode, Err: err}
}

func closeResponse(resp *jira.Response) {
	if resp == nil || resp.Response == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
