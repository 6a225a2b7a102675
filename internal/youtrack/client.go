// Package youtrack provides a client for the YouTrack REST API.
package youtrack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/danielolaszy/prlink/internal/logging"
	"github.com/danielolaszy/prlink/internal/tickets"
	"github.com/danielolaszy/prlink/pkg/models"
)

// fieldProjection is the field list requested for custom fields.
const fieldProjection = "name,id,value(name)"

// maxErrorBody bounds how much of an error response is kept for reporting.
const maxErrorBody = 4096

// Client handles interactions with the YouTrack API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a YouTrack client authenticating with a permanent token.
// Every request is bounded by timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = timeout

	logging.Info("youtrack configuration",
		"url", tickets.NormalizeBaseURL(baseURL),
		"token", logging.MaskSensitive(token))

	return newClientFromHTTP(httpClient, baseURL)
}

func newClientFromHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		baseURL:    tickets.NormalizeBaseURL(baseURL),
		httpClient: httpClient,
	}
}

// IssueURL returns the web link for a ticket.
func (c *Client) IssueURL(id string) string {
	return tickets.IssueURL(c.baseURL, id)
}

// IssueExists reports whether the ticket exists. A missing ticket is
// reported as a TicketNotFoundError rather than false.
func (c *Client) IssueExists(ctx context.Context, id string) (bool, error) {
	query := url.Values{"fields": {"idReadable"}}
	if err := c.do(ctx, "check issue", id, http.MethodGet, issuePath(id), query, nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// GetFields returns the custom fields of a ticket.
func (c *Client) GetFields(ctx context.Context, id string) ([]models.TicketField, error) {
	var raw []rawField
	query := url.Values{"fields": {fieldProjection}}
	if err := c.do(ctx, "get fields", id, http.MethodGet, issuePath(id)+"/fields", query, nil, &raw); err != nil {
		return nil, err
	}

	fields := make([]models.TicketField, 0, len(raw))
	for _, f := range raw {
		fields = append(fields, f.toTicketField())
	}
	return fields, nil
}

// PostComment adds a markdown comment to a ticket.
func (c *Client) PostComment(ctx context.Context, id, text string) error {
	body := commentRequest{Text: text, UsesMarkdown: true}
	return c.do(ctx, "post comment", id, http.MethodPost, issuePath(id)+"/comments", nil, body, nil)
}

// SetFieldValue sets a field to the enum value with the given name.
func (c *Client) SetFieldValue(ctx context.Context, id, fieldID, valueName string) error {
	body := fieldUpdateRequest{Value: models.FieldValue{Name: valueName}}
	query := url.Values{"fields": {fieldProjection}}
	path := issuePath(id) + "/fields/" + url.PathEscape(fieldID)
	return c.do(ctx, "set field", id, http.MethodPost, path, query, body, nil)
}

func issuePath(id string) string {
	return "api/issues/" + url.PathEscape(id)
}

// do sends a request and decodes a successful JSON response into out.
func (c *Client) do(ctx context.Context, op, id, method, path string, query url.Values, in, out any) error {
	reqURL := tickets.JoinURL(c.baseURL, path)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &models.TrackerProtocolError{Op: op, ID: id, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return &models.TrackerProtocolError{Op: op, ID: id, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.Debug("youtrack request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.TrackerProtocolError{Op: op, ID: id, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return models.NewTicketNotFoundError(id)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		//nolint:errcheck // Best effort read for the error message only
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &models.TrackerProtocolError{Op: op, ID: id, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.TrackerProtocolError{Op: op, ID: id, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
