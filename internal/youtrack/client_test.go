package youtrack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielolaszy/prlink/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return newClientFromHTTP(server.Client(), server.URL)
}

func TestIssueURL(t *testing.T) {
	tests := []struct {
		base     string
		expected string
	}{
		{"https://yt.example.com", "https://yt.example.com/issue/PROJ-1"},
		{"https://yt.example.com/", "https://yt.example.com/issue/PROJ-1"},
		{"https://yt.example.com/youtrack//", "https://yt.example.com/youtrack/issue/PROJ-1"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			c := newClientFromHTTP(http.DefaultClient, tt.base)
			assert.Equal(t, tt.expected, c.IssueURL("PROJ-1"))
		})
	}
}

func TestIssueExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issues/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "idReadable", r.URL.Query().Get("fields"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		_, _ = io.WriteString(w, `{"idReadable":"PROJ-1","$type":"Issue"}`)
	})
	mux.HandleFunc("GET /api/issues/PROJ-404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"Not Found"}`)
	})
	mux.HandleFunc("GET /api/issues/PROJ-500", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom\n")
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	t.Run("Existing ticket", func(t *testing.T) {
		ok, err := client.IssueExists(ctx, "PROJ-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Missing ticket", func(t *testing.T) {
		ok, err := client.IssueExists(ctx, "PROJ-404")
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, models.IsTicketNotFound(err))
		assert.Contains(t, err.Error(), "PROJ-404")
	})

	t.Run("Server error", func(t *testing.T) {
		_, err := client.IssueExists(ctx, "PROJ-500")
		require.Error(t, err)
		assert.False(t, models.IsTicketNotFound(err))

		var perr *models.TrackerProtocolError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusInternalServerError, perr.StatusCode)
		assert.Equal(t, "boom", perr.Body)
		assert.Equal(t, "PROJ-500", perr.ID)
	})
}

func TestGetFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issues/PROJ-1/fields", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name,id,value(name)", r.URL.Query().Get("fields"))
		_, _ = io.WriteString(w, `[
			{"name":"State","id":"92-1","value":{"name":"In Progress","$type":"StateBundleElement"}},
			{"name":"Type","id":"92-2","value":{"name":"Bug"}},
			{"name":"Assignee","id":"92-3","value":null},
			{"name":"Tags","id":"92-4","value":[{"name":"a"}]},
			{"name":"Estimate","id":"92-5","value":3}
		]`)
	})
	mux.HandleFunc("GET /api/issues/PROJ-2/fields", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	client := newTestClient(t, mux)

	fields, err := client.GetFields(context.Background(), "PROJ-1")
	require.NoError(t, err)
	require.Len(t, fields, 5)

	state, ok := models.FindField(fields, "State")
	require.True(t, ok)
	assert.Equal(t, "92-1", state.ID)
	assert.Equal(t, "In Progress", state.ValueName())

	typ, ok := models.FindField(fields, "Type")
	require.True(t, ok)
	assert.Equal(t, "Bug", typ.ValueName())

	for _, name := range []string{"Assignee", "Tags", "Estimate"} {
		f, ok := models.FindField(fields, name)
		require.True(t, ok, name)
		assert.Nil(t, f.Value, name)
	}

	empty, err := client.GetFields(context.Background(), "PROJ-2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetFieldsInvalidJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issues/PROJ-1/fields", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	_, err := newTestClient(t, mux).GetFields(context.Background(), "PROJ-1")
	var perr *models.TrackerProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "get fields", perr.Op)
}

func TestPostComment(t *testing.T) {
	var got commentRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/issues/PROJ-1/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"4-1"}`)
	})

	client := newTestClient(t, mux)
	text := "New PR [#5](https://github.com/octo/app/pull/5) opened at [octo/app](https://github.com/octo/app) by mona."
	require.NoError(t, client.PostComment(context.Background(), "PROJ-1", text))
	assert.Equal(t, text, got.Text)
	assert.True(t, got.UsesMarkdown)
}

func TestSetFieldValue(t *testing.T) {
	var got map[string]map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/issues/PROJ-1/fields/92-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name,id,value(name)", r.URL.Query().Get("fields"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"name":"State","id":"92-1","value":{"name":"PR Open"}}`)
	})

	client := newTestClient(t, mux)
	require.NoError(t, client.SetFieldValue(context.Background(), "PROJ-1", "92-1", "PR Open"))
	assert.Equal(t, "PR Open", got["value"]["name"])
}

func TestNewClientSendsBearerToken(t *testing.T) {
	var auth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issues/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"idReadable":"PROJ-1"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "perm:secret", 5*time.Second)
	_, err := client.IssueExists(context.Background(), "PROJ-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer perm:secret", auth)
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := newClientFromHTTP(server.Client(), server.URL)
	server.Close()

	err := client.PostComment(context.Background(), "PROJ-1", "x")
	var perr *models.TrackerProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, perr.StatusCode)
	assert.Error(t, perr.Err)
}
