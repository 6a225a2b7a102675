package synchronizer

import (
	"context"
	"sync"

	"github.com/danielolaszy/prlink/internal/tickets"
	"github.com/danielolaszy/prlink/pkg/models"
)

const trackerBase = "https://yt.example.com"

type fakePlatform struct {
	mu sync.Mutex

	text     models.PullRequestText
	getErr   error
	writeErr error

	gets     int
	comments []string
	bodies   []string
	labels   []string
}

func (f *fakePlatform) GetPullRequestText(context.Context, models.PRContext) (models.PullRequestText, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.text, f.getErr
}

func (f *fakePlatform) CreateComment(_ context.Context, _ models.PRContext, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, body)
	return f.writeErr
}

func (f *fakePlatform) UpdatePullRequestBody(_ context.Context, _ models.PRContext, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, body)
	return f.writeErr
}

func (f *fakePlatform) AddLabels(_ context.Context, _ models.PRContext, labels ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels = append(f.labels, labels...)
	return f.writeErr
}

func (f *fakePlatform) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comments) + len(f.bodies) + len(f.labels)
}

type fieldUpdate struct {
	ID, FieldID, Value string
}

type fakeTracker struct {
	mu sync.Mutex

	// missing tickets answer with TicketNotFoundError
	missing map[string]bool
	fields  map[string][]models.TicketField
	setErr  error

	checked  []string
	comments map[string][]string
	updates  []fieldUpdate
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		missing:  map[string]bool{},
		fields:   map[string][]models.TicketField{},
		comments: map[string][]string{},
	}
}

func (f *fakeTracker) IssueExists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, id)
	if f.missing[id] {
		return false, models.NewTicketNotFoundError(id)
	}
	return true, nil
}

func (f *fakeTracker) GetFields(_ context.Context, id string) ([]models.TicketField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields[id], nil
}

func (f *fakeTracker) PostComment(_ context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[id] = append(f.comments[id], text)
	return nil
}

func (f *fakeTracker) SetFieldValue(_ context.Context, id, fieldID, valueName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.updates = append(f.updates, fieldUpdate{ID: id, FieldID: fieldID, Value: valueName})
	return nil
}

func (f *fakeTracker) IssueURL(id string) string {
	return tickets.IssueURL(trackerBase, id)
}

func (f *fakeTracker) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.checked) + len(f.updates)
	for _, c := range f.comments {
		n += len(c)
	}
	return n
}

func field(name, id, value string) models.TicketField {
	f := models.TicketField{Name: name, ID: id}
	if value != "" {
		f.Value = &models.FieldValue{Name: value}
	}
	return f
}
