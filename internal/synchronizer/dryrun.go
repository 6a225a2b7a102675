package synchronizer

import (
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/danielolaszy/prlink/internal/logging"
	"github.com/danielolaszy/prlink/pkg/models"
)

// DryRunPlatform passes reads through to the wrapped Platform and logs writes
// instead of performing them.
type DryRunPlatform struct {
	Platform
}

// NewDryRunPlatform wraps p.
func NewDryRunPlatform(p Platform) *DryRunPlatform {
	return &DryRunPlatform{Platform: p}
}

func (d *DryRunPlatform) CreateComment(_ context.Context, pr models.PRContext, body string) error {
	logging.Info("dry run: would comment on pull request", "pull_request", pr.Number, "body", body)
	return nil
}

// UpdatePullRequestBody logs the rewrite as a unified diff against the
// current description.
func (d *DryRunPlatform) UpdatePullRequestBody(ctx context.Context, pr models.PRContext, body string) error {
	current, err := d.Platform.GetPullRequestText(ctx, pr)
	if err != nil {
		return err
	}
	logging.Info("dry run: would update pull request description",
		"pull_request", pr.Number,
		"diff", BodyDiff(current.Description, body))
	return nil
}

func (d *DryRunPlatform) AddLabels(_ context.Context, pr models.PRContext, labels ...string) error {
	logging.Info("dry run: would add labels", "pull_request", pr.Number, "labels", strings.Join(labels, ","))
	return nil
}

// DryRunTracker passes reads through to the wrapped Tracker and logs writes
// instead of performing them.
type DryRunTracker struct {
	Tracker
}

// NewDryRunTracker wraps t.
func NewDryRunTracker(t Tracker) *DryRunTracker {
	return &DryRunTracker{Tracker: t}
}

func (d *DryRunTracker) PostComment(_ context.Context, id, text string) error {
	logging.Info("dry run: would comment on ticket", "ticket", id, "text", text)
	return nil
}

func (d *DryRunTracker) SetFieldValue(_ context.Context, id, fieldID, valueName string) error {
	logging.Info("dry run: would set ticket field", "ticket", id, "field", fieldID, "value", valueName)
	return nil
}

// BodyDiff renders a unified diff between two descriptions.
func BodyDiff(before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(ensureTrailingNewline(before)),
		B:        difflib.SplitLines(ensureTrailingNewline(after)),
		FromFile: "description",
		ToFile:   "description (linked)",
		Context:  1,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
