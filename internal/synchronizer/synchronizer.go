// Package synchronizer links a pull request to the tracker tickets it mentions.
package synchronizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"

	"github.com/danielolaszy/prlink/internal/config"
	"github.com/danielolaszy/prlink/internal/logging"
	"github.com/danielolaszy/prlink/internal/tickets"
	"github.com/danielolaszy/prlink/pkg/models"
)

// Platform is the code hosting side of a run.
type Platform interface {
	GetPullRequestText(ctx context.Context, pr models.PRContext) (models.PullRequestText, error)
	CreateComment(ctx context.Context, pr models.PRContext, body string) error
	UpdatePullRequestBody(ctx context.Context, pr models.PRContext, body string) error
	AddLabels(ctx context.Context, pr models.PRContext, labels ...string) error
}

// Tracker is the issue tracker side of a run.
type Tracker interface {
	IssueExists(ctx context.Context, id string) (bool, error)
	GetFields(ctx context.Context, id string) ([]models.TicketField, error)
	PostComment(ctx context.Context, id, text string) error
	SetFieldValue(ctx context.Context, id, fieldID, valueName string) error
	IssueURL(id string) string
}

// Options configures a single run.
type Options struct {
	// PR is the pull request being synchronized
	PR models.PRContext

	// WebURL is the platform's web root, e.g. https://github.com
	WebURL string

	// Pattern matches ticket IDs
	Pattern *regexp.Regexp

	// Source selects the scanned text: description, title or both
	Source string

	Deduplicate bool
	FailFast    bool
	Concurrency int
}

// Result is the outcome of a run.
type Result struct {
	// Tickets are the IDs the run processed, in order of appearance
	Tickets []string

	// Verified are the distinct tickets the tracker confirmed to exist
	Verified []string
}

// Synchronizer runs the pull request to tracker synchronization.
type Synchronizer struct {
	opts     Options
	platform Platform
	tracker  Tracker
}

// New creates a Synchronizer.
func New(opts Options, platform Platform, tracker Tracker) *Synchronizer {
	if opts.Source == "" {
		opts.Source = config.SourceDescription
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = config.DefaultConcurrency
	}
	return &Synchronizer{opts: opts, platform: platform, tracker: tracker}
}

// Run performs the synchronization. Extraction failures are returned
// immediately; failures of individual tickets are collected and returned
// together once every ticket has been processed.
func (s *Synchronizer) Run(ctx context.Context) (Result, error) {
	var result Result
	pr := s.opts.PR

	logging.Info("synchronizing pull request", "repository", pr.Repository(), "number", pr.Number)

	text, err := s.platform.GetPullRequestText(ctx, pr)
	if err != nil {
		return result, fmt.Errorf("reading pull request: %w", err)
	}

	source, scanned := scanText(text, s.opts.Source)
	ids, err := tickets.Extract(scanned, s.opts.Pattern)
	if err != nil {
		return result, &models.NoTicketFoundError{Source: source}
	}
	if s.opts.Deduplicate {
		ids = tickets.Unique(ids)
	}
	result.Tickets = ids
	logging.Info("found tickets", "source", source, "tickets", strings.Join(ids, ","))

	// Side effects happen once per ticket whatever the dedupe policy.
	verified, errs := s.verify(ctx, tickets.Unique(ids))
	result.Verified = verified
	if len(errs) > 0 && s.opts.FailFast {
		return result, multierr.Combine(errs...)
	}
	if len(verified) == 0 {
		return result, multierr.Combine(errs...)
	}

	if err := s.platform.CreateComment(ctx, pr, s.linkedComment(verified)); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, s.forEach(ctx, verified, s.crossLink)...)

	if err := s.rewriteDescription(ctx, text.Description); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, s.forEach(ctx, verified, s.syncFields)...)

	return result, multierr.Combine(errs...)
}

// scanText picks the text tickets are extracted from.
func scanText(text models.PullRequestText, source string) (string, string) {
	switch source {
	case config.SourceTitle:
		return config.SourceTitle, text.Title
	case config.SourceBoth:
		return config.SourceBoth, text.Title + "\n" + text.Description
	}
	if strings.TrimSpace(text.Description) == "" {
		return config.SourceTitle, text.Title
	}
	return config.SourceDescription, text.Description
}

// verify checks every ticket against the tracker and returns the ones that
// exist, in input order, along with the failures.
func (s *Synchronizer) verify(ctx context.Context, ids []string) ([]string, []error) {
	exists := make([]bool, len(ids))
	errs := s.forEachIndexed(ctx, ids, func(ctx context.Context, i int, id string) error {
		ok, err := s.tracker.IssueExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewTicketNotFoundError(id)
		}
		exists[i] = true
		return nil
	})

	verified := make([]string, 0, len(ids))
	for i, id := range ids {
		if exists[i] {
			verified = append(verified, id)
		} else {
			logging.Warn("ticket verification failed", "ticket", id)
		}
	}
	return verified, errs
}

func (s *Synchronizer) linkedComment(ids []string) string {
	var b strings.Builder
	b.WriteString("Linked PR to issues:")
	for _, id := range ids {
		fmt.Fprintf(&b, "\n- [%s](%s)", id, s.tracker.IssueURL(id))
	}
	return b.String()
}

func (s *Synchronizer) crossLink(ctx context.Context, id string) error {
	pr := s.opts.PR
	comment := fmt.Sprintf("New PR [#%d](%s) opened at [%s](%s) by %s.",
		pr.Number, pr.PullRequestURL(s.opts.WebURL),
		pr.Repository(), pr.RepositoryURL(s.opts.WebURL),
		pr.Actor)
	return s.tracker.PostComment(ctx, id, comment)
}

func (s *Synchronizer) rewriteDescription(ctx context.Context, description string) error {
	updated := tickets.Linkify(description, s.opts.Pattern, s.tracker.IssueURL)
	if updated == description {
		logging.Debug("description already linked")
		return nil
	}
	return s.platform.UpdatePullRequestBody(ctx, s.opts.PR, updated)
}

// syncFields moves an eligible ticket to TargetState and labels the pull
// request with the ticket type.
func (s *Synchronizer) syncFields(ctx context.Context, id string) error {
	fields, err := s.tracker.GetFields(ctx, id)
	if err != nil {
		return err
	}

	var errs error
	if state, ok := models.FindField(fields, StateField); ok && ShouldTransition(state.ValueName()) {
		from := state.ValueName()
		if err := s.tracker.SetFieldValue(ctx, id, state.ID, TargetState); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			logging.Info("ticket transitioned", "ticket", id, "from", from, "to", TargetState)
			comment := fmt.Sprintf("Issue [%s](%s) changed from *%s* to *%s*", id, s.tracker.IssueURL(id), from, TargetState)
			errs = multierr.Append(errs, s.platform.CreateComment(ctx, s.opts.PR, comment))
		}
	}

	if typ, ok := models.FindField(fields, TypeField); ok && typ.ValueName() != "" {
		errs = multierr.Append(errs, s.platform.AddLabels(ctx, s.opts.PR, TypeLabel(typ.ValueName())))
	}
	return errs
}

func (s *Synchronizer) forEach(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error) []error {
	return s.forEachIndexed(ctx, ids, func(ctx context.Context, _ int, id string) error {
		return fn(ctx, id)
	})
}

// forEachIndexed runs fn for every ticket on a bounded pool and waits for all
// of them. Errors are returned in ticket order.
func (s *Synchronizer) forEachIndexed(ctx context.Context, ids []string, fn func(ctx context.Context, i int, id string) error) []error {
	results := make([]error, len(ids))
	p := pool.New().WithMaxGoroutines(s.opts.Concurrency)
	for i, id := range ids {
		p.Go(func() {
			results[i] = fn(ctx, i, id)
		})
	}
	p.Wait()

	var errs []error
	for _, err := range results {
		if err != nil {
			errs = append(errs, multierr.Errors(err)...)
		}
	}
	return errs
}
