// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/changelog-digest/internal/domain"
	"github.com/naka-gawa/changelog-digest/internal/gateway"
)

// Digester is the use case for composing and delivering the weekly digest.
// It orchestrates fetching from GitHub, selection, rendering and delivery.
type Digester struct {
	fetcher  gateway.Fetcher
	notifier gateway.Notifier
	renderer domain.Renderer
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// Option customises a Digester.
type Option func(*Digester)

// WithClock replaces the wall clock used to anchor the digest window.
func WithClock(now func() time.Time) Option {
	return func(d *Digester) {
		d.now = now
	}
}

// Report describes one prepared digest.
type Report struct {
	Repository  string                 `json:"repository"`
	GeneratedAt time.Time              `json:"generated_at"`
	Stats       domain.RepositoryStats `json:"stats"`
	Selection   domain.Selection       `json:"selection"`
	Summary     domain.DigestSummary   `json:"summary"`
	Message     string                 `json:"message"`
}

// NewDigester creates a new Digester instance.
func NewDigester(fetcher gateway.Fetcher, notifier gateway.Notifier, renderer domain.Renderer, logger *zap.SugaredLogger, opts ...Option) *Digester {
	d := &Digester{
		fetcher:  fetcher,
		notifier: notifier,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Prepare fetches the star count and closed pull requests concurrently, then
// selects and renders the digest. Nothing is delivered.
func (d *Digester) Prepare(ctx context.Context, owner, name string) (*Report, error) {
	repository := owner + "/" + name
	d.logger.Infow("preparing digest", "repo", repository)

	var (
		stars   int
		records []domain.PullRequestRecord
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		stars, err = d.fetcher.FetchStargazerCount(egCtx, owner, name)
		return err
	})
	eg.Go(func() error {
		var err error
		records, err = d.fetcher.FetchClosedPullRequests(egCtx, owner, name)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, errors.Wrapf(err, "fetch %s", repository)
	}

	now := d.now()
	sel := domain.Select(records, now)
	for _, rejected := range sel.Rejected {
		d.logger.Warnw("skipping malformed pull request",
			"repo", repository,
			"number", rejected.Number,
			"url", rejected.URL,
			"err", rejected.Reason)
	}

	summary, err := domain.Summarize(sel, len(records), now)
	if err != nil {
		return nil, err
	}
	d.logger.Infow("selected pull requests",
		"repo", repository,
		"considered", summary.Considered,
		"selected", summary.Selected,
		"rejected", summary.Rejected,
		"median_merge_age_hours", summary.MedianMergeAgeHours,
		"stargazers_count", stars)

	return &Report{
		Repository:  repository,
		GeneratedAt: now,
		Stats:       domain.RepositoryStats{StargazerCount: stars},
		Selection:   sel,
		Summary:     summary,
		Message:     d.renderer.Render(sel.Items, stars),
	}, nil
}

// Run prepares the digest and delivers it. No message is sent if fetching fails.
func (d *Digester) Run(ctx context.Context, owner, name string) (*Report, error) {
	report, err := d.Prepare(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	if err := d.notifier.Notify(ctx, report.Message); err != nil {
		return nil, errors.Wrap(err, "deliver digest")
	}
	d.logger.Infow("digest sent", "repo", report.Repository, "items", len(report.Selection.Items))
	return report, nil
}
