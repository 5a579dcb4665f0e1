package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/pders01/feedsync/internal/feed"
	"github.com/pders01/feedsync/internal/records"
	"github.com/pders01/feedsync/internal/validation"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// FeedFetcher returns the raw feed document at url.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// URLResolver rewrites a source URL into the URL of its feed.
type URLResolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// Batch is the set of new entries found for one source during a run.
type Batch struct {
	Source   string
	Priority float64
	Entries  []feed.Entry
}

// SourceFailure records a source that could not be synchronized.
type SourceFailure struct {
	Source records.Source
	Err    error
}

// Synchronizer fetches sources one at a time, keeps the entries published
// since the last check and advances each source's LastChecked.
type Synchronizer struct {
	writer    records.SourceWriter
	fetcher   FeedFetcher
	parser    *feed.Parser
	resolver  URLResolver
	validator *validation.FeedURLValidator
	lookback  time.Duration
	now       func() time.Time
	logger    *zap.Logger
	metrics   *Metrics
}

// Since returns the lower bound of the lookback window for source. A source
// that was never checked looks back the fixed default window from now.
func (s *Synchronizer) Since(source records.Source, now time.Time) time.Time {
	if source.Checked() {
		return source.LastChecked
	}
	return now.Add(-s.lookback)
}

// Sync processes one source. The returned batch is only valid when err is nil.
// LastChecked is written back after a successful fetch and parse, whether or
// not any entries matched.
func (s *Synchronizer) Sync(ctx context.Context, source records.Source) (Batch, error) {
	batch := Batch{Source: source.Title, Priority: source.Priority}
	now := s.now()
	log := s.logger.With(zap.String("source", source.Title), zap.String("url", source.URL))

	feedURL, err := s.validator.ValidateAndNormalize(source.URL)
	if err != nil {
		return batch, fmt.Errorf("%w: %s: %w", records.ErrFetch, source.URL, err)
	}
	if s.resolver != nil {
		resolved, resolveErr := s.resolver.Resolve(ctx, feedURL)
		if resolveErr != nil {
			return batch, fmt.Errorf("%w: resolving %s: %w", records.ErrFetch, feedURL, resolveErr)
		}
		if resolved != feedURL {
			log.Debug("resolved feed url", zap.String("feed_url", resolved))
		}
		feedURL = resolved
	}

	body, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return batch, fmt.Errorf("%w: %s: %w", records.ErrFetch, feedURL, err)
	}

	entries, err := s.parser.ParseBytes(body)
	if err != nil {
		return batch, fmt.Errorf("%w: %s: %w", records.ErrFetch, feedURL, err)
	}

	since := s.Since(source, now)
	batch.Entries = FilterEntries(entries, since)

	// lastDate is written even when ctx is already done.
	if err := s.writer.MarkChecked(context.WithoutCancel(ctx), source.ID, now); err != nil {
		return batch, fmt.Errorf("updating lastDate of %s: %w", source.Title, err)
	}

	log.Info("source synchronized",
		zap.Int("entries", len(entries)),
		zap.Int("new", len(batch.Entries)),
		zap.Time("since", since))
	return batch, nil
}

// SyncAll runs Sync over sources in order. Failed sources are collected and
// skipped; they do not stop the remaining sources.
func (s *Synchronizer) SyncAll(ctx context.Context, sources []records.Source) ([]Batch, []SourceFailure, error) {
	batches := make([]Batch, 0, len(sources))
	var failures []SourceFailure

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return batches, failures, err
		}

		batch, err := s.Sync(ctx, source)
		if err != nil {
			s.logger.Warn("source failed",
				zap.String("source", source.Title),
				zap.String("url", source.URL),
				zap.Error(err))
			s.metrics.sourceDone(false, 0)
			failures = append(failures, SourceFailure{Source: source, Err: err})
			continue
		}
		s.metrics.sourceDone(true, len(batch.Entries))
		batches = append(batches, batch)
	}

	return batches, failures, nil
}

// FilterEntries keeps entries that have a publish date at or after since,
// preserving their order.
func FilterEntries(entries []feed.Entry, since time.Time) []feed.Entry {
	return lo.Filter(entries, func(e feed.Entry, _ int) bool {
		return e.Published != nil && !e.Published.Before(since)
	})
}
