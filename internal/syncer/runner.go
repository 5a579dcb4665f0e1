// Package syncer copies new feed entries from the sources listed in a feeds
// database into a posts database.
//
// A run loads the sources ordered by priority, synchronizes them one after the
// other and then publishes every new entry in source order. Runs are not
// guarded against each other; callers must not start overlapping runs.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/pders01/feedsync/internal/config"
	"github.com/pders01/feedsync/internal/feed"
	"github.com/pders01/feedsync/internal/records"
	"github.com/pders01/feedsync/internal/resolve"
	"github.com/pders01/feedsync/internal/validation"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Result summarizes a run that got past loading the sources.
type Result struct {
	StartedAt       time.Time
	FinishedAt      time.Time
	Sources         int
	Synced          int
	Matched         int
	Published       int
	DryRun          bool
	SourceFailures  []SourceFailure
	PublishFailures []PublishFailure
}

// Err joins every per-source and per-post failure, or returns nil.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	var err error
	for _, f := range r.SourceFailures {
		err = multierr.Append(err, f.Err)
	}
	for _, f := range r.PublishFailures {
		err = multierr.Append(err, f.Err)
	}
	return err
}

// Outcome is "ok" when nothing failed and "partial" otherwise.
func (r *Result) Outcome() string {
	if len(r.SourceFailures) == 0 && len(r.PublishFailures) == 0 {
		return "ok"
	}
	return "partial"
}

func (r *Result) String() string {
	return fmt.Sprintf("%d/%d sources synced, %d new entries, %d published, %d failed",
		r.Synced, r.Sources, r.Matched, r.Published, len(r.SourceFailures)+len(r.PublishFailures))
}

type Option func(*Runner)

// WithFetcher replaces the HTTP feed fetcher.
func WithFetcher(f FeedFetcher) Option {
	return func(r *Runner) { r.synchronizer.fetcher = f }
}

// WithResolver replaces the URL resolver registry. nil disables resolution.
func WithResolver(res URLResolver) Option {
	return func(r *Runner) { r.synchronizer.resolver = res }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
		r.synchronizer.now = now
	}
}

// WithMetrics records run counters on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
		r.synchronizer.metrics = m
		r.publisher.metrics = m
	}
}

// Runner wires the loader, synchronizer and publisher to one record store.
type Runner struct {
	store        records.Store
	dbs          records.Databases
	synchronizer *Synchronizer
	publisher    *Publisher
	now          func() time.Time
	logger       *zap.Logger
	metrics      *Metrics
}

func NewRunner(store records.Store, cfg *config.Config, logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}

	validator := validation.NewFeedURLValidator()
	if cfg.Feed.AllowPrivateHosts {
		validator = validation.NewPermissiveFeedURLValidator()
	}

	lookback := cfg.Sync.DefaultLookback
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}

	fetcher := feed.NewFetcher(cfg)
	dbs := cfg.Databases()

	r := &Runner{
		store: store,
		dbs:   dbs,
		synchronizer: &Synchronizer{
			writer:    store,
			fetcher:   fetcher,
			parser:    feed.NewParser(),
			resolver:  resolve.DefaultRegistry(fetcher.Client()),
			validator: validator,
			lookback:  lookback,
			now:       time.Now,
			logger:    logger.Named("sync"),
		},
		publisher: &Publisher{
			writer:     store,
			databaseID: dbs.Posts,
			dryRun:     cfg.Sync.DryRun,
			logger:     logger.Named("publish"),
		},
		now:    time.Now,
		logger: logger,
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one synchronization. A configuration problem, an empty feeds
// database or a failing feeds query aborts the run with an error and no
// writes. Later failures are reported in the Result.
//
// Cancelling ctx stops the run before the next source. Sources already
// synchronized are still published, so no entry is lost behind a moved
// lastDate.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := r.now()

	sources, err := LoadSources(ctx, r.store, r.dbs)
	if err != nil {
		r.metrics.runDone("failed", started, r.now())
		return nil, err
	}
	r.logger.Info("loaded sources", zap.Int("count", len(sources)))

	result := &Result{
		StartedAt: started,
		Sources:   len(sources),
		DryRun:    r.publisher.dryRun,
	}

	batches, sourceFailures, syncErr := r.synchronizer.SyncAll(ctx, sources)
	result.SourceFailures = sourceFailures
	result.Synced = len(batches)
	for _, b := range batches {
		result.Matched += len(b.Entries)
	}

	// Every batch belongs to a source whose lastDate already moved, so its
	// entries are published even after ctx is cancelled.
	published, publishFailures, err := r.publisher.Publish(context.WithoutCancel(ctx), batches)
	result.Published = published
	result.PublishFailures = publishFailures
	if err != nil {
		return r.finish(result), fmt.Errorf("publishing posts: %w", err)
	}

	if syncErr != nil {
		return r.finish(result), fmt.Errorf("synchronizing sources: %w", syncErr)
	}
	return r.finish(result), nil
}

func (r *Runner) finish(result *Result) *Result {
	result.FinishedAt = r.now()
	r.metrics.runDone(result.Outcome(), result.StartedAt, result.FinishedAt)
	r.logger.Info("run finished",
		zap.Int("sources", result.Sources),
		zap.Int("synced", result.Synced),
		zap.Int("matched", result.Matched),
		zap.Int("published", result.Published),
		zap.Int("source_failures", len(result.SourceFailures)),
		zap.Int("publish_failures", len(result.PublishFailures)),
		zap.Duration("took", result.FinishedAt.Sub(result.StartedAt)))
	return result
}
