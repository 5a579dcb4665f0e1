package syncer

import (
	"context"
	"fmt"

	"github.com/pders01/feedsync/internal/feed"
	"github.com/pders01/feedsync/internal/records"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// PublishFailure records a post that could not be created.
type PublishFailure struct {
	Post records.Post
	Err  error
}

// Publisher writes one post per entry. There is no deduplication: an entry
// seen by two runs with the same window is written twice.
type Publisher struct {
	writer     records.PostWriter
	databaseID string
	dryRun     bool
	logger     *zap.Logger
	metrics    *Metrics
}

// Posts flattens batches into posts, in batch order then entry order.
func Posts(batches []Batch) []records.Post {
	return lo.FlatMap(batches, func(b Batch, _ int) []records.Post {
		return lo.Map(b.Entries, func(e feed.Entry, _ int) records.Post {
			return NewPost(b, e)
		})
	})
}

// NewPost builds the destination record for entry e of batch b.
// The caller guarantees e.Published is set.
func NewPost(b Batch, e feed.Entry) records.Post {
	post := records.Post{
		Name:     e.Title,
		URL:      e.Link,
		Author:   e.Author,
		Origin:   b.Source,
		Priority: b.Priority,
	}
	if e.Published != nil {
		post.Date = *e.Published
	}
	return post
}

// Publish creates every post and returns how many were written. A failed
// creation is collected and the next post is still attempted.
func (p *Publisher) Publish(ctx context.Context, batches []Batch) (int, []PublishFailure, error) {
	published := 0
	var failures []PublishFailure

	for _, post := range Posts(batches) {
		if err := ctx.Err(); err != nil {
			return published, failures, err
		}

		if p.dryRun {
			p.logger.Info("dry run: would publish",
				zap.String("name", post.Name),
				zap.String("url", post.URL),
				zap.String("origin", post.Origin))
			published++
			continue
		}

		if err := p.writer.CreatePost(ctx, p.databaseID, post); err != nil {
			err = fmt.Errorf("%w: %q from %s: %w", records.ErrPublish, post.Name, post.Origin, err)
			p.logger.Warn("publish failed", zap.Error(err))
			p.metrics.postDone(false)
			failures = append(failures, PublishFailure{Post: post, Err: err})
			continue
		}
		p.metrics.postDone(true)
		published++
	}

	return published, failures, nil
}
