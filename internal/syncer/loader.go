package syncer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pders01/feedsync/internal/records"
	"github.com/samber/lo"
)

// LoadSources reads the feeds database and returns the sources that have a
// URL, ordered by ascending priority. Both database ids are checked before any
// request is made.
func LoadSources(ctx context.Context, reader records.SourceReader, dbs records.Databases) ([]records.Source, error) {
	if dbs.Feeds == "" || dbs.Posts == "" {
		return nil, fmt.Errorf("%w: you must provide the database ids for the feeds and posts", records.ErrConfiguration)
	}

	rows, err := reader.QuerySources(ctx, dbs.Feeds)
	if err != nil {
		return nil, fmt.Errorf("querying feeds database: %w", err)
	}

	sources := lo.Filter(rows, func(s records.Source, _ int) bool {
		return strings.TrimSpace(s.URL) != ""
	})
	if len(sources) == 0 {
		return nil, records.ErrEmptySourceList
	}

	// Stores already sort; this keeps the contract when one does not.
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority < sources[j].Priority
	})

	return sources, nil
}
