package records

import (
	"context"
	"time"
)

// SourceReader lists the rows of a feeds database ordered by ascending priority.
// Rows without a URL are returned with an empty URL; callers decide what to skip.
type SourceReader interface {
	QuerySources(ctx context.Context, databaseID string) ([]Source, error)
}

// SourceWriter records the time a source was last synchronized.
type SourceWriter interface {
	MarkChecked(ctx context.Context, sourceID string, at time.Time) error
}

// PostWriter creates rows in a posts database.
type PostWriter interface {
	CreatePost(ctx context.Context, databaseID string, post Post) error
}

// Store is a record backend serving both databases.
type Store interface {
	SourceReader
	SourceWriter
	PostWriter
}

// Databases names the two databases a run works with.
type Databases struct {
	Feeds string
	Posts string
}
