// Package notion is the Notion record backend. Sources are rows of a feeds
// database with the properties name, url, priority and lastDate; posts are
// rows of a posts database with name, URL, author, date, origin and priority.
package notion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
	"github.com/pders01/feedsync/internal/records"
	"go.uber.org/zap"
)

// Property names used in both databases.
const (
	PropName     = "name"
	PropURL      = "url"
	PropPriority = "priority"
	PropLastDate = "lastDate"

	PropPostURL = "URL"
	PropAuthor  = "author"
	PropDate    = "date"
	PropOrigin  = "origin"
)

const pageSize = 100

// Store talks to the Notion API.
type Store struct {
	databases notionapi.DatabaseService
	pages     notionapi.PageService
	logger    *zap.Logger
}

var _ records.Store = (*Store)(nil)

// NewStore returns a Store authenticated with token. A zero timeout leaves the
// HTTP client without one.
func NewStore(token string, timeout time.Duration, logger *zap.Logger) *Store {
	client := notionapi.NewClient(notionapi.Token(token),
		notionapi.WithHTTPClient(&http.Client{Timeout: timeout}))
	return newStore(client.Database, client.Page, logger)
}

func newStore(databases notionapi.DatabaseService, pages notionapi.PageService, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{databases: databases, pages: pages, logger: logger.Named("notion")}
}

// QuerySources reads every row of the feeds database sorted by ascending
// priority, following pagination cursors.
func (s *Store) QuerySources(ctx context.Context, databaseID string) ([]records.Source, error) {
	req := &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{
			{Property: PropPriority, Direction: notionapi.SortOrderASC},
		},
		PageSize: pageSize,
	}

	var sources []records.Source
	for {
		resp, err := s.databases.Query(ctx, notionapi.DatabaseID(databaseID), req)
		if err != nil {
			return nil, fmt.Errorf("querying database %s: %w", databaseID, err)
		}
		for _, page := range resp.Results {
			sources = append(sources, SourceFromPage(page))
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.StartCursor = resp.NextCursor
	}

	s.logger.Debug("queried sources", zap.String("database", databaseID), zap.Int("rows", len(sources)))
	return sources, nil
}

// MarkChecked sets lastDate of the source row to at.
func (s *Store) MarkChecked(ctx context.Context, sourceID string, at time.Time) error {
	_, err := s.pages.Update(ctx, notionapi.PageID(sourceID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			PropLastDate: dateProperty(at),
		},
	})
	if err != nil {
		return fmt.Errorf("updating page %s: %w", sourceID, err)
	}
	return nil
}

// CreatePost adds one row to the posts database.
func (s *Store) CreatePost(ctx context.Context, databaseID string, post records.Post) error {
	_, err := s.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: PostProperties(post),
	})
	if err != nil {
		return fmt.Errorf("creating page in %s: %w", databaseID, err)
	}
	return nil
}
