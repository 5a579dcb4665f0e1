package syncer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pders01/feedsync/internal/config"
	"github.com/pders01/feedsync/internal/records"
	"github.com/pders01/feedsync/internal/storage"
)

// Runs against the bolt backend and a real HTTP feed server.
func TestRun_BoltBackend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tech.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFeed(
			testEntry{title: "New", link: "http://tech/new", author: "Ann", published: testNow.Add(-time.Hour)},
			testEntry{title: "Old", link: "http://tech/old", published: testNow.Add(-72 * time.Hour)},
		)))
	})
	mux.HandleFunc("/news.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(atomFeed(
			testEntry{title: "Headline", link: "http://news/1", published: testNow.Add(-2 * time.Hour)},
		)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "feedsync.db"))
	require.NoError(t, err)
	defer store.Close()

	cfg := config.TestConfig()
	_, err = store.ImportSources(cfg.Notion.FeedsDB, []records.Source{
		{Title: "Tech", URL: srv.URL + "/tech.xml", Priority: 2},
		{Title: "News", URL: srv.URL + "/news.xml", Priority: 1},
		{Title: "Gone", URL: srv.URL + "/missing.xml", Priority: 3},
	})
	require.NoError(t, err)

	runner := NewRunner(store, cfg, zap.NewNop(), WithClock(func() time.Time { return testNow }))
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Sources)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 2, result.Published)
	require.Len(t, result.SourceFailures, 1)
	assert.Equal(t, "Gone", result.SourceFailures[0].Source.Title)
	assert.ErrorIs(t, result.SourceFailures[0].Err, records.ErrFetch)

	posts, err := store.ListPosts(cfg.Notion.PostsDB, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Headline", posts[0].Name)
	assert.Equal(t, "News", posts[0].Origin)
	assert.Equal(t, "New", posts[1].Name)
	assert.Equal(t, "Ann", posts[1].Author)

	sources, err := store.QuerySources(context.Background(), cfg.Notion.FeedsDB)
	require.NoError(t, err)
	for _, s := range sources {
		if s.Title == "Gone" {
			assert.False(t, s.Checked())
			continue
		}
		assert.True(t, s.LastChecked.Equal(testNow), s.Title)
	}
}
