package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pders01/feedsync/internal/config"
	"github.com/pders01/feedsync/internal/records"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// memStore is an in-memory records.Store. When frozen is set, MarkChecked is
// recorded but not applied, so every query sees the original LastChecked.
// Like the real backends, writes fail on a done context.
type memStore struct {
	mu         sync.Mutex
	sources    []records.Source
	posts      []records.Post
	postDBs    []string
	checked    map[string]time.Time
	frozen     bool
	queryErr   error
	markErr    map[string]error
	createErr  func(records.Post) error
	onMark     func(id string)
	queryCalls int
}

func newMemStore(sources ...records.Source) *memStore {
	return &memStore{sources: sources, checked: map[string]time.Time{}}
}

func (m *memStore) QuerySources(_ context.Context, _ string) ([]records.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	out := make([]records.Source, len(m.sources))
	copy(out, m.sources)
	return out, nil
}

func (m *memStore) MarkChecked(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.onMark != nil {
		defer m.onMark(id)
	}
	if err := m.markErr[id]; err != nil {
		return err
	}
	m.checked[id] = at
	if m.frozen {
		return nil
	}
	for i := range m.sources {
		if m.sources[i].ID == id {
			m.sources[i].LastChecked = at
		}
	}
	return nil
}

func (m *memStore) CreatePost(ctx context.Context, databaseID string, post records.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.createErr != nil {
		if err := m.createErr(post); err != nil {
			return err
		}
	}
	m.posts = append(m.posts, post)
	m.postDBs = append(m.postDBs, databaseID)
	return nil
}

func (m *memStore) postNames() []string {
	names := make([]string, 0, len(m.posts))
	for _, p := range m.posts {
		names = append(names, p.Name)
	}
	return names
}

// mapFetcher serves feed documents by URL.
type mapFetcher struct {
	docs  map[string]string
	calls []string
}

func (f *mapFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	doc, ok := f.docs[url]
	if !ok {
		return nil, errors.New("HTTP error: 404")
	}
	return []byte(doc), nil
}

type testEntry struct {
	title     string
	link      string
	author    string
	published time.Time
}

// atomFeed renders entries as an Atom document. A zero published time omits
// both <published> and <updated>.
func atomFeed(entries ...testEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>test</title><id>urn:test</id>`)
	for i, e := range entries {
		b.WriteString("<entry>")
		fmt.Fprintf(&b, "<id>urn:test:%d</id>", i)
		if e.title != "" {
			fmt.Fprintf(&b, "<title>%s</title>", e.title)
		}
		if e.link != "" {
			fmt.Fprintf(&b, `<link href="%s"/>`, e.link)
		}
		if e.author != "" {
			fmt.Fprintf(&b, "<author><name>%s</name></author>", e.author)
		}
		if !e.published.IsZero() {
			fmt.Fprintf(&b, "<published>%s</published>", e.published.Format(time.RFC3339))
		}
		b.WriteString("</entry>")
	}
	b.WriteString("</feed>")
	return b.String()
}

func newTestRunner(store records.Store, fetcher FeedFetcher, opts ...Option) *Runner {
	cfg := config.TestConfig()
	all := append([]Option{WithFetcher(fetcher), WithClock(func() time.Time { return testNow })}, opts...)
	return NewRunner(store, cfg, zap.NewNop(), all...)
}
