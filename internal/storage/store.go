package storage

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pders01/feedsync/internal/records"
	bolt "go.etcd.io/bbolt"
)

var (
	sourcesBucket = []byte("sources")
	postsBucket   = []byte("posts")
)

// Store is a local record backend. Each database id maps to a nested bucket
// under sources or posts, so one file can hold several feed/post databases.
type Store struct {
	db *bolt.DB
}

var _ records.Store = (*Store)(nil)

func NewStore(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{sourcesBucket, postsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSource inserts or replaces a source. A missing ID is derived from the URL.
func (s *Store) SaveSource(databaseID string, source records.Source) (records.Source, error) {
	if databaseID == "" {
		return source, fmt.Errorf("%w: empty feeds database id", records.ErrConfiguration)
	}
	if source.ID == "" {
		source.ID = SourceID(source.URL)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(sourcesBucket).CreateBucketIfNotExists([]byte(databaseID))
		if err != nil {
			return err
		}
		data, err := json.Marshal(source)
		if err != nil {
			return err
		}
		return b.Put([]byte(source.ID), data)
	})
	return source, err
}

// QuerySources returns the sources of databaseID sorted by ascending priority.
// Ties are broken by title so the order is deterministic.
func (s *Store) QuerySources(_ context.Context, databaseID string) ([]records.Source, error) {
	var sources []records.Source
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sourcesBucket).Bucket([]byte(databaseID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_ []byte, v []byte) error {
			var source records.Source
			if err := json.Unmarshal(v, &source); err != nil {
				return err
			}
			sources = append(sources, source)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}

	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Priority != sources[j].Priority {
			return sources[i].Priority < sources[j].Priority
		}
		return strings.ToLower(sources[i].Title) < strings.ToLower(sources[j].Title)
	})
	return sources, nil
}

// MarkChecked sets LastChecked on the source with the given id, whichever
// feeds database it lives in.
func (s *Store) MarkChecked(_ context.Context, sourceID string, at time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(sourcesBucket)
		c := root.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if v != nil {
				continue
			}
			b := root.Bucket(k)
			data := b.Get([]byte(sourceID))
			if data == nil {
				continue
			}

			var source records.Source
			if err := json.Unmarshal(data, &source); err != nil {
				return err
			}
			source.LastChecked = at.UTC()

			data, err := json.Marshal(source)
			if err != nil {
				return err
			}
			return b.Put([]byte(sourceID), data)
		}
		return fmt.Errorf("source %s: %w", sourceID, records.ErrNotFound)
	})
}

// DeleteSource removes a source from databaseID.
func (s *Store) DeleteSource(databaseID, sourceID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sourcesBucket).Bucket([]byte(databaseID))
		if b == nil || b.Get([]byte(sourceID)) == nil {
			return fmt.Errorf("source %s: %w", sourceID, records.ErrNotFound)
		}
		return b.Delete([]byte(sourceID))
	})
}

// CreatePost appends a post to databaseID. Keys are sequence numbers, so
// iteration yields posts in creation order.
func (s *Store) CreatePost(_ context.Context, databaseID string, post records.Post) error {
	if databaseID == "" {
		return fmt.Errorf("%w: empty posts database id", records.ErrConfiguration)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(postsBucket).CreateBucketIfNotExists([]byte(databaseID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(post)
		if err != nil {
			return err
		}
		return b.Put(itob(seq), data)
	})
}

// ListPosts returns up to limit posts of databaseID in creation order.
// A limit of zero or less returns every post.
func (s *Store) ListPosts(databaseID string, limit int) ([]records.Post, error) {
	var posts []records.Post
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(postsBucket).Bucket([]byte(databaseID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if limit > 0 && len(posts) >= limit {
				break
			}
			var post records.Post
			if err := json.Unmarshal(v, &post); err != nil {
				return err
			}
			posts = append(posts, post)
		}
		return nil
	})
	return posts, err
}

// SourceID derives a stable record id from a feed URL.
func SourceID(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))[:32]
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
