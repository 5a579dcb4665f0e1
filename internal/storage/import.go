package storage

import (
	"fmt"
	"io"
	"strings"

	"github.com/pders01/feedsync/internal/records"
	"github.com/pelletier/go-toml/v2"
)

// SourceFile is the TOML layout accepted by ImportSources:
//
//	[[feeds]]
//	title = "Go Blog"
//	url = "https://go.dev/blog/feed.atom"
//	priority = 1
type SourceFile struct {
	Feeds []records.Source `toml:"feeds"`
}

// ReadSourceFile decodes a TOML source list.
func ReadSourceFile(r io.Reader) ([]records.Source, error) {
	var file SourceFile
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing source file: %w", err)
	}
	for i := range file.Feeds {
		file.Feeds[i].Title = strings.TrimSpace(file.Feeds[i].Title)
		file.Feeds[i].URL = strings.TrimSpace(file.Feeds[i].URL)
	}
	return file.Feeds, nil
}

// ImportSources saves every source into databaseID and returns how many were stored.
// Sources without a URL are skipped.
func (s *Store) ImportSources(databaseID string, sources []records.Source) (int, error) {
	imported := 0
	for _, source := range sources {
		if source.URL == "" {
			continue
		}
		if _, err := s.SaveSource(databaseID, source); err != nil {
			return imported, fmt.Errorf("saving source %q: %w", source.URL, err)
		}
		imported++
	}
	return imported, nil
}
