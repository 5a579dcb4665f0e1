package feed

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one item of a parsed feed.
type Entry struct {
	Title     string
	Link      string
	Author    string
	Published *time.Time
}

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse reads an RSS, Atom or JSON feed and returns its entries in document order.
func (p *Parser) Parse(reader io.Reader) ([]Entry, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entry := Entry{
			Title:  strings.TrimSpace(item.Title),
			Link:   firstLink(item),
			Author: authorName(item),
		}

		if item.PublishedParsed != nil {
			published := item.PublishedParsed.UTC()
			entry.Published = &published
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// ParseBytes is Parse over an in-memory document.
func (p *Parser) ParseBytes(data []byte) ([]Entry, error) {
	return p.Parse(bytes.NewReader(data))
}

func firstLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	for _, link := range item.Links {
		if link != "" {
			return link
		}
	}
	return ""
}

func authorName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}
	return ""
}
