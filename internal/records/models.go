package records

import (
	"time"
)

// Source is one row of the feeds database.
type Source struct {
	ID          string    `json:"id" toml:"id"`
	Title       string    `json:"title" toml:"title"`
	URL         string    `json:"url" toml:"url"`
	Priority    float64   `json:"priority" toml:"priority"`
	LastChecked time.Time `json:"last_checked" toml:"last_checked"`
}

// Checked reports whether the source has been synchronized before.
func (s Source) Checked() bool {
	return !s.LastChecked.IsZero()
}

// Post is one row written to the posts database.
type Post struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Author   string    `json:"author"`
	Date     time.Time `json:"date"`
	Origin   string    `json:"origin"`
	Priority float64   `json:"priority"`
}
