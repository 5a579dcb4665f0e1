package records

import "errors"

var (
	// ErrConfiguration is returned when a required database id is missing.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmptySourceList is returned when the feeds database has no usable rows.
	ErrEmptySourceList = errors.New("no feeds found in the database")
	// ErrFetch marks a source whose feed could not be retrieved or parsed.
	ErrFetch = errors.New("fetch error")
	// ErrPublish marks a post that could not be created.
	ErrPublish = errors.New("publish error")
	// ErrNotFound is returned by stores when a record id is unknown.
	ErrNotFound = errors.New("record not found")
)
