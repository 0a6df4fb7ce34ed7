package database

import (
	"time"
)

// Feed represents a subscribed RSS/Atom source.
type Feed struct {
	ID            int64
	Title         string
	URL           string     // subscription URL, unique across the store
	Link          string     // human-facing site URL
	LastCrawledAt *time.Time // time of the last crawl attempt, success or not
	LastError     string
	LastErrorAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Group is a named collection of feeds, many-to-many via feed_groups.
type Group struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// Item is a single stored entry belonging to one feed. Items are
// append-only: once stored they are never updated in place.
type Item struct {
	ID          int64
	FeedID      int64
	GUID        string // entry GUID, or the entry link when absent
	Title       string
	Link        string
	Content     string
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// NewItem carries a parsed entry into the store.
type NewItem struct {
	GUID        string
	Title       string
	Link        string
	Content     string
	PublishedAt *time.Time
}
