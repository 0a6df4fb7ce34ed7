package feed

import "time"

// Document is a parsed feed.
type Document struct {
	Title   string
	Link    string // canonical site link, falls back to the subscription URL
	Entries []Entry
}

// Entry is a single parsed feed entry. GUID is the per-feed external
// identity used for deduplication.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	Content     string
	PublishedAt *time.Time
}
