package api

import (
	"time"

	"feedhub/app/database"
)

type addFeedRequest struct {
	URL   string `json:"url" binding:"required"`
	Group string `json:"group"`
}

type addGroupRequest struct {
	Title string `json:"title" binding:"required"`
}

type addGroupFeedRequest struct {
	FeedID int64 `json:"feed_id" binding:"required"`
}

type feedResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Link          string     `json:"link"`
	LastCrawledAt *time.Time `json:"last_crawled_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	LastErrorAt   *time.Time `json:"last_error_at,omitempty"`
}

func toFeedResponse(f database.Feed) feedResponse {
	return feedResponse{
		ID:            f.ID,
		Title:         f.Title,
		URL:           f.URL,
		Link:          f.Link,
		LastCrawledAt: f.LastCrawledAt,
		LastError:     f.LastError,
		LastErrorAt:   f.LastErrorAt,
	}
}

type groupResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type itemResponse struct {
	ID          int64      `json:"id"`
	GUID        string     `json:"guid"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Content     string     `json:"content,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type crawlResponse struct {
	FeedID   int64  `json:"feed_id"`
	Outcome  string `json:"outcome"`
	NewItems int    `json:"new_items"`
	Error    string `json:"error,omitempty"`
}
