package database

import (
	"context"
	"time"
)

// FeedStore is the feed repository surface consumed by the crawl engine
// and the management layer.
type FeedStore interface {
	Create(ctx context.Context, title, url, link string) (*Feed, error)
	GetByID(ctx context.Context, id int64) (*Feed, error)
	GetByURL(ctx context.Context, url string) (*Feed, error)
	All(ctx context.Context) ([]Feed, error)
	Due(ctx context.Context, cutoff time.Time) ([]Feed, error)
	RecordCrawl(ctx context.Context, id int64, at time.Time, crawlErr string) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// GroupStore is the group repository surface consumed by the management
// layer.
type GroupStore interface {
	Create(ctx context.Context, title string) (*Group, error)
	GetByID(ctx context.Context, id int64) (*Group, error)
	GetByTitle(ctx context.Context, title string) (*Group, error)
	All(ctx context.Context) ([]Group, error)
	Delete(ctx context.Context, id int64) error
	AddFeed(ctx context.Context, groupID, feedID int64) error
	Feeds(ctx context.Context, groupID int64) ([]Feed, error)
	FeedCount(ctx context.Context, groupID int64) (int, error)
}

// ItemStore is the item repository surface consumed by the crawl engine
// and the management layer.
type ItemStore interface {
	InsertNew(ctx context.Context, feedID int64, items []NewItem) (int, error)
	ListByFeed(ctx context.Context, feedID int64, limit int) ([]Item, error)
	CountByFeed(ctx context.Context, feedID int64) (int, error)
	CountAll(ctx context.Context) (int, error)
}

var _ FeedStore = (*FeedRepository)(nil)
var _ GroupStore = (*GroupRepository)(nil)
var _ ItemStore = (*ItemRepository)(nil)
