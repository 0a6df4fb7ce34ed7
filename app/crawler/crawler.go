package crawler

import (
	"context"
	"errors"
	"time"

	"feedhub/app/database"
	"feedhub/app/feed"
)

// Outcome classifies a single crawl attempt.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeParseFailed Outcome = "parse_failed"
)

// Result reports one crawl of one feed. Err carries the fetch or parse
// failure that was recorded against the feed; it is nil when Outcome is OK.
type Result struct {
	FeedID   int64
	NewItems int
	Outcome  Outcome
	Err      error
}

// Crawler runs the per-feed update cycle: fetch, parse, dedupe, persist,
// and last-crawl bookkeeping. The same instance serves the scheduler loop
// and on-demand crawls.
type Crawler struct {
	pipeline *feed.Pipeline
	feeds    database.FeedStore
	items    database.ItemStore
}

func New(pipeline *feed.Pipeline, feeds database.FeedStore, items database.ItemStore) *Crawler {
	return &Crawler{
		pipeline: pipeline,
		feeds:    feeds,
		items:    items,
	}
}

// Crawl performs one update cycle for f. Fetch and parse failures are
// recorded against the feed and returned inside Result with a nil error;
// the returned error is non-nil only for store failures. The feed's
// last-crawl timestamp advances on every attempt, so a broken feed is not
// retried in a tight loop.
func (c *Crawler) Crawl(ctx context.Context, f database.Feed) (Result, error) {
	now := time.Now().UTC()

	doc, err := c.pipeline.FetchParse(ctx, f.URL)
	if err != nil {
		outcome := OutcomeFetchFailed
		var parseErr *feed.ParseError
		if errors.As(err, &parseErr) {
			outcome = OutcomeParseFailed
		}

		if recErr := c.feeds.RecordCrawl(ctx, f.ID, now, err.Error()); recErr != nil {
			return Result{FeedID: f.ID, Outcome: outcome, Err: err}, recErr
		}

		return Result{FeedID: f.ID, Outcome: outcome, Err: err}, nil
	}

	items := make([]database.NewItem, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		if entry.GUID == "" {
			// no external identity, cannot be deduplicated
			continue
		}
		items = append(items, database.NewItem{
			GUID:        entry.GUID,
			Title:       entry.Title,
			Link:        entry.Link,
			Content:     entry.Content,
			PublishedAt: entry.PublishedAt,
		})
	}

	inserted, err := c.items.InsertNew(ctx, f.ID, items)
	if err != nil {
		if recErr := c.feeds.RecordCrawl(ctx, f.ID, now, err.Error()); recErr != nil {
			return Result{FeedID: f.ID}, errors.Join(err, recErr)
		}
		return Result{FeedID: f.ID}, err
	}

	if err := c.feeds.RecordCrawl(ctx, f.ID, now, ""); err != nil {
		return Result{FeedID: f.ID, NewItems: inserted}, err
	}

	return Result{FeedID: f.ID, NewItems: inserted, Outcome: OutcomeOK}, nil
}
