package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FeedRepository handles database operations for feeds
type FeedRepository struct {
	db *DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

const feedColumns = `id, title, url, link, last_crawled_at, last_error, last_error_at, created_at, updated_at`

func scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	err := row.Scan(
		&feed.ID, &feed.Title, &feed.URL, &feed.Link,
		&feed.LastCrawledAt, &feed.LastError, &feed.LastErrorAt,
		&feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// Create inserts a new feed. Returns ErrAlreadyExists when a feed with the
// same URL is already present.
func (r *FeedRepository) Create(ctx context.Context, title, url, link string) (*Feed, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO feeds (title, url, link)
		VALUES (?, ?, ?)
	`, title, url, link)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("feed %q: %w", url, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create feed: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get feed id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a feed by its id. Returns (nil, nil) when absent.
func (r *FeedRepository) GetByID(ctx context.Context, id int64) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRowContext(ctx, `
		SELECT `+feedColumns+` FROM feeds WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by id: %w", err)
	}
	return feed, nil
}

// GetByURL retrieves a feed by its subscription URL. Returns (nil, nil)
// when absent; a non-nil error means the lookup itself failed.
func (r *FeedRepository) GetByURL(ctx context.Context, url string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRowContext(ctx, `
		SELECT `+feedColumns+` FROM feeds WHERE url = ?
	`, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}
	return feed, nil
}

// All returns every feed ordered by id.
func (r *FeedRepository) All(ctx context.Context) ([]Feed, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+feedColumns+` FROM feeds ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

// Due returns feeds whose last crawl attempt is unset or at/before cutoff.
func (r *FeedRepository) Due(ctx context.Context, cutoff time.Time) ([]Feed, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+feedColumns+` FROM feeds
		WHERE last_crawled_at IS NULL OR last_crawled_at <= ?
		ORDER BY last_crawled_at
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get due feeds: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

func collectFeeds(rows *sql.Rows) ([]Feed, error) {
	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// RecordCrawl stamps the time of a crawl attempt. crawlErr is the failure
// message for an unsuccessful attempt; an empty string marks success and
// clears any previous error.
func (r *FeedRepository) RecordCrawl(ctx context.Context, id int64, at time.Time, crawlErr string) error {
	var err error
	if crawlErr == "" {
		_, err = r.db.ExecContext(ctx, `
			UPDATE feeds
			SET last_crawled_at = ?, last_error = '', last_error_at = NULL, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, at, id)
	} else {
		_, err = r.db.ExecContext(ctx, `
			UPDATE feeds
			SET last_crawled_at = ?, last_error = ?, last_error_at = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, at, crawlErr, at, id)
	}

	if err != nil {
		return fmt.Errorf("failed to record crawl: %w", err)
	}

	return nil
}

// Delete removes a feed together with its items and group associations in
// one transaction. Returns ErrNotFound when no feed has the given id.
func (r *FeedRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE feed_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete feed items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM feed_groups WHERE feed_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete feed group links: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("feed %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feed deletion: %w", err)
	}

	return nil
}

// Count returns the total number of feeds.
func (r *FeedRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feeds`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}
