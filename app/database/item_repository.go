package database

import (
	"context"
	"fmt"
)

// ItemRepository handles database operations for feed items
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// InsertNew stores the given items for a feed inside one transaction and
// returns how many were actually inserted. Items whose (feed_id, guid)
// pair is already present are skipped, never rewritten, so repeated crawls
// of an unchanged feed insert nothing.
func (r *ItemRepository) InsertNew(ctx context.Context, feedID int64, items []NewItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (feed_id, guid, title, link, content, published_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id, guid) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		res, err := stmt.ExecContext(ctx, feedID, item.GUID, item.Title, item.Link, item.Content, item.PublishedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert item %q: %w", item.GUID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to check inserted rows: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit item batch: %w", err)
	}

	return inserted, nil
}

// ListByFeed returns the stored items of a feed, newest first. A limit of
// zero or less returns all items.
func (r *ItemRepository) ListByFeed(ctx context.Context, feedID int64, limit int) ([]Item, error) {
	query := `
		SELECT id, feed_id, guid, title, link, content, published_at, created_at
		FROM items
		WHERE feed_id = ?
		ORDER BY COALESCE(published_at, created_at) DESC, id DESC
	`
	args := []any{feedID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ID, &item.FeedID, &item.GUID, &item.Title, &item.Link,
			&item.Content, &item.PublishedAt, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// CountByFeed returns the number of stored items for a feed.
func (r *ItemRepository) CountByFeed(ctx context.Context, feedID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE feed_id = ?`, feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// CountAll returns the total number of stored items.
func (r *ItemRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get total item count: %w", err)
	}
	return count, nil
}
