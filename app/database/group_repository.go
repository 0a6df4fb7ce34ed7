package database

import (
	"context"
	"database/sql"
	"fmt"
)

// GroupRepository handles database operations for groups and the
// feed-group association.
type GroupRepository struct {
	db *DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group. Returns ErrAlreadyExists when the title is
// already taken.
func (r *GroupRepository) Create(ctx context.Context, title string) (*Group, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO "groups" (title) VALUES (?)
	`, title)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("group %q: %w", title, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get group id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a group by id. Returns (nil, nil) when absent.
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*Group, error) {
	var group Group
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, created_at FROM "groups" WHERE id = ?
	`, id).Scan(&group.ID, &group.Title, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by id: %w", err)
	}
	return &group, nil
}

// GetByTitle retrieves a group by its unique title. Returns (nil, nil)
// when absent.
func (r *GroupRepository) GetByTitle(ctx context.Context, title string) (*Group, error) {
	var group Group
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, created_at FROM "groups" WHERE title = ?
	`, title).Scan(&group.ID, &group.Title, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by title: %w", err)
	}
	return &group, nil
}

// All returns every group ordered by id.
func (r *GroupRepository) All(ctx context.Context) ([]Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, created_at FROM "groups" ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var group Group
		if err := rows.Scan(&group.ID, &group.Title, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}

	return groups, nil
}

// Delete removes a group and its feed associations in one transaction.
// The associated feeds and their items are left untouched. Returns
// ErrNotFound when no group has the given id.
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feed_groups WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete group links: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM "groups" WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("group %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group deletion: %w", err)
	}

	return nil
}

// AddFeed links a feed to a group. Adding the same link twice is a no-op.
func (r *GroupRepository) AddFeed(ctx context.Context, groupID, feedID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feed_groups (feed_id, group_id)
		VALUES (?, ?)
		ON CONFLICT (feed_id, group_id) DO NOTHING
	`, feedID, groupID)
	if err != nil {
		return fmt.Errorf("failed to add feed to group: %w", err)
	}
	return nil
}

// Feeds returns the feeds associated with a group, ordered by feed id.
func (r *GroupRepository) Feeds(ctx context.Context, groupID int64) ([]Feed, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.id, f.title, f.url, f.link, f.last_crawled_at, f.last_error, f.last_error_at, f.created_at, f.updated_at
		FROM feeds f
		JOIN feed_groups fg ON fg.feed_id = f.id
		WHERE fg.group_id = ?
		ORDER BY f.id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group feeds: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

// FeedCount returns the number of feeds associated with a group.
func (r *GroupRepository) FeedCount(ctx context.Context, groupID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM feed_groups WHERE group_id = ?
	`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get group feed count: %w", err)
	}
	return count, nil
}
