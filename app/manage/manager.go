// Package manage implements the management surface shared by the CLI and
// the HTTP API: feed and group CRUD on top of the store, with feed metadata
// derived from a one-off fetch at add time.
package manage

import (
	"context"
	"fmt"

	"feedhub/app/database"
	"feedhub/app/feed"
)

type Manager struct {
	feeds    database.FeedStore
	groups   database.GroupStore
	items    database.ItemStore
	pipeline *feed.Pipeline
}

func New(feeds database.FeedStore, groups database.GroupStore,
	items database.ItemStore, pipeline *feed.Pipeline) *Manager {
	return &Manager{
		feeds:    feeds,
		groups:   groups,
		items:    items,
		pipeline: pipeline,
	}
}

// AddFeed subscribes to url. The feed is fetched and parsed once to derive
// its title and site link; the caller never supplies them. When groupTitle
// is non-empty the new feed is linked to that group.
func (m *Manager) AddFeed(ctx context.Context, url, groupTitle string) (*database.Feed, error) {
	existing, err := m.feeds.GetByURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("feed %q: %w", url, database.ErrAlreadyExists)
	}

	doc, err := m.pipeline.FetchParse(ctx, url)
	if err != nil {
		return nil, err
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("feed %q has no title", url)
	}

	f, err := m.feeds.Create(ctx, doc.Title, url, doc.Link)
	if err != nil {
		return nil, err
	}

	if groupTitle != "" {
		group, err := m.getGroup(ctx, groupTitle)
		if err != nil {
			return f, err
		}
		if err := m.groups.AddFeed(ctx, group.ID, f.ID); err != nil {
			return f, err
		}
	}

	return f, nil
}

// GetFeed looks a feed up by id, turning a miss into ErrNotFound.
func (m *Manager) GetFeed(ctx context.Context, id int64) (*database.Feed, error) {
	f, err := m.feeds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("feed %d: %w", id, database.ErrNotFound)
	}
	return f, nil
}

// ListFeeds returns all subscribed feeds.
func (m *Manager) ListFeeds(ctx context.Context) ([]database.Feed, error) {
	return m.feeds.All(ctx)
}

// DeleteFeed removes a feed with its items and group associations and
// returns the removed feed.
func (m *Manager) DeleteFeed(ctx context.Context, id int64) (*database.Feed, error) {
	f, err := m.GetFeed(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.feeds.Delete(ctx, id); err != nil {
		return nil, err
	}
	return f, nil
}

// FeedItems returns the stored items of a feed, newest first.
func (m *Manager) FeedItems(ctx context.Context, feedID int64, limit int) ([]database.Item, error) {
	if _, err := m.GetFeed(ctx, feedID); err != nil {
		return nil, err
	}
	return m.items.ListByFeed(ctx, feedID, limit)
}

// CreateGroup creates a new named group.
func (m *Manager) CreateGroup(ctx context.Context, title string) (*database.Group, error) {
	return m.groups.Create(ctx, title)
}

// ListGroups returns all groups.
func (m *Manager) ListGroups(ctx context.Context) ([]database.Group, error) {
	return m.groups.All(ctx)
}

// DeleteGroup removes a group by title and returns how many feeds were
// still associated with it. A non-zero count is the caller's cue to warn;
// the associated feeds themselves are untouched.
func (m *Manager) DeleteGroup(ctx context.Context, title string) (int, error) {
	group, err := m.getGroup(ctx, title)
	if err != nil {
		return 0, err
	}

	count, err := m.groups.FeedCount(ctx, group.ID)
	if err != nil {
		return 0, err
	}

	if err := m.groups.Delete(ctx, group.ID); err != nil {
		return 0, err
	}

	return count, nil
}

// AddFeedToGroup links an existing feed to an existing group. Linking the
// same pair twice is a no-op.
func (m *Manager) AddFeedToGroup(ctx context.Context, feedID int64, groupTitle string) (*database.Group, error) {
	group, err := m.getGroup(ctx, groupTitle)
	if err != nil {
		return nil, err
	}
	if _, err := m.GetFeed(ctx, feedID); err != nil {
		return nil, err
	}
	if err := m.groups.AddFeed(ctx, group.ID, feedID); err != nil {
		return nil, err
	}
	return group, nil
}

// GroupFeeds returns a group and its associated feeds.
func (m *Manager) GroupFeeds(ctx context.Context, title string) (*database.Group, []database.Feed, error) {
	group, err := m.getGroup(ctx, title)
	if err != nil {
		return nil, nil, err
	}
	feeds, err := m.groups.Feeds(ctx, group.ID)
	if err != nil {
		return nil, nil, err
	}
	return group, feeds, nil
}

// EnsureGroup returns the group with the given title, creating it first
// when it does not exist yet.
func (m *Manager) EnsureGroup(ctx context.Context, title string) (*database.Group, error) {
	group, err := m.groups.GetByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if group != nil {
		return group, nil
	}
	return m.groups.Create(ctx, title)
}

func (m *Manager) getGroup(ctx context.Context, title string) (*database.Group, error) {
	group, err := m.groups.GetByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("group %q: %w", title, database.ErrNotFound)
	}
	return group, nil
}
