package crawler

import (
	"context"
	"sync"
	"time"

	"feedhub/app/database"
)

// mockFeedStore implements database.FeedStore with just enough behavior
// for crawl and scheduling tests: it serves a fixed due list and records
// crawl bookkeeping calls.
type mockFeedStore struct {
	mu       sync.Mutex
	dueFeeds []database.Feed
	dueErr   error
	records  []recordedCrawl
}

type recordedCrawl struct {
	feedID   int64
	at       time.Time
	crawlErr string
}

func (m *mockFeedStore) Create(ctx context.Context, title, url, link string) (*database.Feed, error) {
	return nil, nil
}

func (m *mockFeedStore) GetByID(ctx context.Context, id int64) (*database.Feed, error) {
	return nil, nil
}

func (m *mockFeedStore) GetByURL(ctx context.Context, url string) (*database.Feed, error) {
	return nil, nil
}

func (m *mockFeedStore) All(ctx context.Context) ([]database.Feed, error) {
	return nil, nil
}

func (m *mockFeedStore) Due(ctx context.Context, cutoff time.Time) ([]database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dueErr != nil {
		return nil, m.dueErr
	}
	return append([]database.Feed(nil), m.dueFeeds...), nil
}

func (m *mockFeedStore) RecordCrawl(ctx context.Context, id int64, at time.Time, crawlErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, recordedCrawl{feedID: id, at: at, crawlErr: crawlErr})
	return nil
}

func (m *mockFeedStore) Delete(ctx context.Context, id int64) error { return nil }

func (m *mockFeedStore) Count(ctx context.Context) (int, error) { return 0, nil }

func (m *mockFeedStore) recorded() []recordedCrawl {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedCrawl(nil), m.records...)
}

// mockItemStore implements database.ItemStore in memory, deduplicating on
// (feedID, guid) like the real repository does.
type mockItemStore struct {
	mu        sync.Mutex
	seen      map[int64]map[string]database.NewItem
	insertErr error
}

func newMockItemStore() *mockItemStore {
	return &mockItemStore{seen: make(map[int64]map[string]database.NewItem)}
}

func (m *mockItemStore) InsertNew(ctx context.Context, feedID int64, items []database.NewItem) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return 0, m.insertErr
	}

	if m.seen[feedID] == nil {
		m.seen[feedID] = make(map[string]database.NewItem)
	}

	inserted := 0
	for _, item := range items {
		if _, ok := m.seen[feedID][item.GUID]; ok {
			continue
		}
		m.seen[feedID][item.GUID] = item
		inserted++
	}
	return inserted, nil
}

func (m *mockItemStore) ListByFeed(ctx context.Context, feedID int64, limit int) ([]database.Item, error) {
	return nil, nil
}

func (m *mockItemStore) CountByFeed(ctx context.Context, feedID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen[feedID]), nil
}

func (m *mockItemStore) CountAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, items := range m.seen {
		total += len(items)
	}
	return total, nil
}

// mockCrawler implements FeedCrawler for scheduler tests, counting crawls
// per feed and returning canned results.
type mockCrawler struct {
	mu      sync.Mutex
	crawls  map[int64]int
	results map[int64]Result
	block   chan struct{}
}

func newMockCrawler() *mockCrawler {
	return &mockCrawler{
		crawls:  make(map[int64]int),
		results: make(map[int64]Result),
	}
}

func (m *mockCrawler) Crawl(ctx context.Context, f database.Feed) (Result, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.crawls[f.ID]++

	if result, ok := m.results[f.ID]; ok {
		return result, nil
	}
	return Result{FeedID: f.ID, NewItems: 1, Outcome: OutcomeOK}, nil
}

func (m *mockCrawler) crawlCount(feedID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.crawls[feedID]
}
