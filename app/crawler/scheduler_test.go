package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedhub/app/database"
)

func TestSchedulerCrawlsDueFeeds(t *testing.T) {
	feeds := &mockFeedStore{dueFeeds: []database.Feed{
		{ID: 1, Title: "one", URL: "https://example.com/1"},
		{ID: 2, Title: "two", URL: "https://example.com/2"},
	}}
	c := newMockCrawler()

	s := NewScheduler(c, feeds, 5*time.Minute, 10*time.Millisecond, 2)
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return c.crawlCount(1) > 0 && c.crawlCount(2) > 0
	}, 2*time.Second, 10*time.Millisecond)

	stats := s.GetStats()
	assert.GreaterOrEqual(t, stats.TotalCrawled, int64(2))
	assert.NotNil(t, stats.LastCrawlAt)
}

func TestSchedulerSkipsInFlightFeeds(t *testing.T) {
	feeds := &mockFeedStore{dueFeeds: []database.Feed{
		{ID: 1, Title: "slow", URL: "https://example.com/1"},
	}}
	c := newMockCrawler()
	c.block = make(chan struct{})

	s := NewScheduler(c, feeds, 5*time.Minute, 10*time.Millisecond, 1)
	s.Start()

	// feed 1 is stuck in its crawl; several ticks pass without a second
	// dispatch for it
	time.Sleep(100 * time.Millisecond)
	close(c.block)
	s.Stop()

	assert.LessOrEqual(t, c.crawlCount(1), 1)
}

func TestSchedulerCountsFailures(t *testing.T) {
	feeds := &mockFeedStore{dueFeeds: []database.Feed{
		{ID: 1, Title: "broken", URL: "https://example.com/1"},
		{ID: 2, Title: "fine", URL: "https://example.com/2"},
	}}
	c := newMockCrawler()
	c.results[1] = Result{FeedID: 1, Outcome: OutcomeFetchFailed}

	s := NewScheduler(c, feeds, 5*time.Minute, time.Hour, 2)
	s.Start()
	defer s.Stop()

	// one feed failing does not stop its siblings
	require.Eventually(t, func() bool {
		return c.crawlCount(1) > 0 && c.crawlCount(2) > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return s.GetStats().TotalErrors >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCrawlNow(t *testing.T) {
	c := newMockCrawler()
	s := NewScheduler(c, &mockFeedStore{}, 5*time.Minute, time.Hour, 1)

	f := database.Feed{ID: 9, Title: "on demand", URL: "https://example.com/9"}

	result, err := s.CrawlNow(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, result.Outcome)
	assert.Equal(t, 1, c.crawlCount(9))
	assert.Equal(t, int64(1), s.GetStats().TotalCrawled)
}

func TestCrawlNowConflictsWithInFlightCrawl(t *testing.T) {
	c := newMockCrawler()
	s := NewScheduler(c, &mockFeedStore{}, 5*time.Minute, time.Hour, 1)

	f := database.Feed{ID: 9, URL: "https://example.com/9"}

	require.True(t, s.claim(f.ID))

	_, err := s.CrawlNow(context.Background(), f)
	require.ErrorIs(t, err, ErrCrawlInFlight)
	assert.Zero(t, c.crawlCount(9))

	s.release(f.ID)

	_, err = s.CrawlNow(context.Background(), f)
	require.NoError(t, err)
}

func TestSchedulerStop(t *testing.T) {
	feeds := &mockFeedStore{dueFeeds: []database.Feed{
		{ID: 1, URL: "https://example.com/1"},
	}}
	c := newMockCrawler()

	s := NewScheduler(c, feeds, 5*time.Minute, 10*time.Millisecond, 2)
	s.Start()

	require.Eventually(t, func() bool {
		return c.crawlCount(1) > 0
	}, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}
