package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"feedhub/app/database"
)

// ErrCrawlInFlight is returned by CrawlNow when the feed is already being
// crawled.
var ErrCrawlInFlight = errors.New("crawl already in flight")

// FeedCrawler is the crawl pipeline surface the scheduler dispatches into.
type FeedCrawler interface {
	Crawl(ctx context.Context, f database.Feed) (Result, error)
}

// Stats holds scheduler counters surfaced by the management API.
type Stats struct {
	TotalCrawled  int64
	TotalErrors   int64
	TotalNewItems int64
	QueueSize     int
	LastCrawlAt   *time.Time
}

// Scheduler owns the continuously running crawl loop: on every tick it
// loads due feeds and dispatches them to a bounded worker pool. A feed is
// never crawled by two overlapping invocations; the in-flight set is
// claimed at dispatch and released when the crawl finishes.
type Scheduler struct {
	crawler      FeedCrawler
	feeds        database.FeedStore
	pollInterval time.Duration
	tickInterval time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	queue        chan database.Feed

	mu       sync.Mutex
	inflight map[int64]struct{}
	stats    Stats
}

func NewScheduler(crawler FeedCrawler, feeds database.FeedStore,
	pollInterval, tickInterval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		crawler:      crawler,
		feeds:        feeds,
		pollInterval: pollInterval,
		tickInterval: tickInterval,
		workerCount:  workerCount,
		ctx:          ctx,
		cancel:       cancel,
		queue:        make(chan database.Feed, 100),
		inflight:     make(map[int64]struct{}),
	}
}

// Start launches the worker pool and the scheduling loop. The first pass
// runs immediately, then once per tick.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler", "workers", s.workerCount, "tick", s.tickInterval.String(), "poll", s.pollInterval.String())

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()

		s.enqueueDueFeeds()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueFeeds()
			}
		}
	}()
}

// Stop requests shutdown and waits for in-flight crawls to finish. No new
// crawls are dispatched once shutdown is requested.
func (s *Scheduler) Stop() {
	slog.Info("Stopping scheduler")
	s.cancel()
	s.wg.Wait()
	close(s.queue)
	slog.Info("Scheduler stopped")
}

// CrawlNow runs a synchronous crawl of f through the same in-flight
// tracking as the loop, so an on-demand crawl can never overlap a
// scheduled one within this process.
func (s *Scheduler) CrawlNow(ctx context.Context, f database.Feed) (Result, error) {
	if !s.claim(f.ID) {
		return Result{FeedID: f.ID}, ErrCrawlInFlight
	}
	defer s.release(f.ID)

	result, err := s.crawler.Crawl(ctx, f)
	s.record(result, err)
	return result, err
}

// GetStats returns a snapshot of the scheduler counters.
func (s *Scheduler) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.QueueSize = len(s.queue)
	return stats
}

func (s *Scheduler) claim(feedID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inflight[feedID]; ok {
		return false
	}
	s.inflight[feedID] = struct{}{}
	return true
}

func (s *Scheduler) release(feedID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, feedID)
}

func (s *Scheduler) enqueueDueFeeds() {
	cutoff := time.Now().UTC().Add(-s.pollInterval)
	feeds, err := s.feeds.Due(s.ctx, cutoff)
	if err != nil {
		slog.Error("Failed to load due feeds", "error", err)
		return
	}

	if len(feeds) == 0 {
		slog.Debug("No feeds due for crawling")
		return
	}

	slog.Debug("Found due feeds", "count", len(feeds))

	for _, f := range feeds {
		if !s.claim(f.ID) {
			slog.Debug("Feed still being crawled, skipping", "feed", f.Title, "id", f.ID)
			continue
		}

		select {
		case s.queue <- f:
		case <-s.ctx.Done():
			s.release(f.ID)
			return
		default:
			s.release(f.ID)
			slog.Warn("Crawl queue full, skipping feed", "feed", f.Title, "id", f.ID)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case f, ok := <-s.queue:
			if !ok {
				return
			}
			s.crawlFeed(id, f)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) crawlFeed(workerID int, f database.Feed) {
	defer s.release(f.ID)

	start := time.Now()
	result, err := s.crawler.Crawl(s.ctx, f)
	s.record(result, err)

	switch {
	case err != nil:
		slog.Error("Crawl store failure", "worker_id", workerID, "feed", f.Title, "id", f.ID, "error", err)
	case result.Outcome != OutcomeOK:
		slog.Warn("Crawl failed", "worker_id", workerID, "feed", f.Title, "id", f.ID, "outcome", string(result.Outcome), "error", result.Err)
	default:
		slog.Info("Crawl completed", "worker_id", workerID, "feed", f.Title, "id", f.ID, "new", result.NewItems, "duration", time.Since(start).String())
	}
}

func (s *Scheduler) record(result Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalCrawled++
	s.stats.TotalNewItems += int64(result.NewItems)
	if err != nil || result.Outcome != OutcomeOK {
		s.stats.TotalErrors++
	}
	now := time.Now().UTC()
	s.stats.LastCrawlAt = &now
}
