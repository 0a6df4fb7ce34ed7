package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedhub/app/cfg"
	"feedhub/app/crawler"
	"feedhub/app/database"
	"feedhub/app/feed"
	"feedhub/app/manage"
)

// fakeScheduler implements CrawlScheduler without a running loop.
type fakeScheduler struct {
	result crawler.Result
	err    error
	stats  crawler.Stats
}

func (s *fakeScheduler) CrawlNow(ctx context.Context, f database.Feed) (crawler.Result, error) {
	if s.err != nil {
		return crawler.Result{FeedID: f.ID}, s.err
	}
	result := s.result
	result.FeedID = f.ID
	return result, nil
}

func (s *fakeScheduler) GetStats() crawler.Stats { return s.stats }

type testServer struct {
	engine    *gin.Engine
	handler   *Handler
	scheduler *fakeScheduler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg.Set(&cfg.Cfg{})

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, _, err = database.RunMigrations(db)
	require.NoError(t, err)

	feeds := database.NewFeedRepository(db)
	groups := database.NewGroupRepository(db)
	items := database.NewItemRepository(db)

	fetcher := feed.NewFetcher(feed.NewHTTPClient(), "feedhub-test/1.0", 5*time.Second)
	pipeline := feed.NewPipeline(fetcher, feed.NewParser())
	manager := manage.New(feeds, groups, items, pipeline)

	scheduler := &fakeScheduler{result: crawler.Result{Outcome: crawler.OutcomeOK, NewItems: 2}}
	handler := NewHandler(manager, feeds, items, scheduler)

	return &testServer{
		engine:    NewServer(handler, "", ""),
		handler:   handler,
		scheduler: scheduler,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func serveFeed(t *testing.T, title string) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>%s</title>
    <link>https://example.com</link>
    <item><guid>1</guid><title>Post</title></item>
  </channel>
</rss>`, title)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestGetHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, cfg.GetVersion(), body["version"])
	assert.EqualValues(t, 0, body["feeds"])
}

func TestAddAndListFeeds(t *testing.T) {
	ts := newTestServer(t)
	upstream := serveFeed(t, "Example Blog")

	w := ts.do(t, http.MethodPost, "/feeds", gin.H{"url": upstream.URL})
	require.Equal(t, http.StatusCreated, w.Code)

	created := decode(t, w)
	assert.Equal(t, "Example Blog", created["title"])
	assert.Equal(t, upstream.URL, created["url"])

	w = ts.do(t, http.MethodGet, "/feeds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestAddFeedValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/feeds", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddFeedDuplicateConflicts(t *testing.T) {
	ts := newTestServer(t)
	upstream := serveFeed(t, "Example Blog")

	w := ts.do(t, http.MethodPost, "/feeds", gin.H{"url": upstream.URL})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/feeds", gin.H{"url": upstream.URL})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddFeedUnreachableUpstream(t *testing.T) {
	ts := newTestServer(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	w := ts.do(t, http.MethodPost, "/feeds", gin.H{"url": upstream.URL})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAddFeedMalformedUpstream(t *testing.T) {
	ts := newTestServer(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a feed</html>"))
	}))
	t.Cleanup(upstream.Close)

	w := ts.do(t, http.MethodPost, "/feeds", gin.H{"url": upstream.URL})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteFeed(t *testing.T) {
	ts := newTestServer(t)
	upstream := serveFeed(t, "Example Blog")

	w := ts.do(t, http.MethodPost, "/feeds", gin.H{"url": upstream.URL})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(decode(t, w)["id"].(float64))

	w = ts.do(t, http.MethodDelete, fmt.Sprintf("/feeds/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodDelete, fmt.Sprintf("/feeds/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodDelete, "/feeds/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrawlFeed(t *testing.T) {
	ts := newTestServer(t)
	upstream := serveFeed(t, "Example Blog")

	w := ts.do(t, http.MethodPost, "/feeds", gin.H{"url": upstream.URL})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(decode(t, w)["id"].(float64))

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/feeds/%d/crawl", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body["outcome"])
	assert.EqualValues(t, 2, body["new_items"])

	w = ts.do(t, http.MethodPost, "/feeds/999/crawl", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCrawlFeedConflictsWhenInFlight(t *testing.T) {
	ts := newTestServer(t)
	upstream := serveFeed(t, "Example Blog")

	w := ts.do(t, http.MethodPost, "/feeds", gin.H{"url": upstream.URL})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(decode(t, w)["id"].(float64))

	ts.scheduler.err = crawler.ErrCrawlInFlight

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/feeds/%d/crawl", id), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGroupLifecycle(t *testing.T) {
	ts := newTestServer(t)
	upstream := serveFeed(t, "Example Blog")

	w := ts.do(t, http.MethodPost, "/groups", gin.H{"title": "news"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/groups", gin.H{"title": "news"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/feeds", gin.H{"url": upstream.URL, "group": "news"})
	require.Equal(t, http.StatusCreated, w.Code)
	feedID := int64(decode(t, w)["id"].(float64))

	w = ts.do(t, http.MethodGet, "/groups/news/feeds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = ts.do(t, http.MethodPost, "/groups/news/feeds", gin.H{"feed_id": feedID})
	assert.Equal(t, http.StatusOK, w.Code)

	// deleting a non-empty group succeeds but carries a warning
	w = ts.do(t, http.MethodDelete, "/groups/news", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["warning"])
	assert.EqualValues(t, 1, body["feed_count"])

	w = ts.do(t, http.MethodDelete, "/groups/news", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStats(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now().UTC()
	ts.scheduler.stats = crawler.Stats{TotalCrawled: 4, TotalErrors: 1, TotalNewItems: 12, LastCrawlAt: &now}

	w := ts.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 4, body["total_crawled"])
	assert.EqualValues(t, 1, body["total_errors"])
	assert.EqualValues(t, 12, body["total_new_items"])
}

func TestBasicAuth(t *testing.T) {
	ts := newTestServer(t)
	authed := NewServer(ts.handler, "admin", "secret")

	req := httptest.NewRequest(http.MethodGet, "/feeds", nil)
	w := httptest.NewRecorder()
	authed.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/feeds", nil)
	req.SetBasicAuth("admin", "wrong")
	w = httptest.NewRecorder()
	authed.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/feeds", nil)
	req.SetBasicAuth("admin", "secret")
	w = httptest.NewRecorder()
	authed.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// the health check stays open
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	authed.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
