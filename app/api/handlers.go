package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"feedhub/app/cfg"
	"feedhub/app/crawler"
	"feedhub/app/database"
	"feedhub/app/feed"
	"feedhub/app/manage"
)

// CrawlScheduler is the scheduler surface the API dispatches on-demand
// crawls through, so they share in-flight tracking with the run-loop.
type CrawlScheduler interface {
	CrawlNow(ctx context.Context, f database.Feed) (crawler.Result, error)
	GetStats() crawler.Stats
}

type Handler struct {
	manager   *manage.Manager
	feeds     database.FeedStore
	items     database.ItemStore
	scheduler CrawlScheduler
}

func NewHandler(manager *manage.Manager, feeds database.FeedStore,
	items database.ItemStore, scheduler CrawlScheduler) *Handler {
	return &Handler{
		manager:   manager,
		feeds:     feeds,
		items:     items,
		scheduler: scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"version":   cfg.Get().Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if feedCount, err := h.feeds.Count(c.Request.Context()); err == nil {
		health["feeds"] = feedCount
	}
	if itemCount, err := h.items.CountAll(c.Request.Context()); err == nil {
		health["items"] = itemCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := h.scheduler.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"total_crawled":   stats.TotalCrawled,
		"total_errors":    stats.TotalErrors,
		"total_new_items": stats.TotalNewItems,
		"queue_size":      stats.QueueSize,
		"last_crawl_at":   stats.LastCrawlAt,
	})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.manager.ListFeeds(c.Request.Context())
	if err != nil {
		h.fail(c, "list_feeds", err)
		return
	}

	out := make([]feedResponse, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, toFeedResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{"feeds": out, "total": len(out)})
}

func (h *Handler) AddFeed(c *gin.Context) {
	var req addFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := h.manager.AddFeed(c.Request.Context(), req.URL, req.Group)
	if err != nil {
		h.fail(c, "add_feed", err)
		return
	}

	c.JSON(http.StatusCreated, toFeedResponse(*f))
}

func (h *Handler) DeleteFeed(c *gin.Context) {
	id, ok := h.feedID(c)
	if !ok {
		return
	}

	f, err := h.manager.DeleteFeed(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "delete_feed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": toFeedResponse(*f)})
}

func (h *Handler) CrawlFeed(c *gin.Context) {
	id, ok := h.feedID(c)
	if !ok {
		return
	}

	f, err := h.manager.GetFeed(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "crawl_feed", err)
		return
	}

	result, err := h.scheduler.CrawlNow(c.Request.Context(), *f)
	if err != nil {
		h.fail(c, "crawl_feed", err)
		return
	}

	resp := crawlResponse{
		FeedID:   result.FeedID,
		Outcome:  string(result.Outcome),
		NewItems: result.NewItems,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListFeedItems(c *gin.Context) {
	id, ok := h.feedID(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	items, err := h.manager.FeedItems(c.Request.Context(), id, limit)
	if err != nil {
		h.fail(c, "list_feed_items", err)
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemResponse{
			ID:          item.ID,
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			Content:     item.Content,
			PublishedAt: item.PublishedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "total": len(out)})
}

func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.manager.ListGroups(c.Request.Context())
	if err != nil {
		h.fail(c, "list_groups", err)
		return
	}

	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupResponse{ID: g.ID, Title: g.Title})
	}
	c.JSON(http.StatusOK, gin.H{"groups": out, "total": len(out)})
}

func (h *Handler) AddGroup(c *gin.Context) {
	var req addGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.manager.CreateGroup(c.Request.Context(), req.Title)
	if err != nil {
		h.fail(c, "add_group", err)
		return
	}

	c.JSON(http.StatusCreated, groupResponse{ID: group.ID, Title: group.Title})
}

func (h *Handler) DeleteGroup(c *gin.Context) {
	title := c.Param("title")

	feedCount, err := h.manager.DeleteGroup(c.Request.Context(), title)
	if err != nil {
		h.fail(c, "delete_group", err)
		return
	}

	resp := gin.H{"deleted": title}
	if feedCount > 0 {
		resp["warning"] = "group still had associated feeds"
		resp["feed_count"] = feedCount
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListGroupFeeds(c *gin.Context) {
	title := c.Param("title")

	group, feeds, err := h.manager.GroupFeeds(c.Request.Context(), title)
	if err != nil {
		h.fail(c, "list_group_feeds", err)
		return
	}

	out := make([]feedResponse, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, toFeedResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{
		"group": groupResponse{ID: group.ID, Title: group.Title},
		"feeds": out,
		"total": len(out),
	})
}

func (h *Handler) AddGroupFeed(c *gin.Context) {
	title := c.Param("title")

	var req addGroupFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.manager.AddFeedToGroup(c.Request.Context(), req.FeedID, title)
	if err != nil {
		h.fail(c, "add_group_feed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": groupResponse{ID: group.ID, Title: group.Title}, "feed_id": req.FeedID})
}

func (h *Handler) feedID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed id"})
		return 0, false
	}
	return id, true
}

// fail maps the error taxonomy onto HTTP statuses: lookup misses to 404,
// duplicates and in-flight crawls to 409, unreachable feeds to 502,
// malformed feeds to 422, everything else to 500.
func (h *Handler) fail(c *gin.Context, operation string, err error) {
	var fetchErr *feed.FetchError
	var parseErr *feed.ParseError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, crawler.ErrCrawlInFlight):
		status = http.StatusConflict
	case errors.As(err, &fetchErr):
		status = http.StatusBadGateway
	case errors.As(err, &parseErr):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		slog.Error("API request failed", "operation", operation, "error", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
