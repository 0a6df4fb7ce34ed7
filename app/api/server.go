package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the management HTTP server. When username is non-empty
// every route except the health check requires basic auth.
func NewServer(handler *Handler, username, password string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.GET("/health", handler.GetHealth)

	authed := r.Group("/")
	if username != "" {
		authed.Use(gin.BasicAuth(gin.Accounts{username: password}))
	}

	authed.GET("/stats", handler.GetStats)

	authed.GET("/feeds", handler.ListFeeds)
	authed.POST("/feeds", handler.AddFeed)
	authed.DELETE("/feeds/:id", handler.DeleteFeed)
	authed.POST("/feeds/:id/crawl", handler.CrawlFeed)
	authed.GET("/feeds/:id/items", handler.ListFeedItems)

	authed.GET("/groups", handler.ListGroups)
	authed.POST("/groups", handler.AddGroup)
	authed.DELETE("/groups/:title", handler.DeleteGroup)
	authed.GET("/groups/:title/feeds", handler.ListGroupFeeds)
	authed.POST("/groups/:title/feeds", handler.AddGroupFeed)

	return r
}
