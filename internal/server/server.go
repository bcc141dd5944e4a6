// Package server exposes the calendar feeds and the small JSON API over gin.
package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"madkalender/internal/database"
	"madkalender/internal/scrape"
)

// Server holds the HTTP surface dependencies.
type Server struct {
	db      *database.DB
	scraper *scrape.Service
	logger  *zerolog.Logger

	redis   *redis.Client
	feedTTL time.Duration

	location *time.Location
	now      func() time.Time
}

// New creates the HTTP server facade.
func New(db *database.DB, scraper *scrape.Service, logger *zerolog.Logger) *Server {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		loc = time.UTC
	}
	return &Server{
		db:       db,
		scraper:  scraper,
		logger:   logger,
		location: loc,
		now:      time.Now,
	}
}

// UseRedisCache enables caching of rendered feeds in Redis.
func (s *Server) UseRedisCache(client *redis.Client, ttl time.Duration) {
	s.redis = client
	s.feedTTL = ttl
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// A single catch-all because gin cannot mix the static "custom" segment
	// with a param at the same position.
	r.GET("/calendar/*feed", s.getFeed)

	api := r.Group("/api")
	{
		api.GET("/menu-types", s.getMenuTypes)
		api.GET("/menu-preview/:slug", s.getMenuPreview)
	}

	admin := r.Group("/admin")
	{
		admin.GET("/refresh-menus", s.refreshMenus)
		admin.GET("/scraping-logs", s.getScrapingLogs)
	}

	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)

	return r
}

// today returns the current date in the feed's target timezone, truncated to
// midnight.
func (s *Server) today() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
