package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"madkalender/internal/calendar"
	"madkalender/internal/database"
	"madkalender/internal/metrics"
	"madkalender/internal/models"
	"madkalender/internal/scrape"
)

// getFeed routes /calendar/<slug>.ics and /calendar/custom/<config>.ics.
func (s *Server) getFeed(c *gin.Context) {
	feed := strings.TrimPrefix(c.Param("feed"), "/")
	if config, ok := strings.CutPrefix(feed, "custom/"); ok {
		s.getCustomCalendar(c, config)
		return
	}
	s.getCalendar(c, feed)
}

// getCalendar serves GET /calendar/<slug>.ics: the current scrape (refreshing
// the cache when stale) merged with up to a month of cached history either
// side, for one menu type.
func (s *Server) getCalendar(c *gin.Context, file string) {
	slug, ok := icsParam(file)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	metrics.IncFeedRequest(slug)

	ctx := c.Request.Context()
	menuType, err := s.db.MenuTypeBySlug(ctx, slug)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown menu type"})
		return
	}
	if err != nil {
		s.serverError(c, err)
		return
	}

	includeAlarms := alarmsRequested(c)
	cacheKey := "feed:" + slug + ":" + boolKey(includeAlarms)
	if body, ok := s.readFeedCache(ctx, cacheKey); ok {
		s.writeFeed(c, body)
		return
	}

	current, err := s.scraper.ScrapeMenu(ctx, false)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to refresh menus for feed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch menu data"})
		return
	}

	menuDays := make([]models.MenuDay, 0, len(current))
	currentDates := make(map[string]struct{})
	for _, day := range current {
		if day.MenuType != menuType.Name {
			continue
		}
		menuDays = append(menuDays, day)
		currentDates[day.Date.Format("2006-01-02")] = struct{}{}
	}

	today := s.today()
	historical, err := s.db.MenusForDateRangeByType(ctx, today.AddDate(0, -1, 0), today.AddDate(0, 1, 0), menuType.ID)
	if err != nil {
		s.serverError(c, err)
		return
	}
	for i := range historical {
		if _, ok := currentDates[historical[i].Date.Format("2006-01-02")]; ok {
			continue
		}
		menuDays = append(menuDays, historical[i].ToMenuDay())
	}

	sort.Slice(menuDays, func(i, j int) bool { return menuDays[i].Date.Before(menuDays[j].Date) })

	body := calendar.Generate(menuDays, menuType.Name, includeAlarms)
	s.writeFeedCache(ctx, cacheKey, body)
	s.writeFeed(c, body)
}

// getCustomCalendar serves GET /calendar/custom/<config>.ics where config
// maps each weekday to a menu type id ("M1T2W3R4F5"). Malformed configs are
// rejected, not defaulted.
func (s *Server) getCustomCalendar(c *gin.Context, config string) {
	configStr, ok := icsParam(config)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	mapping := DecodeCustomConfig(configStr)
	if mapping == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid custom calendar config"})
		return
	}
	metrics.IncFeedRequest("custom")

	ctx := c.Request.Context()
	includeAlarms := alarmsRequested(c)
	cacheKey := "feed:custom:" + configStr + ":" + boolKey(includeAlarms)
	if body, ok := s.readFeedCache(ctx, cacheKey); ok {
		s.writeFeed(c, body)
		return
	}

	// Refresh the cache if stale; the custom feed itself reads stored rows.
	if _, err := s.scraper.ScrapeMenu(ctx, false); err != nil {
		s.logger.Error().Err(err).Msg("failed to refresh menus for custom feed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch menu data"})
		return
	}

	today := s.today()
	var menuDays []models.MenuDay
	for weekday, menuTypeID := range mapping {
		entries, err := s.db.MenusForDateRangeByType(ctx, today.AddDate(0, -1, 0), today.AddDate(0, 1, 0), menuTypeID)
		if err != nil {
			s.serverError(c, err)
			return
		}
		for i := range entries {
			if entries[i].Date.Weekday() == weekday {
				menuDays = append(menuDays, entries[i].ToMenuDay())
			}
		}
	}

	sort.Slice(menuDays, func(i, j int) bool { return menuDays[i].Date.Before(menuDays[j].Date) })

	body := calendar.Generate(menuDays, "Custom", includeAlarms)
	s.writeFeedCache(ctx, cacheKey, body)
	s.writeFeed(c, body)
}

func (s *Server) getMenuTypes(c *gin.Context) {
	menuTypes, err := s.db.ActiveMenuTypes(c.Request.Context())
	if err != nil {
		s.serverError(c, err)
		return
	}

	out := make([]gin.H, 0, len(menuTypes))
	for _, mt := range menuTypes {
		out = append(out, gin.H{"id": mt.ID, "name": mt.Name, "slug": mt.Slug})
	}
	c.JSON(http.StatusOK, out)
}

// getMenuPreview returns today's and tomorrow's sanitized titles for one menu
// type. "Today" is the current date in Copenhagen.
func (s *Server) getMenuPreview(c *gin.Context) {
	ctx := c.Request.Context()
	menuType, err := s.db.MenuTypeBySlug(ctx, c.Param("slug"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown menu type"})
		return
	}
	if err != nil {
		s.serverError(c, err)
		return
	}

	today := s.today()
	tomorrow := today.AddDate(0, 0, 1)
	entries, err := s.db.MenusForDateRangeByType(ctx, today, tomorrow, menuType.ID)
	if err != nil {
		s.serverError(c, err)
		return
	}

	preview := func(date time.Time) gin.H {
		for i := range entries {
			if entries[i].Date.Equal(date) {
				return gin.H{"title": calendar.SanitizeTitle(entries[i].MainDish)}
			}
		}
		return nil
	}

	c.JSON(http.StatusOK, gin.H{
		"today":    preview(today),
		"tomorrow": preview(tomorrow),
	})
}

// refreshMenus is the hidden manual refresh endpoint, guarded by the
// REFRESH_SECRET environment variable.
func (s *Server) refreshMenus(c *gin.Context) {
	if !s.checkAdminSecret(c) {
		return
	}

	menuDays, err := s.scraper.ScrapeMenuFrom(c.Request.Context(), true, scrape.SourceManual)
	if err != nil {
		s.logger.Error().Err(err).Msg("manual menu refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "refreshed menu entries",
		"timestamp":  time.Now().UTC(),
		"menu_count": len(menuDays),
	})
}

func (s *Server) getScrapingLogs(c *gin.Context) {
	if !s.checkAdminSecret(c) {
		return
	}

	logs, err := s.db.RecentScrapingLogs(c.Request.Context(), 50)
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		c.String(http.StatusServiceUnavailable, "db not ready")
		return
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			c.String(http.StatusServiceUnavailable, "redis not ready")
			return
		}
	}
	c.String(http.StatusOK, "ready")
}

func (s *Server) checkAdminSecret(c *gin.Context) bool {
	expected := os.Getenv("REFRESH_SECRET")
	if expected == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "REFRESH_SECRET not configured"})
		return false
	}
	if c.Query("secret") != expected {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid or missing secret"})
		return false
	}
	return true
}

// writeFeed sends an ICS body with a Cache-Control lifetime derived from the
// cache freshness.
func (s *Server) writeFeed(c *gin.Context, body string) {
	maxAge := minCacheSeconds
	if lastUpdate, err := s.db.LastUpdateTime(c.Request.Context()); err == nil && lastUpdate != nil {
		maxAge = CacheDuration(s.now().UTC(), *lastUpdate, s.scraper.RefreshInterval())
	}

	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(maxAge))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (s *Server) readFeedCache(ctx context.Context, key string) (string, bool) {
	if s.redis == nil || s.feedTTL <= 0 {
		return "", false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *Server) writeFeedCache(ctx context.Context, key, body string) {
	if s.redis == nil || s.feedTTL <= 0 {
		return
	}
	_ = s.redis.Set(ctx, key, body, s.feedTTL).Err()
}

func (s *Server) serverError(c *gin.Context, err error) {
	s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func icsParam(param string) (string, bool) {
	if !strings.HasSuffix(param, ".ics") {
		return "", false
	}
	name := strings.TrimSuffix(param, ".ics")
	return name, name != ""
}

func alarmsRequested(c *gin.Context) bool {
	v := c.Query("alarms")
	return v == "1" || v == "true"
}

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
