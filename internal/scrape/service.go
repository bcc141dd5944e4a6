package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"madkalender/internal/metrics"
	"madkalender/internal/models"
)

// Scrape sources recorded in the scraping log.
const (
	SourceBackground = "Background"
	SourceManual     = "Manual"
	SourceAPI        = "API"
)

// DefaultRefreshInterval is how long cached menu data stays fresh.
const DefaultRefreshInterval = 6 * time.Hour

// Repository is the cache contract the scraper writes through. Implemented by
// the database package.
type Repository interface {
	MenusForDateRange(ctx context.Context, start, end time.Time) ([]models.MenuEntry, error)
	SaveMenus(ctx context.Context, entries []models.MenuEntry) error
	LastUpdateTime(ctx context.Context) (*time.Time, error)
	GetOrCreateMenuType(ctx context.Context, name string) (*models.MenuType, error)
	InsertScrapingLog(ctx context.Context, entry *models.ScrapingLog) error
}

// Service owns the fetch-extract-store cycle and the on-demand freshness
// decision.
type Service struct {
	fetcher         Fetcher
	repo            Repository
	refreshInterval time.Duration
	logger          *zerolog.Logger
	now             func() time.Time
}

// NewService creates a scraping service. A non-positive refreshInterval falls
// back to the 6 hour default.
func NewService(fetcher Fetcher, repo Repository, refreshInterval time.Duration, logger *zerolog.Logger) *Service {
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	return &Service{
		fetcher:         fetcher,
		repo:            repo,
		refreshInterval: refreshInterval,
		logger:          logger,
		now:             time.Now,
	}
}

// ScrapeMenu returns current menu data, serving from the cache while it is
// fresh and re-scraping otherwise. A zero-result scrape is returned as-is;
// the caller decides what "nothing new" means.
func (s *Service) ScrapeMenu(ctx context.Context, forceRefresh bool) ([]models.MenuDay, error) {
	return s.ScrapeMenuFrom(ctx, forceRefresh, SourceAPI)
}

// ScrapeMenuFrom is ScrapeMenu with an explicit scraping-log source.
func (s *Service) ScrapeMenuFrom(ctx context.Context, forceRefresh bool, source string) ([]models.MenuDay, error) {
	lastUpdate, err := s.repo.LastUpdateTime(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	shouldRefresh := forceRefresh || lastUpdate == nil || now.Sub(*lastUpdate) > s.refreshInterval

	if !shouldRefresh {
		cached, err := s.cachedMenus(ctx)
		if err != nil {
			return nil, err
		}
		// An empty cache never counts as fresh; fall through to a fetch.
		if len(cached) != 0 {
			return cached, nil
		}
	}

	freshMenus, err := s.scrapeFromWebsite(ctx, source)
	if err != nil {
		return nil, err
	}

	if len(freshMenus) != 0 {
		if err := s.saveMenus(ctx, freshMenus); err != nil {
			return nil, err
		}
	}

	return freshMenus, nil
}

// RefreshInterval returns the configured cache freshness window.
func (s *Service) RefreshInterval() time.Duration {
	return s.refreshInterval
}

// cachedMenus reads a broad window (7 days back to 14 days forward) so week
// boundaries never cause misses, and reshapes the rows into MenuDay values.
func (s *Service) cachedMenus(ctx context.Context) ([]models.MenuDay, error) {
	today := truncateToDate(s.now().UTC())
	entries, err := s.repo.MenusForDateRange(ctx, today.AddDate(0, 0, -7), today.AddDate(0, 0, 14))
	if err != nil {
		return nil, err
	}

	menuDays := make([]models.MenuDay, 0, len(entries))
	for i := range entries {
		menuDays = append(menuDays, entries[i].ToMenuDay())
	}
	return menuDays, nil
}

func (s *Service) saveMenus(ctx context.Context, menuDays []models.MenuDay) error {
	entries := make([]models.MenuEntry, 0, len(menuDays))
	for _, day := range menuDays {
		menuType, err := s.repo.GetOrCreateMenuType(ctx, day.MenuType)
		if err != nil {
			return err
		}
		entries = append(entries, models.MenuEntry{
			Date:       day.Date,
			DayName:    day.DayName,
			MenuItems:  strings.Join(day.MenuItems, "\n"),
			MainDish:   day.MainDish,
			Details:    day.Details,
			MenuTypeID: menuType.ID,
		})
	}

	if err := s.repo.SaveMenus(ctx, entries); err != nil {
		return err
	}
	metrics.AddEntriesUpserted(len(entries))
	return nil
}

func (s *Service) scrapeFromWebsite(ctx context.Context, source string) ([]models.MenuDay, error) {
	start := s.now()

	html, err := s.fetcher.Fetch(ctx)
	if err != nil {
		metrics.IncScrape(source, "fetch_error")
		s.logScrape(ctx, start, source, false, false, 0, err)
		return nil, err
	}

	doc, err := ParseDocument(html)
	if err != nil {
		metrics.IncScrape(source, "parse_error")
		s.logScrape(ctx, start, source, true, false, 0, err)
		return nil, err
	}

	menuDays := ExtractMenus(doc)

	metrics.IncScrape(source, "ok")
	metrics.ObserveScrapeDuration(s.now().Sub(start))
	s.logScrape(ctx, start, source, true, true, len(menuDays), nil)

	if s.logger != nil {
		s.logger.Info().
			Str("source", source).
			Int("menu_days", len(menuDays)).
			Dur("duration", s.now().Sub(start)).
			Msg("scraped menu page")
	}

	return menuDays, nil
}

// logScrape records the attempt in the scraping log. Log failures are
// swallowed; observability must not break the scrape itself.
func (s *Service) logScrape(ctx context.Context, start time.Time, source string, requestOK, parseOK bool, count int, cause error) {
	entry := &models.ScrapingLog{
		Timestamp:         start.UTC(),
		RequestSuccessful: requestOK,
		ParsingSuccessful: parseOK,
		NewMenuItemsCount: count,
		Duration:          s.now().Sub(start),
		Source:            source,
	}
	if cause != nil {
		entry.ErrorMessage = cause.Error()
	}
	if err := s.repo.InsertScrapingLog(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn().Err(err).Msg("failed to record scraping log")
	}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
