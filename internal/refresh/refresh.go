// Package refresh runs the proactive background cache refresh loop.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"madkalender/internal/scrape"
)

// Config holds the background refresh cadence.
type Config struct {
	// CheckInterval is how often the loop re-evaluates cache freshness.
	CheckInterval time.Duration
	// RefreshInterval is the full cache freshness window. The loop refreshes
	// proactively at 90% of it so foreground requests stay cheap.
	RefreshInterval time.Duration
	// StartupDelay postpones the first check to let the process settle.
	StartupDelay time.Duration
}

// DefaultConfig returns the production cadence: check every 30 minutes,
// 6 hour freshness window, 30 second startup delay.
func DefaultConfig() Config {
	return Config{
		CheckInterval:   30 * time.Minute,
		RefreshInterval: scrape.DefaultRefreshInterval,
		StartupDelay:    30 * time.Second,
	}
}

// errorCooldown is how long the loop pauses after an unexpected failure
// before resuming its normal cadence.
const errorCooldown = 5 * time.Minute

// LastUpdateSource exposes the cache-freshness signal.
type LastUpdateSource interface {
	LastUpdateTime(ctx context.Context) (*time.Time, error)
}

// Service is the background counterpart of the on-demand refresh path.
type Service struct {
	config  Config
	scraper *scrape.Service
	repo    LastUpdateSource
	logger  *zerolog.Logger

	now     func() time.Time
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewService creates a background refresher.
func NewService(config Config, scraper *scrape.Service, repo LastUpdateSource, logger *zerolog.Logger) *Service {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 30 * time.Minute
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = scrape.DefaultRefreshInterval
	}
	return &Service{
		config:  config,
		scraper: scraper,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the refresh loop. Safe to call once; subsequent calls are
// no-ops.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info().
		Dur("check_interval", s.config.CheckInterval).
		Dur("refresh_interval", s.config.RefreshInterval).
		Msg("menu cache refresher started")
}

// Stop stops the loop and waits for it to finish. The loop only honors stop
// between ticks; a refresh in flight runs to completion.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("menu cache refresher stopped")
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	select {
	case <-time.After(s.config.StartupDelay):
	case <-ctx.Done():
		return
	case <-s.stopCh:
		return
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick refreshes the cache when it is past the proactive threshold. Fetch
// failures are logged and swallowed; the next tick retries. Unexpected
// failures (for instance a broken store) trigger a cooldown so the loop does
// not spin.
func (s *Service) tick(ctx context.Context) {
	lastUpdate, err := s.repo.LastUpdateTime(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read cache freshness")
		s.cooldown(ctx)
		return
	}

	if !ShouldRefresh(s.now().UTC(), lastUpdate, s.config.RefreshInterval) {
		age := time.Duration(0)
		if lastUpdate != nil {
			age = s.now().UTC().Sub(*lastUpdate)
		}
		s.logger.Debug().Dur("age", age).Msg("menu cache still fresh, skipping refresh")
		return
	}

	s.logger.Info().Msg("menu cache is stale, refreshing")
	menuDays, err := s.scraper.ScrapeMenuFrom(ctx, true, scrape.SourceBackground)
	if err != nil {
		s.logger.Error().Err(err).Msg("background menu refresh failed")
		return
	}
	s.logger.Info().Int("menu_days", len(menuDays)).Msg("menu cache refreshed")
}

func (s *Service) cooldown(ctx context.Context) {
	select {
	case <-time.After(errorCooldown):
	case <-ctx.Done():
	case <-s.stopCh:
	}
}

// ShouldRefresh is the proactive freshness verdict: refresh when the cache is
// empty or older than 90% of the refresh interval. The 10% margin lets the
// background loop win the race against on-demand triggers, which use the full
// interval.
func ShouldRefresh(now time.Time, lastUpdate *time.Time, refreshInterval time.Duration) bool {
	if lastUpdate == nil {
		return true
	}
	threshold := time.Duration(float64(refreshInterval) * 0.9)
	return now.Sub(*lastUpdate) > threshold
}
