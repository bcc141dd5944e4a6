package server

import "time"

const (
	// minCacheSeconds is served when the cache is already stale or the
	// last-update timestamp is implausible.
	minCacheSeconds = 300
	// cacheBuffer gives the background refresher room to finish before
	// clients come back.
	cacheBuffer = 10 * time.Minute
)

// CacheDuration computes the Cache-Control max-age for a feed response: time
// until the proactive refresh (90% of the refresh interval after the last
// update) plus a buffer, floored at 5 minutes and capped at the refresh
// interval.
func CacheDuration(now, lastModified time.Time, refreshInterval time.Duration) int {
	if lastModified.After(now) {
		return minCacheSeconds
	}

	nextRefresh := lastModified.Add(time.Duration(float64(refreshInterval) * 0.9))
	duration := nextRefresh.Sub(now) + cacheBuffer

	seconds := int(duration.Seconds())
	if seconds < minCacheSeconds {
		return minCacheSeconds
	}
	if maxSeconds := int(refreshInterval.Seconds()); seconds > maxSeconds {
		return maxSeconds
	}
	return seconds
}
