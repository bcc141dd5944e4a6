package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	scrapes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "madkalender",
			Name:      "scrapes_total",
			Help:      "Count of scrape attempts by source and outcome.",
		},
		[]string{"source", "status"},
	)

	scrapeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "madkalender",
			Name:      "scrape_duration_seconds",
			Help:      "Time to fetch and extract the menu page.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	entriesUpserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "madkalender",
			Name:      "menu_entries_upserted_total",
			Help:      "Count of menu entries written to the cache.",
		},
	)

	feedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "madkalender",
			Name:      "feed_requests_total",
			Help:      "Count of calendar feed requests by feed.",
		},
		[]string{"feed"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(scrapes, scrapeDuration, entriesUpserted, feedRequests)
	})
}

func IncScrape(source, status string) {
	scrapes.WithLabelValues(source, status).Inc()
}

func ObserveScrapeDuration(d time.Duration) {
	scrapeDuration.Observe(d.Seconds())
}

func AddEntriesUpserted(n int) {
	entriesUpserted.Add(float64(n))
}

func IncFeedRequest(feed string) {
	feedRequests.WithLabelValues(feed).Inc()
}
