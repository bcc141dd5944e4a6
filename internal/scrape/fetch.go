package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher retrieves the raw HTML of the weekly menu page.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// HTTPFetcher fetches the menu page over HTTP with a bounded timeout and a
// token-bucket limiter so concurrent refresh races cannot hammer the
// upstream site.
type HTTPFetcher struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a fetcher for the given URL.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// Fetch downloads the page body. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; madkalender/1.0)")

	res, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch menu page: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("fetch menu page: bad status %s", res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read menu page: %w", err)
	}
	return string(body), nil
}
