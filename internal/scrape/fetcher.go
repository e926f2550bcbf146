package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/clinic-phone/internal/metrics"
)

// DefaultFetchTimeout bounds a single page fetch.
const DefaultFetchTimeout = 5 * time.Second

// Fetcher turns a URL into visible text. It never fails: every problem
// (network error, non-2xx, block page, timeout, empty body) yields "".
type Fetcher struct {
	scraper Scraper
	timeout time.Duration
}

// NewFetcher wraps a Scraper (usually a Chain) with a per-fetch timeout.
func NewFetcher(s Scraper, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{scraper: s, timeout: timeout}
}

// Fetch returns the page's visible text, or "" on any failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	if f == nil || f.scraper == nil {
		return ""
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	result, err := f.scraper.Scrape(fetchCtx, url)
	metrics.ObserveStage("fetch", start)
	if err != nil {
		metrics.ProviderFailed("fetch")
		zap.L().Debug("scrape: fetch failed",
			zap.String("url", url),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return ""
	}
	if result == nil || result.Page.Text == "" {
		zap.L().Debug("scrape: no visible text", zap.String("url", url))
		return ""
	}

	zap.L().Debug("scrape: fetched",
		zap.String("url", url),
		zap.String("source", result.Source),
		zap.Int("chars", len(result.Page.Text)),
	)
	return result.Page.Text
}
