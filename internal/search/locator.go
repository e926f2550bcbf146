package search

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/clinic-phone/internal/metrics"
	"github.com/sells-group/clinic-phone/internal/resilience"
)

// Locator turns a query into an ordered list of candidate page URLs.
type Locator struct {
	provider   Provider
	region     string
	safeSearch string
	breaker    *resilience.CircuitBreaker
}

// NewLocator creates a Locator over provider with fixed region and
// safe-search settings.
func NewLocator(provider Provider, region, safeSearch string) *Locator {
	cfg := resilience.DefaultCircuitBreakerConfig()
	cfg.ShouldTrip = resilience.IsTransient
	return &Locator{
		provider:   provider,
		region:     region,
		safeSearch: safeSearch,
		breaker:    resilience.NewCircuitBreaker("search_"+provider.Name(), cfg),
	}
}

// Locate returns up to maxResults distinct http(s) URLs in provider rank
// order. Any provider failure yields an empty slice.
func (l *Locator) Locate(ctx context.Context, query string, maxResults int) []string {
	if maxResults <= 0 {
		return nil
	}

	start := time.Now()
	results, err := resilience.ExecuteVal(ctx, l.breaker, func(ctx context.Context) ([]Result, error) {
		return l.provider.Search(ctx, Request{
			Query:      query,
			Region:     l.region,
			SafeSearch: l.safeSearch,
			MaxResults: maxResults,
		})
	})
	metrics.ObserveStage("search", start)
	if err != nil {
		metrics.ProviderFailed(l.provider.Name())
		zap.L().Warn("search: provider failed",
			zap.String("provider", l.provider.Name()),
			zap.String("query", query),
			zap.Error(err),
		)
		return nil
	}

	seen := make(map[string]struct{}, len(results))
	urls := make([]string, 0, maxResults)
	for _, r := range results {
		if len(urls) >= maxResults {
			break
		}
		if !isWebURL(r.URL) {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		urls = append(urls, r.URL)
	}

	zap.L().Debug("search: located sources",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Strings("urls", urls),
	)
	return urls
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
