package scrape

import (
	"context"

	"github.com/sells-group/clinic-phone/internal/model"
)

// Result holds a fetched page with the scraper that produced it.
type Result struct {
	Page   model.FetchedPage
	Source string // e.g. "local_http", "jina"
}

// Scraper fetches a single URL and returns its visible text.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
