package scrape

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/clinic-phone/pkg/jina"
)

type mockJina struct {
	mock.Mock
}

func (m *mockJina) Read(ctx context.Context, targetURL string) (*jina.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.ReadResponse), args.Error(1)
}

func (m *mockJina) Search(ctx context.Context, query string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.SearchResponse), args.Error(1)
}

// stubScraper implements Scraper for testing.
type stubScraper struct {
	name     string
	supports bool
	result   *Result
	err      error
	calls    int
}

func (s *stubScraper) Name() string           { return s.name }
func (s *stubScraper) Supports(_ string) bool { return s.supports }
func (s *stubScraper) Scrape(_ context.Context, _ string) (*Result, error) {
	s.calls++
	return s.result, s.err
}
