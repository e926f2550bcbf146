package scrape

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/clinic-phone/internal/model"
	"github.com/sells-group/clinic-phone/internal/resilience"
	"github.com/sells-group/clinic-phone/pkg/jina"
)

// JinaAdapter wraps the Jina Reader as a Scraper behind a circuit breaker,
// for pages the local fetcher cannot read.
type JinaAdapter struct {
	client  jina.Client
	breaker *resilience.CircuitBreaker
}

// NewJinaAdapter creates a JinaAdapter. Only transient failures count
// against the breaker.
func NewJinaAdapter(client jina.Client) *JinaAdapter {
	cfg := resilience.DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 3
	cfg.ShouldTrip = resilience.IsTransient
	return &JinaAdapter{
		client:  client,
		breaker: resilience.NewCircuitBreaker("jina_reader", cfg),
	}
}

func (j *JinaAdapter) Name() string { return "jina" }

// Supports returns true unless the circuit breaker is open.
func (j *JinaAdapter) Supports(_ string) bool {
	return j.breaker.State() != resilience.CircuitOpen
}

// Scrape reads a URL via Jina Reader and validates the response.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (*jina.ReadResponse, error) {
		resp, err := j.client.Read(ctx, targetURL)
		var se *jina.StatusError
		if errors.As(err, &se) && resilience.IsTransientHTTPStatus(se.StatusCode) {
			return nil, resilience.NewTransientError(err, se.StatusCode)
		}
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	if needsFallback(resp) {
		return nil, eris.New("jina: unusable response")
	}

	pageURL := resp.Data.URL
	if pageURL == "" {
		pageURL = targetURL
	}
	return &Result{
		Page: model.FetchedPage{
			URL:        pageURL,
			Title:      resp.Data.Title,
			Text:       strings.Join(strings.Fields(resp.Data.Content), " "),
			StatusCode: resp.Code,
		},
		Source: "jina",
	}, nil
}

var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// needsFallback reports whether a Jina response lacks usable content.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}

	content := strings.TrimSpace(resp.Data.Content)
	if content == "" {
		return true
	}

	if len(content) < 1000 {
		lower := strings.ToLower(content)
		for _, sig := range challengeSignatures {
			if strings.Contains(lower, sig) {
				return true
			}
		}
	}
	return false
}
