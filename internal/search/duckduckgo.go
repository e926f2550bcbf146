package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/clinic-phone/internal/resilience"
)

const defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo searches the DuckDuckGo HTML endpoint, which needs no API key.
type DuckDuckGo struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// DuckDuckGoOption configures the DuckDuckGo provider.
type DuckDuckGoOption func(*DuckDuckGo)

// WithDuckDuckGoURL overrides the endpoint (for testing).
func WithDuckDuckGoURL(u string) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.http = hc }
}

// WithRateLimit caps outgoing searches per second. Zero disables limiting.
func WithRateLimit(perSec float64) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if perSec <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

// NewDuckDuckGo creates the provider. DuckDuckGo throttles bursts, so
// searches are limited to one per second by default.
func NewDuckDuckGo(userAgent string, opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		baseURL:   defaultDuckDuckGoURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// safeSearchParam maps a safe-search level to DuckDuckGo's kp parameter.
func safeSearchParam(level string) string {
	switch strings.ToLower(level) {
	case "on", "strict":
		return "1"
	case "moderate":
		return "-1"
	default:
		return "-2"
	}
}

// Search posts the query and parses organic results from the HTML page.
func (d *DuckDuckGo) Search(ctx context.Context, req Request) ([]Result, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "duckduckgo: rate limit wait")
		}
	}

	form := url.Values{}
	form.Set("q", req.Query)
	if req.Region != "" {
		form.Set("kl", req.Region)
	}
	form.Set("kp", safeSearchParam(req.SafeSearch))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: create request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if d.userAgent != "" {
		httpReq.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("duckduckgo: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) || resp.StatusCode == http.StatusAccepted {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: parse results")
	}

	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveRedirect(href)
		if target == "" {
			return true
		}
		results = append(results, Result{
			URL:     target,
			Title:   strings.TrimSpace(link.Text()),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return req.MaxResults <= 0 || len(results) < req.MaxResults
	})
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's "/l/?uddg=<target>" links.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return ""
	}
	return u.String()
}
