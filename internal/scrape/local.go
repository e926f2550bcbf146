package scrape

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/clinic-phone/internal/model"
)

// DefaultUserAgent is a desktop Chrome UA; many clinic sites reject bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxBodyBytes = 512 * 1024

// invisibleSelector lists elements whose text is never shown to a reader.
const invisibleSelector = "script, style, noscript, template"

// LocalScraper fetches HTML via net/http, detects blocks, and reduces the
// document to its visible text.
type LocalScraper struct {
	client    *http.Client
	userAgent string
}

// NewLocalScraper creates a LocalScraper. An empty userAgent uses
// DefaultUserAgent. Per-request deadlines come from the caller's context.
func NewLocalScraper(userAgent string) *LocalScraper {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &LocalScraper{
		userAgent: userAgent,
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL, detects blocks, and extracts visible text.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.8")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	doc, err := goquery.NewDocumentFromReader(decodeBody(body, resp.Header.Get("Content-Type")))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: parse html")
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find(invisibleSelector).Remove()
	text := visibleText(doc.Selection)

	if blocked, blockType := DetectBlock(resp, body, text); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", blockType)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	if text == "" {
		return nil, eris.New("local_http: empty page")
	}

	return &Result{
		Page: model.FetchedPage{
			URL:        targetURL,
			Title:      title,
			Text:       text,
			StatusCode: resp.StatusCode,
		},
		Source: "local_http",
	}, nil
}

// decodeBody converts a body in a declared non-UTF-8 charset to UTF-8.
// Unknown charsets are passed through unchanged.
func decodeBody(body []byte, contentType string) io.Reader {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return bytes.NewReader(body)
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return bytes.NewReader(body)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return bytes.NewReader(body)
	}
	return enc.NewDecoder().Reader(bytes.NewReader(body))
}

// visibleText joins every text node under sel with single spaces, so that
// adjacent elements never run together ("Tel.<br>02" → "Tel. 02").
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
