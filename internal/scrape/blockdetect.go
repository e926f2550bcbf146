package scrape

import (
	"bytes"
	"net/http"
	"strings"
)

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockRateLimit  BlockType = "rate_limit"
	BlockJSShell    BlockType = "js_shell"
)

// challengePageSize bounds the size of pages checked for challenge and
// captcha wording. Sites behind Cloudflare ship its email-decode and
// challenge-platform scripts on every page, and contact forms embed
// reCAPTCHA, so these markers only count on a small interstitial page or a
// non-2xx response.
const challengePageSize = 8 * 1024

// DetectBlock checks an HTTP response for signs of anti-bot protection.
// body is the raw response; text is its visible text with script, style
// and noscript removed.
func DetectBlock(resp *http.Response, body []byte, text string) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true, BlockRateLimit
	}

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" ||
			strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !ok || len(body) < challengePageSize {
		lower := strings.ToLower(text)
		if strings.Contains(lower, "checking your browser") ||
			(strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")) ||
			bytes.Contains(bytes.ToLower(body), []byte("cf-browser-verification")) {
			return true, BlockCloudflare
		}
		if strings.Contains(lower, "captcha") || strings.Contains(lower, "verifica di non essere un robot") {
			return true, BlockCaptcha
		}
	}

	// JS-only shell: nothing visible, only noscript or meta refresh.
	if strings.TrimSpace(text) == "" {
		lowerBody := strings.ToLower(string(body))
		if strings.Contains(lowerBody, "<noscript") || strings.Contains(lowerBody, `http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
