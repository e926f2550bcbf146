package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludePatterns skip binary documents and media, which never yield
// usable page text.
var defaultExcludePatterns = []string{
	"*.pdf",
	"*.doc",
	"*.docx",
	"*.xls",
	"*.xlsx",
	"*.zip",
	"*.jpg",
	"*.jpeg",
	"*.png",
	"*.gif",
	"*.mp4",
}

// PathMatcher filters URLs by glob patterns. A pattern starting with "/" is
// matched against the whole path ("/blog/*" also matches "/blog/a/b"); any
// other pattern is matched against the last path segment ("*.pdf").
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher from glob patterns. Falls back to the
// default document patterns if none are provided.
func NewPathMatcher(patterns []string) *PathMatcher {
	if len(patterns) == 0 {
		patterns = defaultExcludePatterns
	}
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return &PathMatcher{patterns: lowered}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// IsExcluded reports whether a URL matches any pattern. Unparseable URLs are
// excluded.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	urlPath := strings.ToLower(u.Path)
	base := path.Base(urlPath)
	for _, pattern := range m.patterns {
		if strings.HasPrefix(pattern, "/") {
			if matchSegmented(pattern, urlPath) {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// matchSegmented lets a pattern like "/blog/*" match both "/blog/post" and
// "/blog/deep/nested/path".
func matchSegmented(pattern, urlPath string) bool {
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	return false
}
