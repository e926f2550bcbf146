// Package phone finds phone-number-shaped substrings in free text.
package phone

import (
	"regexp"
	"strings"
)

const (
	// PageLimit caps how much scraped page text is scanned.
	PageLimit = 10000
	// PromptLimit caps how much page text is sent in an LLM prompt.
	PromptLimit = 3000
)

// pattern accepts an optional international prefix, an optional area code
// (parenthesised or not) and two 3-4 digit groups separated by spaces or
// hyphens.
var pattern = regexp.MustCompile(`(\+?\d{1,3}[\s-]?)?(\(?\d{1,4}\)?[\s-]?)?\d{3,4}[\s-]?\d{3,4}`)

// Extract returns the first phone-shaped substring of text in document
// order. The input is not truncated here; callers bound it with Truncate.
func Extract(text string) (string, bool) {
	m := pattern.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}

// ExtractPage truncates page text to PageLimit and extracts from it.
func ExtractPage(text string) (string, bool) {
	return Extract(Truncate(text, PageLimit))
}

// Truncate returns at most limit runes of s.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// IsNotFound reports whether an LLM reply is the "Not Found" sentinel (or
// empty).
func IsNotFound(reply string) bool {
	r := strings.TrimSpace(reply)
	return r == "" || strings.Contains(strings.ToLower(r), "not found")
}
