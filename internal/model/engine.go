package model

import "strings"

// Engine selects the evidence pipeline used for a query.
type Engine string

const (
	// EngineLocal searches the web, scrapes the top results and votes.
	EngineLocal Engine = "local"
	// EngineDeepSearch asks an LLM with a web-search tool for one contact.
	EngineDeepSearch Engine = "deepsearch"
)

// ParseEngine maps a user-supplied engine name to an Engine. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseEngine(s string) (Engine, bool) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case EngineLocal:
		return EngineLocal, true
	case EngineDeepSearch:
		return EngineDeepSearch, true
	}
	return "", false
}

// AllEngines returns every supported engine.
func AllEngines() []Engine {
	return []Engine{EngineLocal, EngineDeepSearch}
}
